// Package dedup gera a impressão digital que impede a mesma linha de export de entrar duas vezes no ledger.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	"github.com/radieske/bet-recap-ledger/internal/ledger-service/mapping"
)

// keyFields em ordem de preferência
var keyFields = []string{
	mapping.FieldPlacedAt,
	mapping.FieldPick,
	mapping.FieldOdds,
	mapping.FieldStake,
	mapping.FieldBook,
}

const minKeyFields = 3

// Fingerprint calcula o hash sobre os valores crus da linha (não os normalizados), para que
// a mesma linha de origem colida mesmo que a normalização mude entre versões.
// Usa as três primeiras colunas-chave presentes e não vazias; com menos de três, usa todas
// as colunas não vazias na ordem dos headers.
func Fingerprint(headers []string, row map[string]string, m mapping.Mapping) string {
	parts := make([]string, 0, minKeyFields)
	for _, field := range keyFields {
		h, ok := m.Header(field)
		if !ok {
			continue
		}
		if v := strings.TrimSpace(row[h]); v != "" {
			parts = append(parts, field+":"+v)
		}
		if len(parts) == minKeyFields {
			break
		}
	}

	if len(parts) < minKeyFields {
		parts = parts[:0]
		seen := make(map[string]bool, len(headers))
		for _, h := range headers {
			if seen[h] {
				continue
			}
			seen[h] = true
			if v := strings.TrimSpace(row[h]); v != "" {
				parts = append(parts, h+":"+v)
			}
		}
	}
	return digest(parts)
}

// Manual gera o hash de uma aposta lançada à mão. O UUID garante que dois lançamentos
// idênticos sejam apostas distintas.
func Manual(fields ...string) string {
	parts := make([]string, 0, len(fields)+1)
	parts = append(parts, fields...)
	parts = append(parts, "salt:"+uuid.NewString())
	return digest(parts)
}

func digest(parts []string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
