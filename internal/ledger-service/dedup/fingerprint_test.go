package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/radieske/bet-recap-ledger/internal/ledger-service/mapping"
)

func sha(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestFingerprint_KeyFields(t *testing.T) {
	headers := []string{"Date", "Selection", "Odds", "Units", "Book"}
	m := mapping.Resolve(headers, nil)
	row := map[string]string{"Date": "10/5/2026", "Selection": "Lakers -3.5", "Odds": "-110", "Units": "1", "Book": "DK"}

	got := Fingerprint(headers, row, m)
	assert.Equal(t, sha("placed_at:10/5/2026|pick:Lakers -3.5|odds:-110"), got)
	assert.Len(t, got, 64)
}

func TestFingerprint_SkipsEmptyKeyFields(t *testing.T) {
	headers := []string{"Date", "Pick", "Odds", "Stake", "Book"}
	m := mapping.Resolve(headers, nil)
	row := map[string]string{"Date": "", "Pick": "Over 8.5", "Odds": "+105", "Stake": "2", "Book": "FD"}

	assert.Equal(t, sha("pick:Over 8.5|odds:+105|stake:2"), Fingerprint(headers, row, m))
}

func TestFingerprint_FallbackUsesAllColumns(t *testing.T) {
	headers := []string{"Pick", "Sport", "Result", "Memo"}
	m := mapping.Resolve(headers, nil)
	row := map[string]string{"Pick": "Over 8.5", "Sport": "MLB", "Result": "W", "Memo": ""}

	assert.Equal(t, sha("Pick:Over 8.5|Sport:MLB|Result:W"), Fingerprint(headers, row, m))
}

func TestFingerprint_RawValuesAreStable(t *testing.T) {
	headers := []string{"Date", "Pick", "Odds"}
	m := mapping.Resolve(headers, nil)
	a := map[string]string{"Date": "10/5/2026", "Pick": "X", "Odds": "-110"}
	b := map[string]string{"Date": "2026-10-05", "Pick": "X", "Odds": "-110"}

	// mesma linha, mesmo hash; formatos diferentes da mesma data são linhas diferentes
	assert.Equal(t, Fingerprint(headers, a, m), Fingerprint(headers, a, m))
	assert.NotEqual(t, Fingerprint(headers, a, m), Fingerprint(headers, b, m))
}

func TestManual_IsUnique(t *testing.T) {
	a := Manual("pick:X", "odds:-110", "stake:1")
	b := Manual("pick:X", "odds:-110", "stake:1")
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 64)
}
