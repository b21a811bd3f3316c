// Package normalize transforma uma linha crua do CSV, já com o mapeamento de colunas resolvido,
// em uma aposta canônica ou na lista de motivos pelos quais a linha foi descartada.
package normalize

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/radieske/bet-recap-ledger/internal/ledger-service/mapping"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/repo"
	"github.com/radieske/bet-recap-ledger/pkg/oddsmath"
)

// Result é o resultado por linha: Bet válida quando Errors está vazio
type Result struct {
	Bet    repo.Bet
	Errors []string
	// DefaultTier indica que a visibilidade STAFF veio do padrão, e não da linha;
	// o import pode trocá-la pelo tier escolhido pelo operador.
	DefaultTier bool
}

// OK indica linha aproveitável
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Row normaliza uma linha. Nunca falha: problemas voltam em Result.Errors.
func Row(values map[string]string, m mapping.Mapping) Result {
	get := func(field string) string { return strings.TrimSpace(m.Value(values, field)) }

	b := repo.Bet{
		Source: repo.SourceImported,
		Sport:  get(mapping.FieldSport),
		League: get(mapping.FieldLeague),
		Market: get(mapping.FieldMarket),
		Pick:   get(mapping.FieldPick),
		Book:   get(mapping.FieldBook),
		Tags:   get(mapping.FieldTags),
	}
	b.PlacedAt, _ = ParseDate(get(mapping.FieldPlacedAt))
	b.SettledAt, _ = ParseDate(get(mapping.FieldSettledAt))
	b.GameDate, _ = ParseDate(get(mapping.FieldGameDate))

	if o, ok := ParseOdds(get(mapping.FieldOdds)); ok {
		b.Odds = repo.IntPtr(o)
	}
	stake, hasStake := ParseNumber(get(mapping.FieldStake))
	if hasStake {
		b.Stake = stake
	}
	if v, ok := ParseNumber(get(mapping.FieldPayout)); ok {
		b.Payout = repo.FloatPtr(v)
	}
	if v, ok := ParseNumber(get(mapping.FieldProfit)); ok {
		b.Profit = repo.FloatPtr(v)
	}

	var res Result
	if b.Pick == "" {
		res.Errors = append(res.Errors, "missing pick")
	}
	if b.Market == "" {
		res.Errors = append(res.Errors, "missing market")
	}
	if !hasStake || stake <= 0 {
		res.Errors = append(res.Errors, "missing or non-positive stake")
	}

	b.Result = resolveResult(get(mapping.FieldResult), b.Profit)
	if b.Result == repo.ResultPending {
		b.Profit = nil
	} else if b.Profit == nil && len(res.Errors) == 0 {
		p, ok := backfillProfit(b)
		if !ok {
			res.Errors = append(res.Errors, "settled win without profit, payout or odds")
		} else {
			b.Profit = repo.FloatPtr(p)
		}
	}
	if b.Result.Terminal() && b.SettledAt == "" {
		b.SettledAt = firstNonEmpty(b.PlacedAt, b.GameDate)
	}

	b.Visibility, res.DefaultTier = Visibility(get(mapping.FieldVisibility), b.Tags)
	b.RawSource = rawSource(values)

	res.Bet = b
	return res
}

// resolveResult usa os sinônimos; célula vazia ou desconhecida cai no sinal do lucro
// quando há lucro, senão PENDING. Nunca vira WIN sem evidência.
func resolveResult(cell string, profit *float64) repo.Result {
	if r, ok := ParseResult(cell); ok {
		return r
	}
	if profit == nil {
		return repo.ResultPending
	}
	switch {
	case *profit > 0:
		return repo.ResultWin
	case *profit < 0:
		return repo.ResultLoss
	}
	return repo.ResultPush
}

// backfillProfit preenche o lucro ausente de uma aposta encerrada
func backfillProfit(b repo.Bet) (float64, bool) {
	switch b.Result {
	case repo.ResultWin:
		if b.Payout != nil {
			return oddsmath.Round2(decimal.NewFromFloat(*b.Payout).Sub(decimal.NewFromFloat(b.Stake))), true
		}
		if b.Odds != nil {
			p, err := oddsmath.Profit(oddsmath.Win, b.Stake, *b.Odds)
			return p, err == nil
		}
		return 0, false
	case repo.ResultLoss:
		p, err := oddsmath.Profit(oddsmath.Loss, b.Stake, 0)
		return p, err == nil
	case repo.ResultPush, repo.ResultVoid:
		p, err := oddsmath.Profit(oddsmath.Push, b.Stake, 0)
		return p, err == nil
	}
	return 0, false
}

func rawSource(values map[string]string) string {
	raw, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(raw)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
