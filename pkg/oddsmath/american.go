package oddsmath

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrZeroOdds       = errors.New("invalid American odds: cannot be 0")
	ErrInvalidStake   = errors.New("invalid stake: must be > 0")
	ErrUnknownOutcome = errors.New("unknown outcome")
)

// Outcome é o desfecho usado no cálculo de lucro
type Outcome int

const (
	Win Outcome = iota + 1
	Loss
	Push
	Void
)

var hundred = decimal.NewFromInt(100)

// WinProfit calcula o lucro de uma vitória com odds americanas, em decimal exato.
// American -110, stake 1 → 0.909090...
// American +135, stake 2 → 2.70
func WinProfit(stake decimal.Decimal, american int) (decimal.Decimal, error) {
	if american == 0 {
		return decimal.Zero, ErrZeroOdds
	}
	o := decimal.NewFromInt(int64(american))
	if american < 0 {
		// favorito: stake * 100 / |o|
		return stake.Mul(hundred).Div(o.Abs()), nil
	}
	// azarão: stake * o / 100
	return stake.Mul(o).Div(hundred), nil
}

// Profit devolve o lucro arredondado a 2 casas (meio para longe do zero).
// Odds só são exigidas para Win.
func Profit(outcome Outcome, stake float64, american int) (float64, error) {
	if stake <= 0 {
		return 0, ErrInvalidStake
	}
	s := decimal.NewFromFloat(stake)

	var p decimal.Decimal
	switch outcome {
	case Win:
		var err error
		if p, err = WinProfit(s, american); err != nil {
			return 0, err
		}
	case Loss:
		p = s.Neg()
	case Push, Void:
		p = decimal.Zero
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownOutcome, outcome)
	}
	return Round2(p), nil
}

// Payout é o retorno total da aposta: stake + lucro na vitória, stake devolvida em push/void, zero na derrota
func Payout(outcome Outcome, stake, profit float64) float64 {
	switch outcome {
	case Win:
		return Round2(decimal.NewFromFloat(stake).Add(decimal.NewFromFloat(profit)))
	case Push, Void:
		return stake
	}
	return 0
}

// ROI = lucro / stake * 100; zero quando não houve stake
func ROI(profit, stake float64) float64 {
	if stake == 0 {
		return 0
	}
	return decimal.NewFromFloat(profit).Div(decimal.NewFromFloat(stake)).Mul(hundred).InexactFloat64()
}

// Round2 arredonda para 2 casas decimais
func Round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
