package repo

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat é o formato canônico das datas do ledger (placedAt, settledAt, gameDate)
const DateFormat = "2006-01-02"

// Result é o desfecho de uma aposta
type Result string

const (
	ResultPending Result = "PENDING"
	ResultWin     Result = "WIN"
	ResultLoss    Result = "LOSS"
	ResultPush    Result = "PUSH"
	ResultVoid    Result = "VOID"
)

// Terminal indica se o resultado encerra a aposta (tudo menos PENDING)
func (r Result) Terminal() bool {
	switch r {
	case ResultWin, ResultLoss, ResultPush, ResultVoid:
		return true
	}
	return false
}

// Decided indica WIN ou LOSS: as únicas apostas que contam como risco no ROI
func (r Result) Decided() bool { return r == ResultWin || r == ResultLoss }

// ParseResult aceita apenas os nomes canônicos (case-insensitive).
// Sinônimos de planilha ficam no normalizador do import.
func ParseResult(s string) (Result, error) {
	r := Result(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case ResultPending, ResultWin, ResultLoss, ResultPush, ResultVoid:
		return r, nil
	}
	return "", fmt.Errorf("invalid result %q", s)
}

// Tier é a classificação de visibilidade, ordenada por inclusão: FREE ⊆ PREMIUM ⊆ STAFF
type Tier string

const (
	TierFree    Tier = "FREE"
	TierPremium Tier = "PREMIUM"
	TierStaff   Tier = "STAFF"
)

func (t Tier) rank() int {
	switch t {
	case TierFree:
		return 1
	case TierPremium:
		return 2
	case TierStaff:
		return 3
	}
	return 0
}

// Valid indica se o tier é um dos três conhecidos
func (t Tier) Valid() bool { return t.rank() > 0 }

// CanSee diz se um leitor neste tier enxerga uma aposta com visibilidade v
func (t Tier) CanSee(v Tier) bool { return v.Valid() && v.rank() <= t.rank() }

// Visible lista as visibilidades enxergadas por um leitor neste tier
func (t Tier) Visible() []Tier {
	out := make([]Tier, 0, 3)
	for _, v := range []Tier{TierFree, TierPremium, TierStaff} {
		if t.CanSee(v) {
			out = append(out, v)
		}
	}
	return out
}

func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("invalid tier %q", s)
	}
	return t, nil
}

// Source identifica a origem da aposta
type Source string

const (
	SourceImported Source = "imported"
	SourceManual   Source = "manual"
)

// Bet é o registro canônico persistido no ledger.
// Datas são strings YYYY-MM-DD; string vazia significa ausente.
type Bet struct {
	ID        int64  `json:"id"`
	Hash      string `json:"hash"`
	Source    Source `json:"source"`
	CreatedBy string `json:"createdBy,omitempty"`

	PlacedAt  string `json:"placedAt,omitempty"`
	SettledAt string `json:"settledAt,omitempty"`
	GameDate  string `json:"gameDate,omitempty"`

	Sport  string `json:"sport"`
	League string `json:"league,omitempty"`
	Market string `json:"market"`

	Pick   string   `json:"pick"`
	Odds   *int     `json:"odds,omitempty"` // americanas: negativo = favorito
	Stake  float64  `json:"stake"`          // em unidades
	Payout *float64 `json:"payout,omitempty"`
	Profit *float64 `json:"profit,omitempty"` // nulo enquanto PENDING

	Result     Result `json:"result"`
	Visibility Tier   `json:"visibility"`

	Book      string `json:"book,omitempty"`
	Tags      string `json:"tags,omitempty"`
	Notes     string `json:"notes,omitempty"`
	RawSource string `json:"rawSource,omitempty"` // linha original (JSON), para auditoria

	CreatedAt time.Time `json:"createdAt"`
}

// EffectiveDate é a data usada nas consultas por dia: placedAt, senão settledAt
func (b *Bet) EffectiveDate() string {
	if b.PlacedAt != "" {
		return b.PlacedAt
	}
	return b.SettledAt
}

// Settlement é o que o grading grava ao encerrar uma aposta PENDING
type Settlement struct {
	Result    Result
	Odds      *int
	Profit    float64
	Payout    *float64
	SettledAt string
}

// BulkResult resume um BulkInsert
type BulkResult struct {
	Inserted   int
	Duplicates int
	IDs        []int64 // ids das linhas inseridas, na ordem de entrada
}

// IntPtr e FloatPtr ajudam a montar campos opcionais
func IntPtr(v int) *int           { return &v }
func FloatPtr(v float64) *float64 { return &v }
