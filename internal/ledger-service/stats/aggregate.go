// Package stats agrega apostas em contagens, lucro, ROI e quebras por esporte e mercado.
package stats

import (
	"slices"
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/radieske/bet-recap-ledger/internal/ledger-service/repo"
	"github.com/radieske/bet-recap-ledger/pkg/oddsmath"
)

// Buckets de mercado
const (
	MarketMoneyline = "Moneyline"
	MarketSpread    = "Spread"
	MarketTotal     = "Total"
	MarketProps     = "Props"
	MarketParlay    = "Parlay"
	MarketOther     = "Other"

	UnknownSport = "Unknown"
)

// marketRules em ordem: a primeira regra que casar decide.
// subs casam em qualquer posição; words só como palavra inteira ("over" não casa "Turnover").
var marketRules = []struct {
	bucket string
	subs   []string
	words  []string
}{
	{MarketParlay, []string{"parlay", "teaser", "same game"}, []string{"sgp"}},
	{MarketProps, []string{"prop"}, nil},
	{MarketTotal, []string{"total", "o/u"}, []string{"over", "under", "ou"}},
	{MarketSpread, []string{"spread", "point", "handicap", "run line", "runline", "puck line", "puckline"}, nil},
	{MarketMoneyline, []string{"moneyline", "money line", "h2h", "winner"}, []string{"ml"}},
}

// MarketBucket canoniza o texto livre de mercado (case-insensitive)
func MarketBucket(market string) string {
	m := strings.ToLower(market)
	words := strings.FieldsFunc(m, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, rule := range marketRules {
		for _, s := range rule.subs {
			if strings.Contains(m, s) {
				return rule.bucket
			}
		}
		for _, w := range rule.words {
			if slices.Contains(words, w) {
				return rule.bucket
			}
		}
	}
	return MarketOther
}

// Group é uma linha de quebra (por esporte ou por mercado)
type Group struct {
	Name   string  `json:"name"`
	Wins   int     `json:"wins"`
	Losses int     `json:"losses"`
	Pushes int     `json:"pushes"`
	Profit float64 `json:"profit"`
}

// Decided = wins + losses, usado na ordenação
func (g Group) Decided() int { return g.Wins + g.Losses }

// Summary é o agregado de um conjunto de apostas
type Summary struct {
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Pushes      int     `json:"pushes"`
	Pending     int     `json:"pending"`
	TotalStake  float64 `json:"totalStake"`
	TotalProfit float64 `json:"totalProfit"`
	ROI         float64 `json:"roi"`
	BetCount    int     `json:"betCount"`
	BySport     []Group `json:"bySport"`
	ByMarket    []Group `json:"byMarket"`
}

// WinRate = wins / (wins + losses) em percentual; ok=false sem apostas decididas
func (s Summary) WinRate() (float64, bool) {
	d := s.Wins + s.Losses
	if d == 0 {
		return 0, false
	}
	return float64(s.Wins) / float64(d) * 100, true
}

// Aggregate calcula o resumo. Stake só conta WIN+LOSS; push e void não são risco para o ROI.
// Apostas PENDING entram apenas na contagem de pendentes.
func Aggregate(bets []repo.Bet) Summary {
	var s Summary
	stake, profit := decimal.Zero, decimal.Zero
	sports := newReducer()
	markets := newReducer()

	for i := range bets {
		b := &bets[i]
		s.BetCount++
		if b.Result == repo.ResultPending {
			s.Pending++
			continue
		}

		var p float64
		if b.Profit != nil {
			p = *b.Profit
		}
		profit = profit.Add(decimal.NewFromFloat(p))

		switch b.Result {
		case repo.ResultWin:
			s.Wins++
		case repo.ResultLoss:
			s.Losses++
		case repo.ResultPush, repo.ResultVoid:
			s.Pushes++
		}
		if b.Result.Decided() {
			stake = stake.Add(decimal.NewFromFloat(b.Stake))
		}

		sport := strings.TrimSpace(b.Sport)
		if sport == "" {
			sport = UnknownSport
		}
		sports.add(sport, b.Result, p)
		markets.add(MarketBucket(b.Market), b.Result, p)
	}

	s.TotalStake = oddsmath.Round2(stake)
	s.TotalProfit = oddsmath.Round2(profit)
	s.ROI = oddsmath.ROI(s.TotalProfit, s.TotalStake)
	s.BySport = sports.sorted()
	s.ByMarket = markets.sorted()
	return s
}

// reducer acumula grupos preservando a ordem de primeira aparição
type reducer struct {
	order  []string
	groups map[string]*groupAcc
}

type groupAcc struct {
	Group
	profit decimal.Decimal
}

func newReducer() *reducer {
	return &reducer{groups: make(map[string]*groupAcc)}
}

func (r *reducer) add(name string, result repo.Result, profit float64) {
	g, ok := r.groups[name]
	if !ok {
		g = &groupAcc{Group: Group{Name: name}, profit: decimal.Zero}
		r.groups[name] = g
		r.order = append(r.order, name)
	}
	switch result {
	case repo.ResultWin:
		g.Wins++
	case repo.ResultLoss:
		g.Losses++
	case repo.ResultPush, repo.ResultVoid:
		g.Pushes++
	}
	g.profit = g.profit.Add(decimal.NewFromFloat(profit))
}

// sorted ordena por wins+losses decrescente; empate mantém a ordem de aparição
func (r *reducer) sorted() []Group {
	out := make([]Group, 0, len(r.order))
	for _, name := range r.order {
		g := r.groups[name]
		g.Group.Profit = oddsmath.Round2(g.profit)
		out = append(out, g.Group)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Decided() > out[j].Decided() })
	return out
}
