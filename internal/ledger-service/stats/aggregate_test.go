package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/bet-recap-ledger/internal/ledger-service/repo"
)

func settled(sport, market string, result repo.Result, stake, profit float64) repo.Bet {
	return repo.Bet{Sport: sport, Market: market, Result: result, Stake: stake, Profit: repo.FloatPtr(profit)}
}

func TestMarketBucket(t *testing.T) {
	tests := map[string]string{
		"Player Prop":     MarketProps,
		"player_prop":     MarketProps,
		"PROP BET":        MarketProps,
		"Point Spread":    MarketSpread,
		"1st Half Points": MarketSpread,
		"Run Line":        MarketSpread,
		"Total Points":    MarketTotal,
		"Over/Under":      MarketTotal,
		"Moneyline":       MarketMoneyline,
		"ML":              MarketMoneyline,
		"3-leg Parlay":    MarketParlay,
		"Futures":         MarketOther,

		"Turnover Spread":            MarketSpread,
		"Moneyline (incl. Overtime)": MarketMoneyline,
		"Alt Run Line":               MarketSpread,
		"Over 8.5":                   MarketTotal,
		"Team Total Under":           MarketTotal,
		"Unders":                     MarketOther,
		"HTML export":                MarketOther,
	}
	for in, want := range tests {
		assert.Equal(t, want, MarketBucket(in), in)
	}
}

func TestAggregate_Totals(t *testing.T) {
	bets := []repo.Bet{
		settled("NBA", "Spread", repo.ResultWin, 5, 4.55),
		settled("NBA", "Spread", repo.ResultLoss, 5, -5),
		settled("NBA", "Total", repo.ResultPush, 3, 0),
		settled("NFL", "ML", repo.ResultVoid, 2, 0),
		{Sport: "NFL", Market: "ML", Result: repo.ResultPending, Stake: 1},
	}
	s := Aggregate(bets)

	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.Equal(t, 2, s.Pushes)
	assert.Equal(t, 1, s.Pending)
	assert.Equal(t, 5, s.BetCount)
	assert.Equal(t, 10.0, s.TotalStake)
	assert.Equal(t, -0.45, s.TotalProfit)
	assert.InDelta(t, -4.5, s.ROI, 1e-9)
}

func TestAggregate_ROI(t *testing.T) {
	s := Aggregate([]repo.Bet{
		settled("NBA", "ML", repo.ResultWin, 4, 6),
		settled("NBA", "ML", repo.ResultLoss, 6, -4),
	})
	assert.Equal(t, 10.0, s.TotalStake)
	assert.Equal(t, 2.0, s.TotalProfit)
	assert.Equal(t, 20.0, s.ROI)

	s = Aggregate([]repo.Bet{settled("NBA", "ML", repo.ResultPush, 4, 0)})
	assert.Equal(t, 0.0, s.TotalStake)
	assert.Equal(t, 0.0, s.ROI)

	s = Aggregate(nil)
	assert.Equal(t, 0, s.BetCount)
	assert.Equal(t, 0.0, s.ROI)
	assert.Empty(t, s.BySport)
}

func TestAggregate_BreakdownOrdering(t *testing.T) {
	var bets []repo.Bet
	for i := 0; i < 3; i++ {
		bets = append(bets, settled("A", "ML", repo.ResultWin, 1, 1))
	}
	for i := 0; i < 5; i++ {
		bets = append(bets, settled("B", "ML", repo.ResultLoss, 1, -1))
	}
	s := Aggregate(bets)

	require.Len(t, s.BySport, 2)
	assert.Equal(t, "B", s.BySport[0].Name)
	assert.Equal(t, "A", s.BySport[1].Name)
	assert.Equal(t, -5.0, s.BySport[0].Profit)
	assert.Equal(t, 3, s.BySport[1].Wins)
}

func TestAggregate_TiesKeepEncounterOrder(t *testing.T) {
	s := Aggregate([]repo.Bet{
		settled("NHL", "ML", repo.ResultWin, 1, 1),
		settled("", "Player Prop", repo.ResultLoss, 1, -1),
		settled("MLB", "Total", repo.ResultWin, 1, 1),
		settled("MLB", "Total", repo.ResultPush, 1, 0),
	})

	names := func(gs []Group) []string {
		out := make([]string, len(gs))
		for i, g := range gs {
			out[i] = g.Name
		}
		return out
	}
	assert.Equal(t, []string{"NHL", UnknownSport, "MLB"}, names(s.BySport))
	assert.Equal(t, []string{MarketMoneyline, MarketProps, MarketTotal}, names(s.ByMarket))
	assert.Equal(t, 1, s.ByMarket[2].Pushes)
}

func TestSummary_WinRate(t *testing.T) {
	_, ok := Summary{}.WinRate()
	assert.False(t, ok)

	r, ok := Summary{Wins: 3, Losses: 1, Pushes: 4}.WinRate()
	assert.True(t, ok)
	assert.Equal(t, 75.0, r)
}
