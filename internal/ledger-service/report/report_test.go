package report

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/bet-recap-ledger/internal/ledger-service/producer"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/repo"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/settings"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/stats"
	"github.com/radieske/bet-recap-ledger/internal/shared/metrics"
	"github.com/radieske/bet-recap-ledger/pkg/contracts/events"
)

// memCache guarda em memória com geração, como o RedisCache
type memCache struct {
	mu   sync.Mutex
	gen  int
	data map[string]Report
}

func (c *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.data[key]
	if !ok {
		return false, nil
	}
	*dst.(*Report) = r
	return true, nil
}

func (c *memCache) Set(_ context.Context, key string, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = map[string]Report{}
	}
	c.data[key] = *v.(*Report)
	return nil
}

func (c *memCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.data = nil
	return nil
}

type recordingPublisher struct {
	producer.Nop
	recaps []events.RecapReady
}

func (p *recordingPublisher) PublishRecapReady(_ context.Context, e events.RecapReady) error {
	p.recaps = append(p.recaps, e)
	return nil
}

type fixture struct {
	svc     *Service
	store   *repo.MemoryStore
	cache   *memCache
	pub     *recordingPublisher
	metrics *metrics.Ledger
	seq     int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: repo.NewMemoryStore(), cache: &memCache{}, pub: &recordingPublisher{}}
	f.metrics = metrics.NewLedger(prometheus.NewRegistry())
	f.svc = NewService(zap.NewNop(), f.store, f.cache, settings.New(f.store), f.pub, f.metrics)
	f.svc.now = func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) seed(t *testing.T, bets ...repo.Bet) {
	t.Helper()
	for i := range bets {
		f.seq++
		bets[i].Hash = fmt.Sprintf("h%d", f.seq)
	}
	_, err := f.store.BulkInsert(context.Background(), bets)
	require.NoError(t, err)
}

func win(settled, sport string, stake, profit float64, vis repo.Tier) repo.Bet {
	return repo.Bet{PlacedAt: settled, SettledAt: settled, Sport: sport, Market: "ML", Stake: stake,
		Result: repo.ResultWin, Profit: repo.FloatPtr(profit), Visibility: vis}
}

func loss(settled, sport string, stake float64, vis repo.Tier) repo.Bet {
	return repo.Bet{PlacedAt: settled, SettledAt: settled, Sport: sport, Market: "Spread", Stake: stake,
		Result: repo.ResultLoss, Profit: repo.FloatPtr(-stake), Visibility: vis}
}

func TestParseRangeAndBounds(t *testing.T) {
	end := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in       string
		want     Range
		from, to string
	}{
		{"", RangeDay, "2026-10-18", "2026-10-18"},
		{"day", RangeDay, "2026-10-18", "2026-10-18"},
		{"WEEK", RangeWeek, "2026-10-12", "2026-10-18"},
		{"month", RangeMonth, "2026-09-19", "2026-10-18"},
		{"all", RangeAll, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, err := ParseRange(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r)
			from, to := r.Bounds(end)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.to, to)
		})
	}
	_, err := ParseRange("year")
	assert.Error(t, err)
}

func TestBuild_WeekWithTiers(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		win("2026-10-18", "NBA", 1, 0.91, repo.TierFree),
		loss("2026-10-15", "NBA", 2, repo.TierPremium),
		win("2026-10-12", "NFL", 2, 2.7, repo.TierStaff),
		win("2026-10-11", "NFL", 1, 1, repo.TierFree), // fora da semana
		repo.Bet{PlacedAt: "2026-10-17", Sport: "NBA", Market: "ML", Stake: 1, Result: repo.ResultPending, Visibility: repo.TierFree},
	)
	ctx := context.Background()

	staff, err := f.svc.Build(ctx, repo.TierStaff, RangeWeek, "2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-12", staff.From)
	assert.Equal(t, 2, staff.Wins)
	assert.Equal(t, 1, staff.Losses)
	assert.Equal(t, 1, staff.Pending)
	assert.Equal(t, 5.0, staff.TotalStake)
	assert.Equal(t, 1.61, staff.TotalProfit)
	assert.Equal(t, 4, staff.BetCount)

	free, err := f.svc.Build(ctx, repo.TierFree, RangeWeek, "2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, 1, free.Wins)
	assert.Zero(t, free.Losses)
	assert.Equal(t, 1, free.Pending)

	all, err := f.svc.Build(ctx, repo.TierStaff, RangeAll, "")
	require.NoError(t, err)
	assert.Equal(t, 3, all.Wins)
	assert.Equal(t, "2026-10-18", all.Date)
}

func TestBuild_CacheAndInvalidate(t *testing.T) {
	f := newFixture(t)
	f.seed(t, win("2026-10-18", "NBA", 1, 0.91, repo.TierFree))
	ctx := context.Background()

	_, err := f.svc.Build(ctx, repo.TierFree, RangeDay, "2026-10-18")
	require.NoError(t, err)
	r, err := f.svc.Build(ctx, repo.TierFree, RangeDay, "2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Wins)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Reports.WithLabelValues("day", "hit")))

	// nova aposta sem invalidar: ainda o valor em cache
	f.seed(t, loss("2026-10-18", "NBA", 1, repo.TierFree))
	r, _ = f.svc.Build(ctx, repo.TierFree, RangeDay, "2026-10-18")
	assert.Zero(t, r.Losses)

	f.svc.Invalidate(ctx)
	r, err = f.svc.Build(ctx, repo.TierFree, RangeDay, "2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Losses)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Reports.WithLabelValues("day", "miss")))
}

func TestBuild_AllTimeCacheKeepsReferenceDate(t *testing.T) {
	f := newFixture(t)
	f.seed(t, win("2026-10-10", "NBA", 1, 0.91, repo.TierFree))
	ctx := context.Background()

	r, err := f.svc.Build(ctx, repo.TierFree, RangeAll, "2026-10-16")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-16", r.Date)

	r, err = f.svc.Build(ctx, repo.TierFree, RangeAll, "2026-10-17")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-17", r.Date)
	assert.Equal(t, 1, r.Wins)
	assert.Zero(t, testutil.ToFloat64(f.metrics.Reports.WithLabelValues("all", "hit")))

	r, err = f.svc.Build(ctx, repo.TierFree, RangeAll, "2026-10-17")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-17", r.Date)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Reports.WithLabelValues("all", "hit")))
}

func TestBuild_InvalidInput(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Build(context.Background(), repo.Tier("X"), RangeDay, "")
	assert.ErrorIs(t, err, ErrInvalidTier)
	_, err = f.svc.Build(context.Background(), repo.TierFree, RangeDay, "someday")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestPublishDailyRecap_AtMostOnce(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		win("2026-10-17", "NBA", 1, 0.91, repo.TierFree),
		loss("2026-10-17", "NBA", 1, repo.TierStaff),
	)
	ctx := context.Background()

	r, err := f.svc.PublishDailyRecap(ctx, "2026-10-17")
	require.NoError(t, err)
	assert.Equal(t, repo.TierFree, r.Tier, "default recap tier")
	assert.Equal(t, 1, r.Wins)
	assert.Zero(t, r.Losses, "staff loss hidden from free recap")

	require.Len(t, f.pub.recaps, 1)
	assert.Equal(t, "2026-10-17", f.pub.recaps[0].Date)
	assert.Contains(t, f.pub.recaps[0].Markdown, "1W")

	_, err = f.svc.PublishDailyRecap(ctx, "2026-10-17")
	assert.ErrorIs(t, err, ErrAlreadyPosted)
	assert.Len(t, f.pub.recaps, 1)

	posted, err := f.svc.HasRecap(ctx, "10/17/2026")
	require.NoError(t, err)
	assert.True(t, posted)

	created, err := f.svc.RecordRecap(ctx, "2026-10-16")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = f.svc.RecordRecap(ctx, "2026-10-16")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestRecord(t *testing.T) {
	assert.Equal(t, "3W-1L-1P", Record(3, 1, 1))
	assert.Equal(t, "2L", Record(0, 2, 0))
	assert.Equal(t, "4W-2P", Record(4, 0, 2))
	assert.Equal(t, "0-0", Record(0, 0, 0))
}

func TestMarkdown(t *testing.T) {
	r := &Report{
		Tier: repo.TierFree, Range: RangeDay, Date: "2026-10-17", From: "2026-10-17", To: "2026-10-17",
		Summary: stats.Summary{
			Wins: 2, Losses: 1, Pushes: 1, Pending: 2, TotalStake: 3, TotalProfit: 0.82, ROI: 27.333,
			BySport:  []stats.Group{{Name: "NBA", Wins: 2, Losses: 1, Profit: 0.82}},
			ByMarket: []stats.Group{{Name: "Spread", Wins: 2, Losses: 1, Pushes: 1, Profit: 0.82}},
		},
	}
	md := Markdown(r)

	assert.Contains(t, md, "# Daily Recap: 2026-10-17")
	assert.Contains(t, md, "**Record:** 2W-1L-1P")
	assert.Contains(t, md, "**Win rate:** 67%")
	assert.Contains(t, md, "**Units:** +0.82u")
	assert.Contains(t, md, "**ROI:** +27.3%")
	assert.Contains(t, md, "**Pending:** 2")
	assert.Contains(t, md, "| NBA | 2W-1L | +0.82u |")
	assert.Contains(t, md, "| Spread | 2W-1L-1P | +0.82u |")

	empty := Markdown(&Report{Range: RangeWeek, From: "2026-10-11", To: "2026-10-17"})
	assert.Contains(t, empty, "# Weekly Recap: 2026-10-11 to 2026-10-17")
	assert.Contains(t, empty, "**Record:** 0-0")
	assert.Contains(t, empty, "**Win rate:** N/A")
	assert.NotContains(t, empty, "Pending")
	assert.NotContains(t, empty, "By sport")
}
