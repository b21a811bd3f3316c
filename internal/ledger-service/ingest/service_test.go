package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/bet-recap-ledger/internal/ledger-service/mapping"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/producer"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/repo"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/settings"
	"github.com/radieske/bet-recap-ledger/internal/shared/db"
	"github.com/radieske/bet-recap-ledger/internal/shared/metrics"
	"github.com/radieske/bet-recap-ledger/pkg/contracts/events"
)

const sampleCSV = `Date,Sport,Bet Type,Selection,Odds,Units,Result,Profit,Sportsbook,Tags
10/16/2026,NBA,Spread,"Lakers -3.5, 1H",-110,1,Won,0.91,DK,free
10/16/2026,NBA,Total,Over 221.5,+105,2,Lost,-2,FD,vip
10/17/2026,NFL,Moneyline,Chiefs ML,-150,1.5,push,0,DK,
10/17/2026,NHL,Puck Line,"Rangers +1.5",+120,1,pending,,MGM,
`

type recordingPublisher struct {
	producer.Nop
	imported []events.BetImported
}

func (p *recordingPublisher) PublishBetImported(_ context.Context, e events.BetImported) error {
	p.imported = append(p.imported, e)
	return nil
}

type fixture struct {
	svc     *Service
	store   repo.Store
	pub     *recordingPublisher
	metrics *metrics.Ledger
	changes int
}

func newFixture(t *testing.T, store repo.Store) *fixture {
	t.Helper()
	f := &fixture{store: store, pub: &recordingPublisher{}}
	f.metrics = metrics.NewLedger(prometheus.NewRegistry())
	f.svc = NewService(zap.NewNop(), store, settings.New(store), f.pub, f.metrics, 3)
	f.svc.now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }
	f.svc.OnChange = func(context.Context) { f.changes++ }
	return f
}

func sqliteStore(t *testing.T) repo.Store {
	t.Helper()
	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	s := repo.NewSQLStore(conn, repo.DialectSQLite)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestImport_IdempotentReimport(t *testing.T) {
	for name, store := range map[string]repo.Store{"memory": repo.NewMemoryStore(), "sqlite": sqliteStore(t)} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, store)

			first, err := f.svc.Import(ctx, strings.NewReader(sampleCSV), "")
			require.NoError(t, err)
			assert.Equal(t, 4, first.Parsed)
			assert.Equal(t, 4, first.Inserted)
			assert.Zero(t, first.Duplicates)
			assert.Zero(t, first.Skipped)
			assert.Empty(t, first.Missing)

			second, err := f.svc.Import(ctx, strings.NewReader(sampleCSV), "")
			require.NoError(t, err)
			assert.Zero(t, second.Inserted)
			assert.Equal(t, 4, second.Duplicates)

			n, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(4), n)

			assert.Equal(t, 1, f.changes, "only the first import changes the ledger")
			require.Len(t, f.pub.imported, 2)
			assert.Equal(t, 4, f.pub.imported[1].Duplicates)
			assert.NotEqual(t, first.ImportID, second.ImportID)
			assert.Equal(t, 4.0, testutil.ToFloat64(f.metrics.ImportRows.WithLabelValues("duplicate")))
		})
	}
}

func TestImport_NormalizesAndTiers(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemoryStore()
	f := newFixture(t, store)

	res, err := f.svc.Import(ctx, strings.NewReader(sampleCSV), repo.TierPremium)
	require.NoError(t, err)
	assert.Equal(t, repo.TierPremium, res.Tier)
	assert.Equal(t, "Selection", res.Mapping[mapping.FieldPick])
	assert.Equal(t, "Units", res.Mapping[mapping.FieldStake])

	all, err := store.ByDate(ctx, "2026-10-16", repo.TierStaff)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Lakers -3.5, 1H", all[0].Pick)
	assert.Equal(t, repo.TierFree, all[0].Visibility, "tag free")
	assert.Equal(t, repo.TierPremium, all[1].Visibility, "tag vip")
	assert.Equal(t, "2026-10-16", all[0].SettledAt, "settled date falls back to placed date")

	day2, err := store.ByDate(ctx, "2026-10-17", repo.TierStaff)
	require.NoError(t, err)
	require.Len(t, day2, 2)
	assert.Equal(t, repo.TierPremium, day2[0].Visibility, "default tier replaced by import tier")
	assert.Equal(t, repo.ResultPending, day2[1].Result)
	assert.Nil(t, day2[1].Profit)
}

func TestImport_DefaultTierSetting(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemoryStore()
	f := newFixture(t, store)

	res, err := f.svc.Import(ctx, strings.NewReader(sampleCSV), "")
	require.NoError(t, err)
	assert.Equal(t, repo.TierStaff, res.Tier)

	free, err := store.ByDate(ctx, "2026-10-17", repo.TierFree)
	require.NoError(t, err)
	assert.Empty(t, free, "untagged rows stay private")

	_, err = f.svc.Import(ctx, strings.NewReader(sampleCSV), repo.Tier("GOLD"))
	assert.ErrorIs(t, err, ErrInvalidBet)
}

func TestImport_PartialWithRowErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, repo.NewMemoryStore())

	text := strings.Join([]string{
		"Date,Bet Type,Selection,Odds,Units,Result",
		"10/16/2026,ML,Yankees ML,-150,1,W",
		"10/16/2026,,No market,-110,1,L",
		"10/16/2026,ML,,-110,1,L",
		`10/16/2026,ML,"unterminated quote,-110,1,L`,
		"10/16/2026,ML,Zero stake,-110,0,L",
		"10/16/2026,ML,Mets ML,+110,x,L",
	}, "\n")

	res, err := f.svc.Import(ctx, strings.NewReader(text), repo.TierStaff)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Parsed)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 5, res.Skipped)
	assert.Equal(t, 5, res.ErrorCount)
	require.Len(t, res.Errors, 3, "bounded by max row errors")
	assert.Equal(t, 5, res.Errors[0].Line)
	assert.Contains(t, res.Errors[0].Reason, "malformed line")
	assert.Equal(t, 3, res.Errors[1].Line)
	assert.Equal(t, "missing market", res.Errors[1].Reason)
	assert.Contains(t, res.Warnings, "2 more row errors not shown")
}

func TestImport_UnmappedRequiredFieldsWarn(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemoryStore()
	f := newFixture(t, store)

	text := "Selection,Type,Price,Units Risked,Outcome\nOver 8.5,Total,-110,1,W\n"
	res, err := f.svc.Import(ctx, strings.NewReader(text), repo.TierStaff)
	require.NoError(t, err)
	assert.Equal(t, []string{mapping.FieldStake}, res.Missing)
	assert.Zero(t, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "stake")
	assert.Contains(t, res.Warnings, "stake: no header matched any of stake, units, risk, wager_amount, bet_amount, amount")

	// override resolve e o re-import entra
	require.NoError(t, f.svc.SetMapping(ctx, mapping.FieldStake, "units risked"))
	res, err = f.svc.Import(ctx, strings.NewReader(text), repo.TierStaff)
	require.NoError(t, err)
	assert.Empty(t, res.Missing)
	assert.Equal(t, 1, res.Inserted)

	require.NoError(t, f.svc.ResetMappings(ctx))
	m, err := f.svc.Mappings(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestImport_EmptyFile(t *testing.T) {
	f := newFixture(t, repo.NewMemoryStore())
	res, err := f.svc.Import(context.Background(), strings.NewReader(""), repo.TierStaff)
	require.NoError(t, err)
	assert.Zero(t, res.Parsed)
	assert.Contains(t, res.Warnings, "empty file: no header row")
	assert.Zero(t, f.changes)
}

func TestSetMapping_UnknownField(t *testing.T) {
	f := newFixture(t, repo.NewMemoryStore())
	err := f.svc.SetMapping(context.Background(), "colour", "Color")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestLogBet(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemoryStore()
	f := newFixture(t, store)

	b, err := f.svc.LogBet(ctx, ManualBet{Pick: "Celtics ML", Odds: -130, Stake: 1.3, Market: "ML", CreatedBy: "capper"})
	require.NoError(t, err)
	assert.Equal(t, repo.SourceManual, b.Source)
	assert.Equal(t, repo.ResultPending, b.Result)
	assert.Equal(t, "2026-10-18", b.PlacedAt)
	assert.Equal(t, repo.TierStaff, b.Visibility)
	assert.Nil(t, b.Profit)

	// lançamento idêntico é outra aposta
	b2, err := f.svc.LogBet(ctx, ManualBet{Pick: "Celtics ML", Odds: -130, Stake: 1.3, Market: "ML", CreatedBy: "capper"})
	require.NoError(t, err)
	assert.NotEqual(t, b.Hash, b2.Hash)

	b3, err := f.svc.LogBet(ctx, ManualBet{Pick: "Over 5.5", Odds: 100, Stake: 1, Tags: "public", PlacedAt: "2026-10-17"})
	require.NoError(t, err)
	assert.Equal(t, repo.TierFree, b3.Visibility)
	assert.Equal(t, "2026-10-17", b3.PlacedAt)

	n, _ := store.Count(ctx)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, 3, f.changes)
}

func TestLogBet_Validation(t *testing.T) {
	f := newFixture(t, repo.NewMemoryStore())
	_, err := f.svc.LogBet(context.Background(), ManualBet{Pick: " ", Odds: 0, Stake: -1, Visibility: "GOLD"})
	require.ErrorIs(t, err, ErrInvalidBet)
	assert.Contains(t, err.Error(), "pick is required")
	assert.Contains(t, err.Error(), "stake must be > 0")
	assert.Contains(t, err.Error(), "odds must be non-zero")
	assert.Contains(t, err.Error(), "invalid visibility")
}
