package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/subcommands"

	"github.com/radieske/bet-recap-ledger/internal/ledger-service/app"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/bets"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/ingest"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/report"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/repo"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/settings"
)

// parseOptionalTier aceita vazio como "não informado"
func parseOptionalTier(s string) (repo.Tier, error) {
	if s == "" {
		return "", nil
	}
	return repo.ParseTier(s)
}

type importCmd struct {
	rt   *Runtime
	file string
	tier string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a sportsbook CSV export into the ledger" }
func (*importCmd) Usage() string {
	return `betledger import -file <export.csv> [-tier FREE|PREMIUM|STAFF]

  Imports every row of the CSV. Rows already in the ledger are counted as duplicates.
  Rows without their own visibility get -tier, or the default_import_tier setting.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "CSV file to import")
	f.StringVar(&c.tier, "tier", "", "visibility for rows without tags")
}

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		return c.rt.usage("-file is required")
	}
	tier, err := parseOptionalTier(c.tier)
	if err != nil {
		return c.rt.usage("%v", err)
	}
	return c.rt.run(ctx, func(a *app.App) error {
		f, err := os.Open(c.file)
		if err != nil {
			return err
		}
		defer f.Close()

		res, err := a.Ingest.Import(ctx, f, tier)
		if err != nil {
			return err
		}
		printImport(c.rt, res)
		return nil
	})
}

func printImport(rt *Runtime, res *ingest.Result) {
	fmt.Fprintf(rt.Out, "import %s: %d parsed, %d inserted, %d duplicates, %d skipped (tier %s)\n",
		res.ImportID, res.Parsed, res.Inserted, res.Duplicates, res.Skipped, res.Tier)
	for _, w := range res.Warnings {
		fmt.Fprintf(rt.Out, "warning: %s\n", w)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(rt.Out, "line %d: %s\n", e.Line, e.Reason)
	}
}

type logCmd struct {
	rt                                      *Runtime
	pick, sport, league, market, book, tags string
	notes, placed, game, visibility, by     string
	odds                                    int
	stake                                   float64
}

func (*logCmd) Name() string     { return "log" }
func (*logCmd) Synopsis() string { return "log a single pending bet by hand" }
func (*logCmd) Usage() string {
	return `betledger log -pick <pick> -odds <american> -stake <units> [options]

  Records a PENDING bet. Grade it later with 'betledger grade'.
`
}

func (c *logCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.pick, "pick", "", "selection, e.g. \"Lakers -3.5\"")
	f.IntVar(&c.odds, "odds", 0, "American odds, e.g. -110 or 135")
	f.Float64Var(&c.stake, "stake", 0, "stake in units")
	f.StringVar(&c.sport, "sport", "", "sport")
	f.StringVar(&c.league, "league", "", "league")
	f.StringVar(&c.market, "market", "", "market, e.g. Spread")
	f.StringVar(&c.book, "book", "", "sportsbook")
	f.StringVar(&c.tags, "tags", "", "free-form tags")
	f.StringVar(&c.notes, "notes", "", "notes")
	f.StringVar(&c.placed, "placed", "", "placed date (defaults to today)")
	f.StringVar(&c.game, "game", "", "game date")
	f.StringVar(&c.visibility, "visibility", "", "FREE, PREMIUM or STAFF")
	f.StringVar(&c.by, "by", os.Getenv("USER"), "who logged the bet")
}

func (c *logCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	vis, err := parseOptionalTier(c.visibility)
	if err != nil {
		return c.rt.usage("%v", err)
	}
	return c.rt.run(ctx, func(a *app.App) error {
		b, err := a.Ingest.LogBet(ctx, ingest.ManualBet{
			Pick:       c.pick,
			Odds:       c.odds,
			Stake:      c.stake,
			Sport:      c.sport,
			League:     c.league,
			Market:     c.market,
			Book:       c.book,
			Tags:       c.tags,
			Notes:      c.notes,
			PlacedAt:   c.placed,
			GameDate:   c.game,
			Visibility: vis,
			CreatedBy:  c.by,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.rt.Out, "logged bet %d: %s %+d for %.2fu (%s)\n", b.ID, b.Pick, c.odds, b.Stake, b.Visibility)
		return nil
	})
}

type gradeCmd struct {
	rt      *Runtime
	id      int64
	result  string
	odds    int
	settled string
}

func (*gradeCmd) Name() string     { return "grade" }
func (*gradeCmd) Synopsis() string { return "settle a pending bet" }
func (*gradeCmd) Usage() string {
	return `betledger grade -id <bet id> -result WIN|LOSS|PUSH|VOID [-odds N] [-settled date]

  Computes profit from the American odds and closes the bet. A bet can be graded once.
`
}

func (c *gradeCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", 0, "bet id")
	f.StringVar(&c.result, "result", "", "WIN, LOSS, PUSH or VOID")
	f.IntVar(&c.odds, "odds", 0, "override the recorded American odds")
	f.StringVar(&c.settled, "settled", "", "settlement date (defaults to today)")
}

func (c *gradeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id <= 0 {
		return c.rt.usage("-id is required")
	}
	result, err := repo.ParseResult(c.result)
	if err != nil {
		return c.rt.usage("%v", err)
	}
	req := bets.GradeRequest{ID: c.id, Result: result, SettledAt: c.settled}
	if c.odds != 0 {
		req.Odds = repo.IntPtr(c.odds)
	}
	return c.rt.run(ctx, func(a *app.App) error {
		res, err := a.Bets.Grade(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.rt.Out, "bet %d graded %s: %s\n", c.id, result, report.Units(res.Profit))
		return nil
	})
}

type retagCmd struct {
	rt   *Runtime
	id   int64
	date string
	tier string
}

func (*retagCmd) Name() string     { return "retag" }
func (*retagCmd) Synopsis() string { return "change the visibility of a bet or of a whole day" }
func (*retagCmd) Usage() string {
	return `betledger retag (-id <bet id> | -date <date>) -tier FREE|PREMIUM|STAFF
`
}

func (c *retagCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", 0, "bet id")
	f.StringVar(&c.date, "date", "", "retag every bet of this date")
	f.StringVar(&c.tier, "tier", "", "new visibility")
}

func (c *retagCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tier, err := repo.ParseTier(c.tier)
	if err != nil {
		return c.rt.usage("%v", err)
	}
	if (c.id > 0) == (c.date != "") {
		return c.rt.usage("exactly one of -id or -date is required")
	}
	return c.rt.run(ctx, func(a *app.App) error {
		if c.id > 0 {
			if err := a.Bets.Retag(ctx, c.id, tier); err != nil {
				return err
			}
			fmt.Fprintf(c.rt.Out, "bet %d is now %s\n", c.id, tier)
			return nil
		}
		n, err := a.Bets.RetagByDate(ctx, c.date, tier)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.rt.Out, "%d bets on %s are now %s\n", n, c.date, tier)
		return nil
	})
}

type reportCmd struct {
	rt   *Runtime
	tier string
	rng  string
	date string
	raw  bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "display a recap for a tier and date range" }
func (*reportCmd) Usage() string {
	return `betledger report [-tier FREE] [-range day|week|month|all] [-date <date>] [-raw]

  Shows record, win rate, units, ROI and the sport and market breakdowns.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.tier, "tier", string(repo.TierFree), "viewer tier")
	f.StringVar(&c.rng, "range", string(report.RangeDay), "day, week, month or all")
	f.StringVar(&c.date, "date", "", "last day of the range (defaults to today)")
	f.BoolVar(&c.raw, "raw", false, "print markdown without terminal rendering")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tier, err := repo.ParseTier(c.tier)
	if err != nil {
		return c.rt.usage("%v", err)
	}
	rng, err := report.ParseRange(c.rng)
	if err != nil {
		return c.rt.usage("%v", err)
	}
	return c.rt.run(ctx, func(a *app.App) error {
		r, err := a.Reports.Build(ctx, tier, rng, c.date)
		if err != nil {
			return err
		}
		md := report.Markdown(r)
		if c.raw {
			fmt.Fprint(c.rt.Out, md)
			return nil
		}
		c.rt.printMarkdown(md)
		return nil
	})
}

type recapCmd struct {
	rt   *Runtime
	date string
}

func (*recapCmd) Name() string     { return "recap" }
func (*recapCmd) Synopsis() string { return "publish the daily recap once" }
func (*recapCmd) Usage() string {
	return `betledger recap [-date <date>]

  Builds the daily recap at the recap_tier setting and publishes it.
  Fails if the recap for that date was already posted.
`
}

func (c *recapCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "recap date (defaults to today)")
}

func (c *recapCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.rt.run(ctx, func(a *app.App) error {
		r, err := a.Reports.PublishDailyRecap(ctx, c.date)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.rt.Out, "recap for %s published (%s)\n", r.Date, r.Tier)
		return nil
	})
}

type mappingCmd struct {
	rt    *Runtime
	set   string
	reset bool
}

func (*mappingCmd) Name() string     { return "mapping" }
func (*mappingCmd) Synopsis() string { return "show or change CSV column overrides" }
func (*mappingCmd) Usage() string {
	return `betledger mapping [-set <field>=<header>] [-reset]

  Without flags, lists the configured overrides.
`
}

func (c *mappingCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.set, "set", "", "override, e.g. stake=Wager Amount")
	f.BoolVar(&c.reset, "reset", false, "remove every override")
}

func (c *mappingCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var field, header string
	if c.set != "" {
		var ok bool
		field, header, ok = strings.Cut(c.set, "=")
		if !ok {
			return c.rt.usage("-set expects field=header")
		}
		field = strings.TrimSpace(field)
	}
	return c.rt.run(ctx, func(a *app.App) error {
		if c.reset {
			if err := a.Ingest.ResetMappings(ctx); err != nil {
				return err
			}
		}
		if field != "" {
			if err := a.Ingest.SetMapping(ctx, field, strings.TrimSpace(header)); err != nil {
				return err
			}
		}
		m, err := a.Ingest.Mappings(ctx)
		if err != nil {
			return err
		}
		if len(m) == 0 {
			fmt.Fprintln(c.rt.Out, "no overrides")
			return nil
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(c.rt.Out, "%s=%s\n", k, m[k])
		}
		return nil
	})
}

type settingCmd struct {
	rt  *Runtime
	key string
	val string
}

func (*settingCmd) Name() string     { return "setting" }
func (*settingCmd) Synopsis() string { return "show or change the tier settings" }
func (*settingCmd) Usage() string {
	return `betledger setting [-key default_import_tier|recap_tier -tier <tier>]
`
}

func (c *settingCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.key, "key", "", "setting to change")
	f.StringVar(&c.val, "tier", "", "new value")
}

func (c *settingCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var tier repo.Tier
	if c.key != "" {
		t, err := repo.ParseTier(c.val)
		if err != nil {
			return c.rt.usage("%v", err)
		}
		if c.key != settings.KeyDefaultImportTier && c.key != settings.KeyRecapTier {
			return c.rt.usage("unknown setting %q", c.key)
		}
		tier = t
	}
	return c.rt.run(ctx, func(a *app.App) error {
		switch c.key {
		case settings.KeyDefaultImportTier:
			if err := a.Settings.SetDefaultImportTier(ctx, tier); err != nil {
				return err
			}
		case settings.KeyRecapTier:
			if err := a.Settings.SetRecapTier(ctx, tier); err != nil {
				return err
			}
		}
		imp, err := a.Settings.DefaultImportTier(ctx)
		if err != nil {
			return err
		}
		rec, err := a.Settings.RecapTier(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.rt.Out, "%s=%s\n%s=%s\n", settings.KeyDefaultImportTier, imp, settings.KeyRecapTier, rec)
		return nil
	})
}
