package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/bet-recap-ledger/internal/ledger-service/dedup"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/normalize"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/repo"
)

// ManualBet é uma aposta lançada à mão, sempre criada como PENDING
type ManualBet struct {
	Pick       string
	Odds       int
	Stake      float64
	Sport      string
	League     string
	Market     string
	Book       string
	Tags       string
	Notes      string
	PlacedAt   string // default = hoje
	GameDate   string
	Visibility repo.Tier // vazio = tags, depois default_import_tier
	CreatedBy  string
}

// LogBet valida e grava uma aposta manual
func (s *Service) LogBet(ctx context.Context, m ManualBet) (*repo.Bet, error) {
	var problems []string
	if strings.TrimSpace(m.Pick) == "" {
		problems = append(problems, "pick is required")
	}
	if m.Stake <= 0 {
		problems = append(problems, "stake must be > 0")
	}
	if m.Odds == 0 {
		problems = append(problems, "odds must be non-zero American odds")
	}
	placedAt := s.now().Format(repo.DateFormat)
	if m.PlacedAt != "" {
		d, ok := normalize.ParseDate(m.PlacedAt)
		if !ok {
			problems = append(problems, fmt.Sprintf("invalid placed date %q", m.PlacedAt))
		}
		placedAt = d
	}
	gameDate := ""
	if m.GameDate != "" {
		d, ok := normalize.ParseDate(m.GameDate)
		if !ok {
			problems = append(problems, fmt.Sprintf("invalid game date %q", m.GameDate))
		}
		gameDate = d
	}
	if m.Visibility != "" && !m.Visibility.Valid() {
		problems = append(problems, fmt.Sprintf("invalid visibility %q", m.Visibility))
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBet, strings.Join(problems, "; "))
	}

	visibility := m.Visibility
	if visibility == "" {
		t, defaulted := normalize.Visibility("", m.Tags)
		visibility = t
		if defaulted {
			def, err := s.settings.DefaultImportTier(ctx)
			if err != nil {
				return nil, err
			}
			visibility = def
		}
	}

	b := &repo.Bet{
		Source:     repo.SourceManual,
		CreatedBy:  m.CreatedBy,
		PlacedAt:   placedAt,
		GameDate:   gameDate,
		Sport:      strings.TrimSpace(m.Sport),
		League:     strings.TrimSpace(m.League),
		Market:     strings.TrimSpace(m.Market),
		Pick:       strings.TrimSpace(m.Pick),
		Odds:       repo.IntPtr(m.Odds),
		Stake:      m.Stake,
		Result:     repo.ResultPending,
		Visibility: visibility,
		Book:       strings.TrimSpace(m.Book),
		Tags:       strings.TrimSpace(m.Tags),
		Notes:      m.Notes,
	}
	b.Hash = dedup.Manual(
		"placed_at:"+b.PlacedAt,
		"pick:"+b.Pick,
		"odds:"+strconv.Itoa(m.Odds),
		"stake:"+strconv.FormatFloat(m.Stake, 'f', -1, 64),
		"created_by:"+m.CreatedBy,
	)

	if _, err := s.ledger.Insert(ctx, b); err != nil {
		return nil, fmt.Errorf("insert manual bet: %w", err)
	}
	s.log.Info("manual bet logged",
		zap.Int64("bet_id", b.ID),
		zap.String("created_by", b.CreatedBy),
		zap.String("tier", string(b.Visibility)),
	)
	if s.OnChange != nil {
		s.OnChange(ctx)
	}
	return b, nil
}
