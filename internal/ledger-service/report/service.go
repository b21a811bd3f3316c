package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-recap-ledger/internal/ledger-service/normalize"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/producer"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/repo"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/settings"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/stats"
	"github.com/radieske/bet-recap-ledger/internal/shared/metrics"
	"github.com/radieske/bet-recap-ledger/pkg/contracts/events"
)

var (
	ErrAlreadyPosted = errors.New("recap already posted for date")
	ErrInvalidTier   = errors.New("invalid tier")
	ErrInvalidDate   = errors.New("invalid date")
)

// Reader é o que o relatório precisa do ledger
type Reader interface {
	SettledInRange(ctx context.Context, from, to string, viewer repo.Tier) ([]repo.Bet, error)
	PendingInRange(ctx context.Context, from, to string, viewer repo.Tier) ([]repo.Bet, error)
	HasRecapForDate(ctx context.Context, date string) (bool, error)
	RecordRecapPost(ctx context.Context, date string) (bool, error)
}

// Report é o resultado entregue aos adapters: agregado + quebras + janela
type Report struct {
	Tier  repo.Tier `json:"tier"`
	Range Range     `json:"range"`
	Date  string    `json:"date"`
	From  string    `json:"from,omitempty"`
	To    string    `json:"to,omitempty"`
	stats.Summary
	GeneratedAt time.Time `json:"generatedAt"`
}

type Service struct {
	log      *zap.Logger
	repo     Reader
	cache    Cache
	settings *settings.Settings
	pub      producer.Publisher
	metrics  *metrics.Ledger
	now      func() time.Time
}

func NewService(log *zap.Logger, r Reader, c Cache, st *settings.Settings, p producer.Publisher, m *metrics.Ledger) *Service {
	if c == nil {
		c = NopCache{}
	}
	return &Service{log: log, repo: r, cache: c, settings: st, pub: p, metrics: m, now: time.Now}
}

// Build monta o relatório da janela que termina em date (vazio = hoje), visto pelo tier.
// Encerradas entram por settledAt, pendentes por placedAt.
func (s *Service) Build(ctx context.Context, tier repo.Tier, rng Range, date string) (*Report, error) {
	if !tier.Valid() {
		return nil, ErrInvalidTier
	}
	end, err := s.endDate(date)
	if err != nil {
		return nil, err
	}
	from, to := rng.Bounds(end)
	r := &Report{Tier: tier, Range: rng, Date: end.Format(repo.DateFormat), From: from, To: to}

	cacheKey := fmt.Sprintf("%s:%s:%s:%s:%s", tier, rng, r.Date, from, to)
	var cached Report
	hit, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		s.log.Warn("report cache get failed", zap.String("key", cacheKey), zap.Error(err))
	}
	if hit {
		s.metrics.Reports.WithLabelValues(string(rng), "hit").Inc()
		return &cached, nil
	}

	settled, err := s.repo.SettledInRange(ctx, from, to, tier)
	if err != nil {
		return nil, fmt.Errorf("settled bets: %w", err)
	}
	pending, err := s.repo.PendingInRange(ctx, from, to, tier)
	if err != nil {
		return nil, fmt.Errorf("pending bets: %w", err)
	}
	r.Summary = stats.Aggregate(append(settled, pending...))
	r.GeneratedAt = s.now().UTC()

	if err := s.cache.Set(ctx, cacheKey, r); err != nil {
		s.log.Warn("report cache set failed", zap.String("key", cacheKey), zap.Error(err))
	}
	s.metrics.Reports.WithLabelValues(string(rng), "miss").Inc()
	s.log.Info("report built",
		zap.String("tier", string(tier)),
		zap.String("range", string(rng)),
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("bets", r.BetCount),
	)
	return r, nil
}

// Invalidate descarta relatórios em cache; ligado ao OnChange dos serviços de escrita
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("report cache invalidate failed", zap.Error(err))
	}
}

// HasRecap diz se o recap do dia já foi publicado
func (s *Service) HasRecap(ctx context.Context, date string) (bool, error) {
	d, ok := normalize.ParseDate(date)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return s.repo.HasRecapForDate(ctx, d)
}

// RecordRecap grava o marcador; false quando já existia
func (s *Service) RecordRecap(ctx context.Context, date string) (bool, error) {
	d, ok := normalize.ParseDate(date)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return s.repo.RecordRecapPost(ctx, d)
}

// PublishDailyRecap publica o recap do dia no tier configurado, no máximo uma vez por data.
// O marcador é gravado antes do evento: uma falha de publicação não gera post duplicado depois.
func (s *Service) PublishDailyRecap(ctx context.Context, date string) (*Report, error) {
	tier, err := s.settings.RecapTier(ctx)
	if err != nil {
		return nil, err
	}
	r, err := s.Build(ctx, tier, RangeDay, date)
	if err != nil {
		return nil, err
	}
	posted, err := s.repo.HasRecapForDate(ctx, r.Date)
	if err != nil {
		return nil, err
	}
	if posted {
		return nil, ErrAlreadyPosted
	}

	created, err := s.repo.RecordRecapPost(ctx, r.Date)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, ErrAlreadyPosted
	}

	if err := s.pub.PublishRecapReady(ctx, events.RecapReady{
		Date:     r.Date,
		Tier:     string(r.Tier),
		Range:    string(r.Range),
		Wins:     r.Wins,
		Losses:   r.Losses,
		Pushes:   r.Pushes,
		Pending:  r.Pending,
		Profit:   r.TotalProfit,
		ROI:      r.ROI,
		Markdown: Markdown(r),
	}); err != nil {
		return nil, fmt.Errorf("publish recap_ready: %w", err)
	}
	s.log.Info("daily recap published", zap.String("date", r.Date), zap.String("tier", string(r.Tier)))
	return r, nil
}

func (s *Service) endDate(date string) (time.Time, error) {
	if date == "" {
		now := s.now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, ok := normalize.ParseDate(date)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	t, err := time.Parse(repo.DateFormat, d)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}
