package bets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-recap-ledger/internal/ledger-service/normalize"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/producer"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/repo"
	"github.com/radieske/bet-recap-ledger/internal/shared/metrics"
	"github.com/radieske/bet-recap-ledger/pkg/contracts/events"
	"github.com/radieske/bet-recap-ledger/pkg/oddsmath"
)

var (
	ErrInvalidResult = errors.New("invalid result: must be WIN, LOSS, PUSH or VOID")
	ErrMissingOdds   = errors.New("missing odds: a WIN needs odds to compute profit")
	ErrInvalidTier   = errors.New("invalid tier")
	ErrInvalidDate   = errors.New("invalid date")
)

// Service concentra as mutações manuais do ledger: grading, retag e notas
type Service struct {
	log     *zap.Logger
	repo    repo.Repository
	pub     producer.Publisher
	metrics *metrics.Ledger
	now     func() time.Time

	// OnChange é chamado depois de qualquer mutação que altere relatórios
	OnChange func(ctx context.Context)
}

func NewService(log *zap.Logger, r repo.Repository, p producer.Publisher, m *metrics.Ledger) *Service {
	return &Service{log: log, repo: r, pub: p, metrics: m, now: time.Now}
}

// GradeRequest pede o encerramento de uma aposta PENDING
type GradeRequest struct {
	ID        int64
	Result    repo.Result
	Odds      *int   // sobrescreve as odds registradas
	SettledAt string // default = hoje
}

// GradeResult devolve o lucro calculado e a aposta já encerrada
type GradeResult struct {
	OK     bool      `json:"ok"`
	Profit float64   `json:"profit"`
	Bet    *repo.Bet `json:"bet,omitempty"`
}

// Grade move a aposta de PENDING para um resultado terminal, calculando o lucro por odds americanas.
// Falha com repo.ErrNotFound, repo.ErrAlreadyGraded, ErrInvalidResult ou ErrMissingOdds.
func (s *Service) Grade(ctx context.Context, req GradeRequest) (GradeResult, error) {
	res, err := s.grade(ctx, req)
	if err != nil {
		s.metrics.GradeErrors.WithLabelValues(gradeErrorReason(err)).Inc()
		s.log.Warn("grade rejected", zap.Int64("bet_id", req.ID), zap.String("result", string(req.Result)), zap.Error(err))
		return GradeResult{}, err
	}
	s.metrics.Grades.WithLabelValues(string(res.Bet.Result)).Inc()
	s.log.Info("bet graded",
		zap.Int64("bet_id", req.ID),
		zap.String("result", string(res.Bet.Result)),
		zap.Float64("profit", res.Profit),
		zap.String("settled_at", res.Bet.SettledAt),
	)

	if err := s.pub.PublishBetGraded(ctx, events.BetGraded{
		BetID:      res.Bet.ID,
		Result:     string(res.Bet.Result),
		Profit:     res.Profit,
		SettledAt:  res.Bet.SettledAt,
		Visibility: string(res.Bet.Visibility),
	}); err != nil {
		s.log.Warn("publish bet_graded failed", zap.Int64("bet_id", req.ID), zap.Error(err))
	}
	s.changed(ctx)
	return res, nil
}

func (s *Service) grade(ctx context.Context, req GradeRequest) (GradeResult, error) {
	outcome, ok := outcomeOf(req.Result)
	if !ok {
		return GradeResult{}, ErrInvalidResult
	}

	// 1) Carrega e confere o estado atual
	b, err := s.repo.Get(ctx, req.ID)
	if err != nil {
		return GradeResult{}, err
	}
	if b.Result != repo.ResultPending {
		return GradeResult{}, repo.ErrAlreadyGraded
	}

	// 2) Odds e data de encerramento
	odds := b.Odds
	if req.Odds != nil {
		odds = repo.IntPtr(*req.Odds)
	}
	var american int
	if odds != nil {
		american = *odds
	}
	if outcome == oddsmath.Win && american == 0 {
		return GradeResult{}, ErrMissingOdds
	}
	settledAt := s.now().Format(repo.DateFormat)
	if req.SettledAt != "" {
		d, ok := normalize.ParseDate(req.SettledAt)
		if !ok {
			return GradeResult{}, fmt.Errorf("%w: %q", ErrInvalidDate, req.SettledAt)
		}
		settledAt = d
	}

	// 3) Lucro e payout
	profit, err := oddsmath.Profit(outcome, b.Stake, american)
	if err != nil {
		return GradeResult{}, err
	}
	payout := oddsmath.Payout(outcome, b.Stake, profit)

	// 4) Grava de forma condicional: quem chegar depois recebe ErrAlreadyGraded
	if err := s.repo.Settle(ctx, b.ID, repo.Settlement{
		Result:    req.Result,
		Odds:      odds,
		Profit:    profit,
		Payout:    repo.FloatPtr(payout),
		SettledAt: settledAt,
	}); err != nil {
		return GradeResult{}, err
	}

	b.Result = req.Result
	b.Odds = odds
	b.Profit = repo.FloatPtr(profit)
	b.Payout = repo.FloatPtr(payout)
	b.SettledAt = settledAt
	return GradeResult{OK: true, Profit: profit, Bet: b}, nil
}

// Retag troca a visibilidade de uma aposta
func (s *Service) Retag(ctx context.Context, id int64, tier repo.Tier) error {
	if !tier.Valid() {
		return ErrInvalidTier
	}
	if err := s.repo.UpdateVisibility(ctx, id, tier); err != nil {
		return err
	}
	s.log.Info("bet retagged", zap.Int64("bet_id", id), zap.String("tier", string(tier)))
	s.changed(ctx)
	return nil
}

// RetagByDate troca a visibilidade de todas as apostas do dia e devolve quantas mudaram
func (s *Service) RetagByDate(ctx context.Context, date string, tier repo.Tier) (int64, error) {
	if !tier.Valid() {
		return 0, ErrInvalidTier
	}
	d, ok := normalize.ParseDate(date)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	n, err := s.repo.BulkUpdateVisibilityByDate(ctx, d, tier)
	if err != nil {
		return 0, err
	}
	s.log.Info("bets retagged by date", zap.String("date", d), zap.String("tier", string(tier)), zap.Int64("affected", n))
	if n > 0 {
		s.changed(ctx)
	}
	return n, nil
}

func (s *Service) UpdateNotes(ctx context.Context, id int64, notes string) error {
	if err := s.repo.UpdateNotes(ctx, id, notes); err != nil {
		return err
	}
	s.log.Info("bet notes updated", zap.Int64("bet_id", id))
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*repo.Bet, error) {
	return s.repo.Get(ctx, id)
}

// ByDate lista as apostas do dia visíveis para o tier; pendingOnly restringe às PENDING
func (s *Service) ByDate(ctx context.Context, date string, viewer repo.Tier, pendingOnly bool) ([]repo.Bet, error) {
	if !viewer.Valid() {
		return nil, ErrInvalidTier
	}
	d, ok := normalize.ParseDate(date)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if pendingOnly {
		return s.repo.PendingByDate(ctx, d, viewer)
	}
	return s.repo.ByDate(ctx, d, viewer)
}

func (s *Service) changed(ctx context.Context) {
	if s.OnChange != nil {
		s.OnChange(ctx)
	}
}

func outcomeOf(r repo.Result) (oddsmath.Outcome, bool) {
	switch r {
	case repo.ResultWin:
		return oddsmath.Win, true
	case repo.ResultLoss:
		return oddsmath.Loss, true
	case repo.ResultPush:
		return oddsmath.Push, true
	case repo.ResultVoid:
		return oddsmath.Void, true
	}
	return 0, false
}

func gradeErrorReason(err error) string {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return "not_found"
	case errors.Is(err, repo.ErrAlreadyGraded):
		return "already_graded"
	case errors.Is(err, ErrInvalidResult):
		return "invalid_result"
	case errors.Is(err, ErrMissingOdds):
		return "missing_odds"
	case errors.Is(err, ErrInvalidDate):
		return "invalid_date"
	}
	return "internal"
}
