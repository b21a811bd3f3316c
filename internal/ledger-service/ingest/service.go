package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/bet-recap-ledger/internal/ledger-service/csvrecord"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/dedup"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/mapping"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/normalize"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/producer"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/repo"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/settings"
	"github.com/radieske/bet-recap-ledger/internal/shared/metrics"
	"github.com/radieske/bet-recap-ledger/pkg/contracts/events"
)

var (
	ErrUnknownField = errors.New("unknown canonical field")
	ErrInvalidBet   = errors.New("invalid bet")
)

// Ledger é o pedaço do store que o import usa
type Ledger interface {
	Insert(ctx context.Context, b *repo.Bet) (int64, error)
	BulkInsert(ctx context.Context, bets []repo.Bet) (repo.BulkResult, error)
	repo.MappingStore
}

type Service struct {
	log          *zap.Logger
	ledger       Ledger
	settings     *settings.Settings
	pub          producer.Publisher
	metrics      *metrics.Ledger
	maxRowErrors int
	now          func() time.Time

	// OnChange é chamado quando o import ou o lançamento manual insere apostas
	OnChange func(ctx context.Context)
}

func NewService(log *zap.Logger, l Ledger, st *settings.Settings, p producer.Publisher, m *metrics.Ledger, maxRowErrors int) *Service {
	if maxRowErrors <= 0 {
		maxRowErrors = 50
	}
	return &Service{log: log, ledger: l, settings: st, pub: p, metrics: m, maxRowErrors: maxRowErrors, now: time.Now}
}

// RowError é um problema de linha reportado ao operador
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Result resume um import
type Result struct {
	ImportID   string          `json:"importId"`
	Parsed     int             `json:"parsed"`
	Inserted   int             `json:"inserted"`
	Duplicates int             `json:"duplicates"`
	Skipped    int             `json:"skipped"`
	Tier       repo.Tier       `json:"tier"`
	Mapping    mapping.Mapping `json:"mapping"`
	Missing    []string        `json:"missing,omitempty"`
	Warnings   []string        `json:"warnings,omitempty"`
	Errors     []RowError      `json:"errors,omitempty"`
	// ErrorCount é o total de erros, mesmo quando Errors foi truncado
	ErrorCount int `json:"errorCount"`
}

func (r *Result) addError(max, line int, reason string) {
	r.ErrorCount++
	if len(r.Errors) < max {
		r.Errors = append(r.Errors, RowError{Line: line, Reason: reason})
	}
}

// Import lê o CSV, normaliza cada linha e grava as novas numa única transação.
// tier vazio usa o default_import_tier configurado. Problemas de linha não abortam o import.
func (s *Service) Import(ctx context.Context, csv io.Reader, tier repo.Tier) (*Result, error) {
	res := &Result{ImportID: uuid.NewString()}

	// 1) Tier aplicado às linhas sem visibilidade própria
	if tier == "" {
		t, err := s.settings.DefaultImportTier(ctx)
		if err != nil {
			return nil, err
		}
		tier = t
	}
	if !tier.Valid() {
		return nil, fmt.Errorf("import tier %q: %w", tier, ErrInvalidBet)
	}
	res.Tier = tier

	// 2) Parse
	table, err := csvrecord.Parse(csv)
	if err != nil {
		return nil, err
	}
	for _, le := range table.Errors {
		res.Skipped++
		res.addError(s.maxRowErrors, le.Line, "malformed line: "+le.Reason)
	}
	if table.Headers == nil {
		res.Warnings = append(res.Warnings, "empty file: no header row")
		s.finish(ctx, res)
		return res, nil
	}
	res.Parsed = len(table.Rows)

	// 3) Mapeamento de colunas
	overrides, err := s.ledger.MappingOverrides(ctx)
	if err != nil {
		return nil, fmt.Errorf("load mapping overrides: %w", err)
	}
	res.Mapping = mapping.Resolve(table.Headers, overrides)
	res.Missing = res.Mapping.Missing()
	if len(res.Missing) > 0 {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("unmapped required fields: %s; configure a mapping override and re-import", strings.Join(res.Missing, ", ")))
		for _, f := range res.Missing {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("%s: no header matched any of %s", f, strings.Join(mapping.Synonyms(f), ", ")))
		}
	}

	// 4) Normalização e hash por linha
	candidates := make([]repo.Bet, 0, len(table.Rows))
	for _, row := range table.Rows {
		n := normalize.Row(row.Values, res.Mapping)
		if !n.OK() {
			res.Skipped++
			res.addError(s.maxRowErrors, row.Line, strings.Join(n.Errors, "; "))
			continue
		}
		b := n.Bet
		if n.DefaultTier {
			b.Visibility = tier
		}
		b.Hash = dedup.Fingerprint(table.Headers, row.Values, res.Mapping)
		candidates = append(candidates, b)
	}

	// 5) Gravação: duplicados são pulados e contados, não são erro
	if len(candidates) > 0 {
		br, err := s.ledger.BulkInsert(ctx, candidates)
		if err != nil {
			return nil, fmt.Errorf("bulk insert: %w", err)
		}
		res.Inserted = br.Inserted
		res.Duplicates = br.Duplicates
	}
	if res.ErrorCount > len(res.Errors) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d more row errors not shown", res.ErrorCount-len(res.Errors)))
	}

	s.finish(ctx, res)
	return res, nil
}

func (s *Service) finish(ctx context.Context, res *Result) {
	s.metrics.ImportRows.WithLabelValues("parsed").Add(float64(res.Parsed))
	s.metrics.ImportRows.WithLabelValues("inserted").Add(float64(res.Inserted))
	s.metrics.ImportRows.WithLabelValues("duplicate").Add(float64(res.Duplicates))
	s.metrics.ImportRows.WithLabelValues("skipped").Add(float64(res.Skipped))

	s.log.Info("import finished",
		zap.String("import_id", res.ImportID),
		zap.String("tier", string(res.Tier)),
		zap.Int("parsed", res.Parsed),
		zap.Int("inserted", res.Inserted),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("skipped", res.Skipped),
		zap.Strings("missing", res.Missing),
	)

	if err := s.pub.PublishBetImported(ctx, events.BetImported{
		ImportID:   res.ImportID,
		Parsed:     res.Parsed,
		Inserted:   res.Inserted,
		Duplicates: res.Duplicates,
		Skipped:    res.Skipped,
		Tier:       string(res.Tier),
	}); err != nil {
		s.log.Warn("publish bet_imported failed", zap.String("import_id", res.ImportID), zap.Error(err))
	}
	if res.Inserted > 0 && s.OnChange != nil {
		s.OnChange(ctx)
	}
}

// Mappings devolve os overrides configurados
func (s *Service) Mappings(ctx context.Context) (map[string]string, error) {
	return s.ledger.MappingOverrides(ctx)
}

// SetMapping fixa o header de origem de um campo canônico
func (s *Service) SetMapping(ctx context.Context, field, header string) error {
	if !mapping.IsField(field) {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if strings.TrimSpace(header) == "" {
		return fmt.Errorf("mapping for %s: empty header", field)
	}
	if err := s.ledger.SetMappingOverride(ctx, field, header); err != nil {
		return err
	}
	s.log.Info("mapping override set", zap.String("field", field), zap.String("header", header))
	return nil
}

// ResetMappings volta ao comportamento só de sinônimos
func (s *Service) ResetMappings(ctx context.Context) error {
	if err := s.ledger.ResetMappingOverrides(ctx); err != nil {
		return err
	}
	s.log.Info("mapping overrides reset")
	return nil
}
