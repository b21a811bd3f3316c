package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/bet-recap-ledger/internal/ledger-service/bets"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/repo"
	"github.com/radieske/bet-recap-ledger/pkg/contracts/events"
	"github.com/radieske/bet-recap-ledger/pkg/oddsmath"
)

// MessageReader é o lado de leitura do *kafka.Reader
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// MessageWriter é o lado de escrita do *kafka.Writer (usado pela DLQ)
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Grader encerra apostas; implementado por *bets.Service
type Grader interface {
	Grade(ctx context.Context, req bets.GradeRequest) (bets.GradeResult, error)
}

// Processor consome comandos de grading do Kafka e aplica no ledger.
// Mensagens inválidas ou recusadas pelo ledger vão para a DLQ; falhas internas têm retry.
type Processor struct {
	Log    *zap.Logger
	Reader MessageReader
	Grader Grader
	DLQ    MessageWriter // opcional

	Retries int           // tentativas extras para falhas internas
	Backoff time.Duration // base do backoff linear entre tentativas

	OnConsumed func()       // métricas (counter++)
	OnGraded   func()       // métricas
	OnDLQ      func()       // métricas
	OnError    func(string) // métricas por fase
}

// Run inicia o loop de consumo até o contexto ser cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			sleep(ctx, 500*time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}
		p.Handle(ctx, m)
	}
}

// Handle processa uma mensagem; exportado para testes e replays manuais
func (p *Processor) Handle(ctx context.Context, m kafka.Message) {
	// 1) Decodifica o comando
	var cmd events.GradeRequest
	if err := json.Unmarshal(m.Value, &cmd); err != nil {
		p.Log.Warn("invalid grade request", zap.Error(err))
		p.fail("decode")
		p.deadLetter(ctx, m, "decode: "+err.Error())
		return
	}
	result, err := repo.ParseResult(cmd.Result)
	if err != nil || cmd.BetID <= 0 {
		if err == nil {
			err = errors.New("missing betId")
		}
		p.Log.Warn("invalid grade request", zap.Int64("bet_id", cmd.BetID), zap.Error(err))
		p.fail("decode")
		p.deadLetter(ctx, m, "decode: "+err.Error())
		return
	}

	req := bets.GradeRequest{ID: cmd.BetID, Result: result, Odds: cmd.Odds, SettledAt: cmd.SettledAt}

	// 2) Aplica com retry só para falhas internas
	var res bets.GradeResult
	for attempt := 0; ; attempt++ {
		res, err = p.Grader.Grade(ctx, req)
		if err == nil || !retryable(err) || attempt >= p.Retries || ctx.Err() != nil {
			break
		}
		sleep(ctx, time.Duration(attempt+1)*p.Backoff)
	}

	switch {
	case err == nil:
		p.Log.Info("bet graded from queue",
			zap.Int64("bet_id", cmd.BetID),
			zap.String("result", string(result)),
			zap.Float64("profit", res.Profit),
			zap.String("actor", cmd.Actor),
		)
		if p.OnGraded != nil {
			p.OnGraded()
		}
	case errors.Is(err, repo.ErrAlreadyGraded):
		// reentrega do mesmo comando: nada a fazer
		p.Log.Info("grade request ignored: already graded", zap.Int64("bet_id", cmd.BetID))
	default:
		p.Log.Warn("grade request failed", zap.Int64("bet_id", cmd.BetID), zap.Error(err))
		p.fail("grade")
		p.deadLetter(ctx, m, err.Error())
	}
}

// retryable separa erros de validação (definitivos) de falhas de infraestrutura
func retryable(err error) bool {
	switch {
	case errors.Is(err, repo.ErrNotFound),
		errors.Is(err, repo.ErrAlreadyGraded),
		errors.Is(err, bets.ErrInvalidResult),
		errors.Is(err, bets.ErrMissingOdds),
		errors.Is(err, bets.ErrInvalidDate),
		errors.Is(err, oddsmath.ErrInvalidStake):
		return false
	}
	return true
}

func (p *Processor) deadLetter(ctx context.Context, m kafka.Message, reason string) {
	if p.DLQ == nil {
		return
	}
	msg := kafka.Message{
		Key:   m.Key,
		Value: m.Value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "error", Value: []byte(reason)},
			{Key: "source_offset", Value: []byte(strconv.FormatInt(m.Offset, 10))},
		},
	}
	if err := p.DLQ.WriteMessages(ctx, msg); err != nil {
		p.Log.Error("dlq write failed", zap.Error(err))
		p.fail("dlq")
		return
	}
	if p.OnDLQ != nil {
		p.OnDLQ()
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
