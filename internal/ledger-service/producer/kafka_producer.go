package producer

import (
	"context"
	"strconv"
	"time"

	kafkax "github.com/radieske/bet-recap-ledger/internal/shared/kafka"
	"github.com/radieske/bet-recap-ledger/pkg/contracts/events"
)

// Publisher é o que os serviços do ledger usam para avisar o resto do mundo
type Publisher interface {
	PublishBetImported(ctx context.Context, e events.BetImported) error
	PublishBetGraded(ctx context.Context, e events.BetGraded) error
	PublishRecapReady(ctx context.Context, e events.RecapReady) error
}

// TopicWriter é um writer já preso a um tópico (*kafka.Writer)
type TopicWriter interface {
	kafkax.Writer
	Close() error
}

// KafkaPublisher escreve cada evento no seu tópico
type KafkaPublisher struct {
	Imported TopicWriter
	Graded   TopicWriter
	Recap    TopicWriter
	now      func() time.Time
}

func NewKafkaPublisher(imported, graded, recap TopicWriter) *KafkaPublisher {
	return &KafkaPublisher{Imported: imported, Graded: graded, Recap: recap, now: time.Now}
}

func (p *KafkaPublisher) PublishBetImported(ctx context.Context, e events.BetImported) error {
	e.Ts = p.now().UTC()
	return kafkax.WriteJSON(ctx, p.Imported, e.ImportID, e)
}

func (p *KafkaPublisher) PublishBetGraded(ctx context.Context, e events.BetGraded) error {
	e.Ts = p.now().UTC()
	return kafkax.WriteJSON(ctx, p.Graded, strconv.FormatInt(e.BetID, 10), e)
}

func (p *KafkaPublisher) PublishRecapReady(ctx context.Context, e events.RecapReady) error {
	e.Ts = p.now().UTC()
	return kafkax.WriteJSON(ctx, p.Recap, e.Date+":"+e.Tier, e)
}

// Close fecha os writers
func (p *KafkaPublisher) Close() error {
	var first error
	for _, w := range []TopicWriter{p.Imported, p.Graded, p.Recap} {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Nop descarta os eventos (KAFKA_BROKERS vazio, testes)
type Nop struct{}

func (Nop) PublishBetImported(context.Context, events.BetImported) error { return nil }
func (Nop) PublishBetGraded(context.Context, events.BetGraded) error     { return nil }
func (Nop) PublishRecapReady(context.Context, events.RecapReady) error   { return nil }
