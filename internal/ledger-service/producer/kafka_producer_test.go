package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/bet-recap-ledger/pkg/contracts/events"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_KeysAndPayloads(t *testing.T) {
	imported, graded, recap := &fakeWriter{}, &fakeWriter{}, &fakeWriter{}
	p := NewKafkaPublisher(imported, graded, recap)
	ts := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return ts }
	ctx := context.Background()

	require.NoError(t, p.PublishBetImported(ctx, events.BetImported{ImportID: "imp-1", Inserted: 3}))
	require.NoError(t, p.PublishBetGraded(ctx, events.BetGraded{BetID: 42, Result: "WIN", Profit: 0.91}))
	require.NoError(t, p.PublishRecapReady(ctx, events.RecapReady{Date: "2026-10-17", Tier: "FREE"}))

	require.Len(t, imported.msgs, 1)
	assert.Equal(t, "imp-1", string(imported.msgs[0].Key))
	var ie events.BetImported
	require.NoError(t, json.Unmarshal(imported.msgs[0].Value, &ie))
	assert.Equal(t, 3, ie.Inserted)
	assert.True(t, ie.Ts.Equal(ts))

	require.Len(t, graded.msgs, 1)
	assert.Equal(t, "42", string(graded.msgs[0].Key))

	require.Len(t, recap.msgs, 1)
	assert.Equal(t, "2026-10-17:FREE", string(recap.msgs[0].Key))

	require.NoError(t, p.Close())
	assert.True(t, imported.closed && graded.closed && recap.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewKafkaPublisher(&fakeWriter{}, &fakeWriter{err: boom}, &fakeWriter{})
	err := p.PublishBetGraded(context.Background(), events.BetGraded{BetID: 1})
	assert.ErrorIs(t, err, boom)
}
