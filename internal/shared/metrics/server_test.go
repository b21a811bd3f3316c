package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Healthz(t *testing.T) {
	ok := Handler(func(context.Context) error { return nil })
	rec := httptest.NewRecorder()
	ok.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	down := Handler(func(context.Context) error { return errors.New("sqlite locked") })
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "sqlite locked")
}

func TestHandler_Metrics(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler(func(context.Context) error { return nil }).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewLedgerAndWorker(t *testing.T) {
	reg := prometheus.NewRegistry()
	l := NewLedger(reg)
	w := NewWorker(reg)

	l.ImportRows.WithLabelValues("inserted").Add(3)
	w.DLQ.Inc()
	assert.Equal(t, 3.0, testutil.ToFloat64(l.ImportRows.WithLabelValues("inserted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(w.DLQ))

	// registrar duas vezes no mesmo registry é erro de programação
	require.Panics(t, func() { NewLedger(reg) })
}
