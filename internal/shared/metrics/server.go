package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthFunc func(ctx context.Context) error

// StartMetricsServer sobe um servidor HTTP leve só pra /metrics e /healthz.
// executável em numa goroutine no main de cada serviço.
func StartMetricsServer(port string, healthFn HealthFunc) *http.Server {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: Handler(healthFn),
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}

// Handler monta o mux de /metrics e /healthz (separado para testes)
func Handler(healthFn HealthFunc) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if err := healthFn(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(fmt.Sprintf("unhealthy: %v", err)))
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

// Ledger agrupa os contadores do ledger (import, grading, relatórios)
type Ledger struct {
	ImportRows  *prometheus.CounterVec // outcome: parsed|inserted|duplicate|skipped
	Grades      *prometheus.CounterVec // result
	GradeErrors *prometheus.CounterVec // reason
	Reports     *prometheus.CounterVec // range, cache: hit|miss
}

// NewLedger cria e registra os contadores no registerer informado
// (prometheus.DefaultRegisterer em produção, prometheus.NewRegistry() nos testes)
func NewLedger(reg prometheus.Registerer) *Ledger {
	m := &Ledger{
		ImportRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_import_rows_total", Help: "linhas de import por desfecho",
		}, []string{"outcome"}),
		Grades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_grades_total", Help: "apostas graduadas por resultado",
		}, []string{"result"}),
		GradeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_grade_errors_total", Help: "falhas de grading por motivo",
		}, []string{"reason"}),
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_reports_total", Help: "relatórios gerados por range e cache",
		}, []string{"range", "cache"}),
	}
	reg.MustRegister(m.ImportRows, m.Grades, m.GradeErrors, m.Reports)
	return m
}

// Worker agrupa os contadores do consumidor de grade_requests
type Worker struct {
	Consumed prometheus.Counter
	Graded   prometheus.Counter
	DLQ      prometheus.Counter
	Errors   *prometheus.CounterVec // stage: read|decode|grade|dlq|commit
}

func NewWorker(reg prometheus.Registerer) *Worker {
	m := &Worker{
		Consumed: prometheus.NewCounter(prometheus.CounterOpts{Name: "grade_worker_messages_consumed_total", Help: "mensagens consumidas"}),
		Graded:   prometheus.NewCounter(prometheus.CounterOpts{Name: "grade_worker_graded_total", Help: "apostas graduadas via fila"}),
		DLQ:      prometheus.NewCounter(prometheus.CounterOpts{Name: "grade_worker_dlq_total", Help: "mensagens enviadas para a DLQ"}),
		Errors:   prometheus.NewCounterVec(prometheus.CounterOpts{Name: "grade_worker_errors_total", Help: "erros por estágio"}, []string{"stage"}),
	}
	reg.MustRegister(m.Consumed, m.Graded, m.DLQ, m.Errors)
	return m
}
