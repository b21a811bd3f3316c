package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/bet-recap-ledger/internal/grade-worker/consumer"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/app"
	"github.com/radieske/bet-recap-ledger/internal/shared/config"
	"github.com/radieske/bet-recap-ledger/internal/shared/kafka"
	"github.com/radieske/bet-recap-ledger/internal/shared/logger"
	"github.com/radieske/bet-recap-ledger/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "grade-worker"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.KafkaBrokers == "" {
		log.Fatal("KAFKA_BROKERS is required for grade-worker")
	}

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, log, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal("ledger init", zap.Error(err))
	}
	defer a.Close()

	// Kafka consumer (consumer group grade-worker) e DLQ
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicGradeRequests, "grade-worker")
	defer reader.Close()

	var dlq consumer.MessageWriter
	if cfg.TopicGradeRequestsDLQ != "" {
		w := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicGradeRequestsDLQ)
		defer w.Close()
		dlq = w
	}

	wm := metrics.NewWorker(prometheus.DefaultRegisterer)
	proc := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		Grader:     a.Bets,
		DLQ:        dlq,
		Retries:    3,
		Backoff:    300 * time.Millisecond,
		OnConsumed: wm.Consumed.Inc,
		OnGraded:   wm.Graded.Inc,
		OnDLQ:      wm.DLQ.Inc,
		OnError:    func(stage string) { wm.Errors.WithLabelValues(stage).Inc() },
	}

	// Servidor HTTP para métricas e health check
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, a.Health)
	defer metricsSrv.Close()
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	log.Info("grade-worker started",
		zap.String("consume", cfg.TopicGradeRequests),
		zap.String("dlq", cfg.TopicGradeRequestsDLQ),
	)
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("grade-worker stopped")
}
