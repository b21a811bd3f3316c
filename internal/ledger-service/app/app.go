package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/bet-recap-ledger/internal/ledger-service/bets"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/ingest"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/producer"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/report"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/repo"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/settings"
	sharedcache "github.com/radieske/bet-recap-ledger/internal/shared/cache"
	"github.com/radieske/bet-recap-ledger/internal/shared/config"
	"github.com/radieske/bet-recap-ledger/internal/shared/db"
	"github.com/radieske/bet-recap-ledger/internal/shared/kafka"
	"github.com/radieske/bet-recap-ledger/internal/shared/metrics"
)

// App reúne as dependências do ledger já ligadas entre si.
// Usado pelo ledger-service, pelo grade-worker e pelo CLI.
type App struct {
	Log      *zap.Logger
	DB       *sql.DB
	Store    repo.Store
	Redis    *redis.Client // nil sem REDIS_ADDR
	Metrics  *metrics.Ledger
	Settings *settings.Settings
	Ingest   *ingest.Service
	Bets     *bets.Service
	Reports  *report.Service

	closers []func() error
}

// New abre store, cache e publisher conforme a config e liga a invalidação do cache
// às mutações do ledger.
func New(ctx context.Context, cfg config.Config, log *zap.Logger, reg prometheus.Registerer) (*App, error) {
	a := &App{Log: log}

	// 1) Store (SQLite embutido ou Postgres)
	conn, err := db.Open(cfg.StoreDriver, cfg.SQLitePath, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	a.DB = conn
	a.closers = append(a.closers, conn.Close)

	dialect := repo.DialectSQLite
	if cfg.StoreDriver == db.DriverPostgres {
		dialect = repo.DialectPostgres
	}
	store := repo.NewSQLStore(conn, dialect)
	if err := store.Migrate(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store
	log.Info("ledger store ready", zap.String("driver", string(dialect)))

	// 2) Cache de relatórios (opcional)
	var cache report.Cache = report.NopCache{}
	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	if rdb != nil {
		a.Redis = rdb
		a.closers = append(a.closers, rdb.Close)
		cache = report.NewRedisCache(rdb, cfg.ReportCacheTTL)
		log.Info("redis connected", zap.String("addr", cfg.RedisAddr))
	}

	// 3) Eventos (opcional)
	var pub producer.Publisher = producer.Nop{}
	if cfg.KafkaBrokers != "" {
		kp := producer.NewKafkaPublisher(
			kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetImported),
			kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetGraded),
			kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRecapReady),
		)
		a.closers = append(a.closers, kp.Close)
		pub = kp
		log.Info("kafka publisher ready", zap.String("brokers", cfg.KafkaBrokers))
	}

	// 4) Serviços
	a.Metrics = metrics.NewLedger(reg)
	a.Settings = settings.New(store)
	a.Reports = report.NewService(log, store, cache, a.Settings, pub, a.Metrics)
	a.Ingest = ingest.NewService(log, store, a.Settings, pub, a.Metrics, cfg.ImportMaxRowErrors)
	a.Bets = bets.NewService(log, store, pub, a.Metrics)
	a.Ingest.OnChange = a.Reports.Invalidate
	a.Bets.OnChange = a.Reports.Invalidate

	return a, nil
}

// Health verifica as dependências críticas (usado no /healthz)
func (a *App) Health(ctx context.Context) error {
	if err := a.Store.Ping(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if a.Redis != nil {
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Close libera as conexões na ordem inversa de abertura
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Log.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
