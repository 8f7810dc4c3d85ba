package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libredis "batteryeis/backend/libs/redis"
	"batteryeis/backend/services/ingest-service/internal/config"
	"batteryeis/backend/services/ingest-service/internal/db"
	httpserver "batteryeis/backend/services/ingest-service/internal/http"
	"batteryeis/backend/services/ingest-service/internal/http/handlers"
	"batteryeis/backend/services/ingest-service/internal/metrics"
	redisstore "batteryeis/backend/services/ingest-service/internal/redis"
	"batteryeis/backend/services/ingest-service/internal/repository"
	"batteryeis/backend/services/ingest-service/internal/service"
	"batteryeis/backend/services/ingest-service/internal/session"
	"batteryeis/backend/services/ingest-service/internal/sink"
	"batteryeis/backend/services/ingest-service/internal/ws"
)

// App wires ingest-service dependencies.
type App struct {
	server      *httpserver.Server
	handler     http.Handler
	ingestion   *service.IngestionService
	manager     *ws.Manager
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph. Postgres and Redis are only dialed when configured.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []service.Option{service.WithMetrics(metrics.New(registry))}

	if cfg.JournalEnabled() {
		sqlDB, err := db.NewPostgres(ctx, cfg.Database.DSN, cfg.Database.MaxOpenConns)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.db = sqlDB
		if err := db.Migrate(ctx, sqlDB, logger); err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, service.WithJournal(repository.NewSessionJournal(sqlDB)))
	}

	if cfg.ActiveStoreEnabled() {
		redisClient, err := libredis.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.redisClient = redisClient
		opts = append(opts, service.WithActiveStore(redisstore.NewStore(redisClient, cfg.ActiveSessionTTL())))
	}

	a.ingestion = service.NewIngestionService(
		session.NewRegistry(),
		service.CSVSinks(sink.NewFactory(cfg.Storage.DataDir)),
		cfg.Bounds(),
		logger,
		opts...,
	)

	a.manager = ws.NewManager(cfg.PingInterval())
	wsServer := ws.NewServer(a.manager, ws.NewSampleProcessor(a.ingestion), cfg.WriteTimeout(), logger)

	sessionsHandler := handlers.NewSessionsHandler(a.ingestion, logger)
	routes := httpserver.Routes{
		SessionStart: sessionsHandler.HandleStart,
		SessionPush:  sessionsHandler.HandlePush,
		SessionEnd:   sessionsHandler.HandleEnd,
		Stream:       http.HandlerFunc(wsServer.HandleWS),
		Metrics:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Health:       handlers.NewHealthHandler(a.ingestion),
	}

	a.handler = httpserver.NewRouter(routes)
	a.server = httpserver.NewServer(cfg.HTTPAddress(), a.handler, logger)

	logger.Info("ingest service configured",
		zap.String("data_dir", cfg.Storage.DataDir),
		zap.Bool("journal", a.db != nil),
		zap.Bool("active_store", a.redisClient != nil),
		zap.Float64("threshold_delta_t", cfg.Bounds().TemperatureDelta()),
	)
	return a, nil
}

// Handler returns the routed HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run starts the ping loop and HTTP server.
func (a *App) Run(ctx context.Context) error {
	go a.manager.Start(ctx)
	return a.server.Run(ctx)
}

// Close releases resources. Open sessions are closed before their journal goes away.
func (a *App) Close() {
	if a.manager != nil {
		a.manager.CloseAll()
	}
	if a.ingestion != nil {
		a.ingestion.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
