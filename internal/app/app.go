package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/betania/sportsync/external/apisports"
	"github.com/betania/sportsync/internal/cache"
	"github.com/betania/sportsync/internal/config"
	"github.com/betania/sportsync/internal/infrastructure/repository/postgres"
	"github.com/betania/sportsync/internal/interfaces/httpapi"
	"github.com/betania/sportsync/internal/monitor"
	"github.com/betania/sportsync/internal/platform/logging"
	"github.com/betania/sportsync/internal/platform/resilience"
	"github.com/betania/sportsync/internal/scheduler"
	"github.com/betania/sportsync/internal/store"
	"github.com/betania/sportsync/internal/usecase"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

// App wires every component and owns their lifecycle.
type App struct {
	cfg    config.Config
	logger *logging.Logger

	db          *sqlx.DB
	cache       *cache.SmartCache
	monitor     *monitor.Monitor
	scheduler   *scheduler.Scheduler
	filters     *store.FilterStore
	syncService *usecase.SyncService
	server      *http.Server

	unsubSync func()
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var db *sqlx.DB
	var persistence cache.Persistence
	if cfg.PersistenceEnabled {
		dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
		opened, err := otelsqlx.Open("postgres", dsn,
			otelsql.WithDBSystem("postgresql"),
			otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
			otelsql.WithQueryFormatter(formatDBQueryForTrace),
		)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		db = opened
		persistence = postgres.NewCacheRepository(db)
	}

	smartCache := cache.New(cache.Options{
		MaxEntries:    cfg.CacheMaxEntries,
		SweepInterval: cfg.CacheSweepInterval,
		Persistence:   persistence,
		Logger:        logger,
	})

	client := apisports.NewClient(apisports.ClientConfig{
		BaseURL:    cfg.ProxyBaseURL,
		ProxyPath:  cfg.ProxyPath,
		APIKey:     cfg.ProxyAPIKey,
		Timeout:    cfg.ProxyTimeout,
		MaxRetries: cfg.ProxyMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.ProxyCircuitEnabled,
			FailureThreshold: cfg.ProxyCircuitFailureCount,
			OpenTimeout:      cfg.ProxyCircuitOpenTimeout,
			ProbeRequests:    cfg.ProxyCircuitHalfOpenMaxReq,
		},
	})

	mon := monitor.New(monitor.Options{
		Probe:  client,
		Logger: logger,
	})

	sched, err := scheduler.New(scheduler.Options{
		Caller:         client,
		Monitor:        mon,
		MaxConcurrent:  cfg.MaxConcurrentRequests,
		DebounceWindow: cfg.BatchWindow,
		MaxWait:        cfg.BatchMaxWait,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build scheduler: %w", err)
	}

	filters := store.New(store.Options{
		DefaultLeagueID: cfg.DefaultLeagueID,
	})

	syncService := usecase.NewSyncService(
		scheduler.Provider{Scheduler: sched},
		smartCache,
		filters,
		logger,
		usecase.SyncConfig{
			DefaultLeagueID:     cfg.DefaultLeagueID,
			RefreshInterval:     cfg.RefreshInterval,
			SeasonReferenceYear: cfg.SeasonReferenceYear,
		},
	)

	handler := httpapi.NewHandler(syncService, filters, mon, smartCache, logger)
	router := httpapi.NewRouter(handler, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		cfg:         cfg,
		logger:      logger,
		db:          db,
		cache:       smartCache,
		monitor:     mon,
		scheduler:   sched,
		filters:     filters,
		syncService: syncService,
		server:      server,
	}, nil
}

// Start hydrates the cache and launches the background loops.
func (a *App) Start(ctx context.Context) {
	if a.db != nil {
		if err := a.cache.LoadPersisted(ctx); err != nil {
			a.logger.WarnContext(ctx, "cache hydration failed", "error", err)
		}
	}

	a.cache.StartSweep(ctx)
	a.monitor.StartHealthLoop(ctx, a.cfg.HealthCheckInterval)

	a.unsubSync = a.syncService.Subscribe(func(usecase.Snapshot) {
		a.monitor.RecordCacheStats(a.cache.Stats())
	})
	a.syncService.Start(ctx)
}

func (a *App) Server() *http.Server {
	return a.server
}

func (a *App) Shutdown() {
	a.syncService.Stop()
	if a.unsubSync != nil {
		a.unsubSync()
	}
	a.monitor.StopHealthLoop()
	a.cache.StopSweep()
	a.scheduler.Close()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database failed", "error", err)
		}
	}
}
