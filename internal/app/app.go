package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/data/db"
	apphttp "github.com/yungbote/lms-backend/internal/http"
	"github.com/yungbote/lms-backend/internal/observability"
	"github.com/yungbote/lms-backend/internal/platform/envutil"
	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/realtime/bus"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Services Services
	Server   *apphttp.Server
	Bus      bus.Bus
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	otelShutdown := observability.InitTracing(ctx, log, observability.TracingConfigFromEnv(serviceName, cfg.Env, cfg.Version))
	metrics := observability.Init(log)

	theDB, err := openDatabase(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	bucket, err := resolveBucketService(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	eventBus, err := wireBus(log, cfg)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init event bus: %w", err)
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, bucket, eventBus)
	if err != nil {
		_ = eventBus.Close()
		log.Sync()
		return nil, err
	}
	handlerset := wireHandlers(log, theDB, cfg, serviceset)
	middleware := wireMiddleware(log, serviceset)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Server:       wireServer(log, cfg, metrics, handlerset, middleware),
		Bus:          eventBus,
		Metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

func openDatabase(log *logger.Logger, cfg Config) (*gorm.DB, error) {
	var (
		theDB *gorm.DB
		err   error
	)
	switch cfg.DBDriver {
	case "sqlite":
		log.Info("Opening sqlite database", "path", cfg.SQLitePath)
		theDB, err = db.OpenSQLite(log, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	case "postgres", "":
		pg, pgErr := db.NewPostgresService(log, db.PostgresDSNFromEnv())
		if pgErr != nil {
			return nil, fmt.Errorf("init postgres: %w", pgErr)
		}
		theDB = pg.DB()
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if err := db.AutoMigrateAll(theDB); err != nil {
		return nil, err
	}
	if err := db.EnsureIndexes(theDB); err != nil {
		return nil, err
	}
	return theDB, nil
}

// Start launches background work: the event forwarder and, when metrics are
// enabled, the scrape server and pool collectors.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.Bus.StartForwarder(ctx, eventSink(a.Log, a.Metrics)); err != nil {
		return fmt.Errorf("start event forwarder: %w", err)
	}
	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
		if rdb := bus.Client(a.Bus); rdb != nil {
			a.Metrics.StartRedisCollector(ctx, a.Log, rdb)
		}
	}
	return nil
}

// Run blocks serving HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(ctx, ":"+a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Bus != nil {
		_ = a.Bus.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
