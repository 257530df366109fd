package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/openacademy/trilhas-backend/internal/data/db"
	"github.com/openacademy/trilhas-backend/internal/data/repos"
	apphttp "github.com/openacademy/trilhas-backend/internal/http"
	"github.com/openacademy/trilhas-backend/internal/observability"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
	"github.com/openacademy/trilhas-backend/internal/realtime"
	"github.com/openacademy/trilhas-backend/internal/services"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *apphttp.Server
	Cfg      Config
	Repos    *repos.Set
	Services Services
	Clients  Clients
	SSEHub   *realtime.SSEHub
	Metrics  *observability.Metrics

	dbService    *db.Service
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	started := time.Now()
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.OtelEnabled,
		ServiceName: cfg.OtelServiceName,
		Environment: cfg.AppEnv,
		Endpoint:    cfg.OtelEndpoint,
		Headers:     cfg.OtelHeaders,
		Insecure:    cfg.OtelInsecure,
		SampleRatio: cfg.OtelSampleRatio,
	})
	metrics := observability.Init(cfg.MetricsEnabled)

	dbService, err := db.NewService(log, db.Config{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	if err := seed(log, dbService, cfg.SeedFile); err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}
	theDB := dbService.DB()

	reposet, err := wireRepos(theDB, log)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}
	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	ssehub := realtime.NewSSEHub(log, metrics)
	publisher := realtime.NewNotifier(ssehub, clients.SSEBus, log)

	serviceset := wireServices(theDB, log, cfg, reposet, clients, publisher, metrics)
	handlerset := wireHandlers(log, serviceset, ssehub, started)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, metrics, serviceset, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		SSEHub:       ssehub,
		Metrics:      metrics,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

func seed(log *logger.Logger, svc *db.Service, path string) error {
	if path == "" {
		return nil
	}
	doc, err := db.LoadSeedDocument(path)
	if err != nil {
		return fmt.Errorf("load seed file: %w", err)
	}
	report, err := svc.Seed(doc)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	log.Info("Seed imported", "file", path, "rows", map[string]int(report))
	return nil
}

// Run reconciles counters, starts the background loops and serves HTTP until
// ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	n, err := a.Services.Inscriptions.ReconcileAll(services.AsSystem(ctx))
	if err != nil {
		return fmt.Errorf("reconcile counters: %w", err)
	}
	a.Log.Info("Counters reconciled", "turmas", n)

	if a.Clients.SSEBus != nil {
		if err := a.Clients.SSEBus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
			return fmt.Errorf("start SSE forwarder: %w", err)
		}
	}
	a.Metrics.StartDBCollector(ctx, a.Log, a.DB, a.Cfg.CollectorInterval)
	a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis, a.Cfg.CollectorInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Services.ActivationWorker.Run(gctx) })
	g.Go(func() error { return a.Server.Run(gctx, ":"+a.Cfg.Port) })
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
