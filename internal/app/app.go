package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-credentials/internal/data/db"
	httpx "github.com/yungbote/neurobridge-credentials/internal/http"
	"github.com/yungbote/neurobridge-credentials/internal/observability"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients

	pg           *db.PostgresService
	server       *httpx.Server
	metrics      *observability.Metrics
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
	closeOnce    sync.Once
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	otelCfg := observability.OtelConfigFromEnv(serviceName, cfg.Environment, cfg.Version)
	otelShutdown := observability.InitOTel(ctx, log, otelCfg)
	metrics, err := observability.InitMetrics(ctx, log, otelCfg)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	pg, err := db.NewPostgresService(log, db.PostgresDSNFromEnv())
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	clientset, err := wireClients(log)
	if err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(log, cfg, reposet, clientset, metrics)
	if err != nil {
		clientset.Close()
		_ = pg.Close()
		log.Sync()
		return nil, err
	}

	router, err := wireRouter(log, cfg, theDB, serviceset, clientset, metrics)
	if err != nil {
		clientset.Close()
		_ = pg.Close()
		log.Sync()
		return nil, err
	}

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clientset,
		pg:           pg,
		server:       httpx.NewServer(cfg.HTTPAddr, router),
		metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches background work. It is a no-op when already started.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Services.Coordinator != nil {
		a.Services.Coordinator.StartJanitor(ctx, a.Cfg.JanitorInterval)
	}
}

func (a *App) Run() error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTPAddr)
	return a.server.Run()
}

// Close stops the listener, drains pending notifications and releases clients. Calls
// after the first are no-ops.
func (a *App) Close() {
	if a == nil {
		return
	}
	a.closeOnce.Do(a.close)
}

func (a *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.Log.Warn("http shutdown failed", "error", err)
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Services.Coordinator != nil {
		a.Services.Coordinator.Wait()
	}
	a.Clients.Close()
	if a.pg != nil {
		_ = a.pg.Close()
	}
	if err := a.metrics.Shutdown(ctx); err != nil {
		a.Log.Warn("metrics shutdown failed", "error", err)
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
