package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursehall-backend/internal/data/docstore"
	"github.com/yungbote/coursehall-backend/internal/http"
	"github.com/yungbote/coursehall-backend/internal/observability"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

type App struct {
	Log      *logger.Logger
	Store    docstore.Store
	Server   *http.Server
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients

	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)
	return NewWithConfig(ctx, cfg, log)
}

// NewWithConfig wires the application from an explicit config.
func NewWithConfig(ctx context.Context, cfg Config, log *logger.Logger) (*App, error) {
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfigFromEnv(log, cfg.ServiceName, cfg.Environment, cfg.Version))

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init document store: %w", err)
	}

	clients, err := wireClients(cfg, log)
	if err != nil {
		_ = store.Close(ctx)
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(store, cfg, log)
	serviceset := wireServices(log, cfg, reposet, clients)
	handlerset := wireHandlers(log, serviceset)
	middleware := wireMiddleware(log, serviceset)

	gin.SetMode(ginMode(cfg))
	server := http.NewServer(routerConfig(cfg, log, handlerset, middleware))

	return &App{
		Log:          log,
		Store:        store,
		Server:       server,
		Router:       server.Engine,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		otelShutdown: otelShutdown,
	}, nil
}

// Run blocks serving HTTP until Close is called.
func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Listening", "addr", a.Cfg.Addr)
	return a.Server.Run(a.Cfg.Addr)
}

// Close stops the server, drains background work and closes the store.
func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			a.Log.Warn("HTTP shutdown failed", "error", err)
		}
	}
	a.Clients.Close(ctx, a.Log)
	if a.Store != nil {
		if err := a.Store.Close(ctx); err != nil {
			a.Log.Warn("Document store close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
