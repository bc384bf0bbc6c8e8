package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gator-social/internal/config"
	"gator-social/internal/engine"
	"gator-social/internal/engine/actors"
	"gator-social/internal/events"
	"gator-social/internal/handlers"
	"gator-social/internal/logging"
	"gator-social/internal/middleware"
	"gator-social/internal/storage"
	"gator-social/internal/utils"
	"gator-social/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// App holds every long-lived component of the engine process.
type App struct {
	System  *actor.ActorSystem
	Engine  *engine.Engine
	PID     *actor.PID
	Hub     *websocket.Hub
	Server  *handlers.Server
	backend storage.Backend
	logger  *zap.Logger
}

// NewApp wires storage, the engine actor, the event hub and the HTTP layer.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	backend, err := storage.Open(ctx, cfg.Store.Backend, cfg.Store.DSN, cfg.Store.Namespace, logger)
	if err != nil {
		return nil, err
	}

	auth, err := middleware.NewAuthenticator(cfg.Server.JWTSecret, handlers.UnprotectedPaths...)
	if err != nil {
		_ = backend.Close(ctx)
		return nil, err
	}

	metrics := utils.NewMetricsCollector()
	hub := websocket.NewHub(logger)
	socialEngine := engine.New(backend, engine.Options{
		Params:  cfg.Chain.Params(),
		Sink:    events.Fanout{hub, events.LogSink{Logger: logger.Named("events")}},
		Logger:  logger,
		Metrics: metrics,
	})

	system := actor.NewActorSystem()
	pid := actors.Spawn(system, socialEngine, metrics, logger)

	server := handlers.NewServer(system.Root, pid, metrics, hub, auth, logger)
	server.RequestTimeout = cfg.Server.RequestTimeout
	server.AllowedOrigins = cfg.Server.AllowedOrigins
	server.MetricsEnabled = cfg.Server.MetricsEnabled

	return &App{
		System:  system,
		Engine:  socialEngine,
		PID:     pid,
		Hub:     hub,
		Server:  server,
		backend: backend,
		logger:  logger,
	}, nil
}

// Close stops the engine actor and releases the storage backend.
func (a *App) Close(ctx context.Context) error {
	if err := a.System.Root.StopFuture(a.PID).Wait(); err != nil {
		a.logger.Warn("Engine actor did not stop cleanly", zap.Error(err))
	}
	return a.backend.Close(ctx)
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	go app.Hub.Run(ctx)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           app.Server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("addr", httpServer.Addr),
			zap.String("store", cfg.Store.Backend))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}
	if err := app.Close(shutdownCtx); err != nil {
		logger.Error("Storage close failed", zap.Error(err))
	}
}
