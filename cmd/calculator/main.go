package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reactive-calculator/internal/assets"
	"reactive-calculator/internal/keypad"
	"reactive-calculator/internal/observability"
	"reactive-calculator/internal/realtime"
	"reactive-calculator/internal/server"
	"reactive-calculator/internal/session"

	"go.uber.org/zap"
)

func main() {

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Config
	if err := loadDotEnv(); err != nil {
		panic(err)
	}
	cfg, err := loadConfigFromEnv()
	if err != nil {
		panic(err)
	}

	// Logger
	if err := observability.InitLogger(cfg.LogLevel); err != nil {
		panic(err)
	}
	defer observability.SyncLogger()

	// Tracing, metrics, log export
	telemetryShutdown, err := initTelemetry(ctx, cfg)
	if err != nil {
		observability.Logger.Fatal("initialising telemetry", zap.Error(err))
	}
	defer telemetryShutdown(context.Background())

	// Sessions
	sessions := session.NewManager(session.Config{
		MaxSessions: cfg.MaxSessions,
		IdleTimeout: cfg.SessionIdleTimeout,
		TapeSize:    cfg.TapeSize,
	})
	go sessions.Run(ctx)

	hub := realtime.NewHub(sessions)

	// Static bundle
	bundle, err := assets.Bundle(cfg.StaticDir)
	if err != nil {
		observability.Logger.Fatal("opening static bundle", zap.String("dir", cfg.StaticDir), zap.Error(err))
	}

	if cfg.AssetWatch && cfg.StaticDir != "" {
		watcher, err := assets.NewWatcher(cfg.StaticDir, hub.BroadcastReload)
		if err != nil {
			observability.Logger.Fatal("watching static bundle", zap.String("dir", cfg.StaticDir), zap.Error(err))
		}
		defer watcher.Close()
	}

	// Router
	router := server.NewRouter(server.Deps{
		Keypad: keypad.NewHandler(sessions),
		Keys:   hub,
		Assets: assets.Handler(bundle),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		observability.Logger.Info("server started",
			zap.String("addr", "http://"+cfg.Addr()+"/"),
			zap.String("static_dir", cfg.StaticDir),
			zap.Bool("otel", cfg.OTelEnabled),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Logger.Fatal("server failed", zap.Error(err))
		}
	}()

	waitForShutdown(srv, hub)
}

func waitForShutdown(srv *http.Server, hub *realtime.Hub) {

	stop := make(chan os.Signal, 1)

	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop

	observability.Logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by Shutdown.
	hub.Close()

	if err := srv.Shutdown(ctx); err != nil {
		observability.Logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}
