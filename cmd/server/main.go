package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"

	"chemxplore/internal/bootstrap"
	"chemxplore/internal/config"
	"chemxplore/internal/telemetry"
	httptransport "chemxplore/internal/transport/http"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	logger, logCloser, err := telemetry.InitLogger(cfg.Log)
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer logCloser.Close()

	if cfg.Log.Telemetry {
		shutdown, err := telemetry.InitTelemetry(ctx, cfg.App.Name, cfg.Log)
		if err != nil {
			logger.Error("init telemetry failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("close resources failed", "error", err)
		}
	}()

	router := httptransport.NewRouter(app)
	server := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	failed := make(chan struct{})
	wg := conc.NewWaitGroup()
	wg.Go(func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			close(failed)
		}
	})

	waitForShutdown(server, failed, logger)
	wg.Wait()
}

func waitForShutdown(server *http.Server, failed <-chan struct{}, logger *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-failed:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
}
