package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/sitegest/internal/api"
	"github.com/dgallion1/sitegest/internal/config"
	"github.com/dgallion1/sitegest/internal/logging"
	"github.com/dgallion1/sitegest/internal/pipeline"
	"github.com/dgallion1/sitegest/internal/webbase"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, closer := logging.New(cfg.LogLevel, cfg.LogFile)
	defer closer.Close()
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", zap.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stats := webbase.NewStats(time.Hour)

	orch := pipeline.NewOrchestrator(cfg, stats, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		// Stop accepting requests before the queue closes.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
	}()

	log.Info("starting sitegest", zap.String("port", cfg.Port), zap.Int("workers", cfg.WorkerCount))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	<-stopped
	log.Info("stopped")
}
