package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blackmichael/bluesense/internal/app"
	"github.com/blackmichael/bluesense/internal/config"
	"github.com/blackmichael/bluesense/internal/events"
	"github.com/blackmichael/bluesense/internal/httpserver"
	"github.com/blackmichael/bluesense/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ingestor, err := app.NewIngestor(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// Analysis events are optional
	var notifier httpserver.Notifier
	if cfg.NATS.URL != "" {
		nc, err := events.Connect(cfg.NATS.URL, logger)
		if err != nil {
			return err
		}
		defer nc.Drain()

		publisher := events.NewPublisher(nc, cfg.NATS.SubjectPrefix)
		notifier = publisher
		logger.Info("publishing analysis events", "subject", publisher.Subject())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	server := httpserver.NewServer(cfg, ingestor, notifier, logger)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server exited with error", "error", err)
			sigCh <- syscall.SIGTERM
		}
	}()

	logger.Info("server started",
		"port", cfg.Port,
		"analysis_limit", cfg.Analysis.Limit,
		"scoring_concurrency", cfg.Analysis.Concurrency,
	)

	// Wait for shutdown signal
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down http server", "error", err)
	}

	return nil
}
