// ABOUTME: Entry point for wa-relay
// ABOUTME: Wires config, store, mail, notifier, session controller and HTTP API together

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/wa-relay/internal/config"
	"github.com/2389/wa-relay/internal/httpapi"
	"github.com/2389/wa-relay/internal/mail"
	"github.com/2389/wa-relay/internal/notify"
	"github.com/2389/wa-relay/internal/resolver"
	"github.com/2389/wa-relay/internal/session"
	"github.com/2389/wa-relay/internal/store"
	"github.com/2389/wa-relay/internal/wa/meow"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", os.Getenv("WA_RELAY_CONFIG"), "path to YAML config (optional, env-only without it)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("  ▶ ")
	fmt.Printf("Port:        %s\n", cfg.Server.Port)
	green.Print("  ▶ ")
	fmt.Printf("Destination: %s\n", destinationLabel(cfg))
	if cfg.Email.To != "" {
		green.Print("  ▶ ")
		fmt.Printf("QR email:    %s\n", cfg.Email.To)
	}

	auditStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening audit store: %w", err)
	}
	defer auditStore.Close()

	var mailer notify.Mailer
	if cfg.Email.To != "" {
		mailer = mail.New(cfg.Email.APIKey, cfg.Email.From, logger)
	}
	notifier := notify.New(mailer, cfg.Email.To, logger)

	cache := resolver.NewCache()
	controller := session.New(session.Config{
		Factory:  meow.NewFactory(cfg.Session.StorePath, logger),
		Resolver: resolver.New(cache, logger, cfg.Debug),
		Cache:    cache,
		Notifier: notifier,
		DefaultDestination: resolver.Destination{
			Name: cfg.Destination.Name,
			ID:   cfg.Destination.ID,
		},
		Delays: session.Delays{
			Restart:        cfg.Session.RestartDelay,
			TransientRetry: cfg.Session.TransientRetryDelay,
			Retry:          cfg.Session.RetryDelay,
		},
		Logger: logger,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting WhatsApp bot")
	if err := controller.Start(ctx); err != nil {
		return fmt.Errorf("starting session controller: %w", err)
	}
	defer controller.Stop()

	server := httpapi.New(cfg.Server.Addr(), controller, auditStore, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error shutting down HTTP server", "error", err)
	}
	return nil
}

func destinationLabel(cfg *config.Config) string {
	if cfg.Destination.ID != "" {
		return cfg.Destination.ID
	}
	if cfg.Destination.Name != "" {
		return cfg.Destination.Name
	}
	return "(none)"
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
