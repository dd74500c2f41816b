package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/popstat/internal/config"
	"github.com/JonMunkholm/popstat/internal/core"
	_ "github.com/JonMunkholm/popstat/internal/core/variants" // Register all variants
	"github.com/JonMunkholm/popstat/internal/indicator"
	"github.com/JonMunkholm/popstat/internal/logging"
	"github.com/JonMunkholm/popstat/internal/metrics"
	"github.com/JonMunkholm/popstat/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"source", cfg.Source.Path,
		"variant", cfg.Source.Variant,
		"pipeline_max_concurrent", cfg.Pipeline.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("configuration", "config", cfg.String())

	encoding, _ := core.ParseEncoding(cfg.Source.Encoding) // checked by config.Validate
	load := core.DefaultLoadOptions()
	load.Encoding = encoding
	load.Delimiter = cfg.Source.DelimiterRune()
	load.Quote = cfg.Source.QuoteRune()
	load.TolerateBadLines = cfg.Source.TolerateBadLines
	load.MaxSize = cfg.Source.MaxSize

	m := metrics.New()

	service, err := core.NewService(core.ServiceConfig{
		SourcePath:     cfg.Source.Path,
		DefaultVariant: cfg.Source.Variant,
		Load:           load,
		HeaderOffsets:  cfg.Source.HeaderOffsets,
		MaxConcurrent:  cfg.Pipeline.MaxConcurrent,
		MaxWait:        cfg.Pipeline.MaxWait,
	}, core.WithRecorder(m))
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	// Log registered variants
	for _, v := range service.Variants() {
		slog.Info("variant registered", "key", v.Key, "label", v.Label, "offsets", v.HeaderOffsets)
	}

	// The source is re-read on every request; a missing file is reported
	// per request rather than refusing to start.
	if _, err := os.Stat(cfg.Source.Path); err != nil {
		slog.Warn("source not readable yet", "path", cfg.Source.Path, "error", err)
	}

	client := indicator.NewClient(cfg.Indicator.BaseURL, cfg.Indicator.Timeout, indicator.WithRecorder(m))

	opts := web.Options{
		RequestTimeout:    cfg.Server.RequestTimeout,
		RateLimitEnabled:  cfg.Rate.Enabled,
		RequestsPerMinute: cfg.Rate.RequestsPerMinute,
		TrustedProxies:    cfg.Security.TrustedProxies,
		EnableCSP:         cfg.Security.EnableCSP,
	}
	if cfg.Metrics.Enabled {
		opts.Metrics = m.Handler()
	}
	server := web.NewServer(service, client, opts)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.Server.Addr(), cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
		return
	case <-ctx.Done():
	}

	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}

	// Wait for in-flight pipeline runs (with timeout)
	if status := service.LimiterStatus(); status.Active > 0 {
		slog.Info("waiting for pipeline runs to complete", "active", status.Active)
		if err := service.Drain(shutdownCtx); err != nil {
			slog.Warn("pipeline runs did not complete in time", "error", err)
		} else {
			slog.Info("all pipeline runs completed")
		}
	}

	slog.Info("server stopped")
}
