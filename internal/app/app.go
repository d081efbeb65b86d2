// Package app wires the service together and owns its lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campsight/internal/api"
	"campsight/internal/campaign"
	"campsight/internal/config"
	"campsight/internal/content"
	"campsight/internal/history"
	"campsight/internal/insights"
	"campsight/internal/metrics"
	"campsight/internal/themes"
	"campsight/internal/upstream"
)

// App is the main application
type App struct {
	config        *config.Config
	logger        *slog.Logger
	metrics       *metrics.Metrics
	metricsServer *metrics.Server
	history       *history.Store
	apiServer     *api.Server
	version       string
}

// New creates a new application
func New(cfg *config.Config, version string) (*App, error) {
	logger := SetupLogger(cfg.Logging)

	var m *metrics.Metrics
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metricsServer = metrics.NewServer(m, cfg.Metrics.ListenAddr, cfg.Metrics.Path, logger)
	}

	var hist *history.Store
	if cfg.History.Enabled {
		var err error
		hist, err = history.Open(cfg.History.Path, cfg.History.MaxEntries)
		if err != nil {
			return nil, fmt.Errorf("failed to open search history: %w", err)
		}
		logger.Info("search history enabled", "path", cfg.History.Path)
	}

	pipeline := NewPipeline(cfg, logger, m)
	apiServer := api.NewServer(pipeline, hist, &cfg.API, logger, m, version)

	return &App{
		config:        cfg,
		logger:        logger,
		metrics:       m,
		metricsServer: metricsServer,
		history:       hist,
		apiServer:     apiServer,
		version:       version,
	}, nil
}

// NewPipeline builds the search pipeline from configuration. Shared by
// the server and the one-shot CLI search command.
func NewPipeline(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *insights.Pipeline {
	client := upstream.NewClient(cfg.Upstream, logger, m)
	resolver := campaign.NewResolver(client, logger)
	analyzer := content.NewAnalyzer(client, logger, m)
	extractor := themes.New(cfg.Themes.StopWords, cfg.Themes.BannedSubstrings, cfg.Themes.MaxThemes)

	return insights.New(client, resolver, analyzer, extractor, insights.Options{
		DefaultDays:  cfg.Search.DefaultDays,
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxLimit:     cfg.Search.MaxLimit,
		Workers:      cfg.Search.Workers,
	}, logger, m)
}

// Run starts the servers and blocks until a shutdown signal or a server
// error.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("starting campsight",
		"hostname", a.config.Server.Hostname,
		"api_addr", a.config.API.ListenAddr,
		"upstream", a.config.Upstream.BaseURL,
	)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 2)

	go func() {
		if err := a.apiServer.ListenAndServe(); err != nil {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	if a.metricsServer != nil {
		go func() {
			if err := a.metricsServer.ListenAndServe(); err != nil {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.logger.Error("server error", "error", err)
		cancel()
	}

	return a.Shutdown(context.Background())
}

// Shutdown gracefully stops the servers and closes storage
func (a *App) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := a.apiServer.Shutdown(ctx); err != nil {
		a.logger.Error("api server shutdown failed", "error", err)
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.logger.Error("metrics server shutdown failed", "error", err)
		}
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Error("history close failed", "error", err)
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}

// SetupLogger creates a logger based on configuration
func SetupLogger(cfg config.LoggingConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
