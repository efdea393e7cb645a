// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/recents/internal/api"
	"github.com/starford/recents/internal/checksum"
	"github.com/starford/recents/internal/mcpserver"
	"github.com/starford/recents/internal/metrics"
	"github.com/starford/recents/internal/models"
	"github.com/starford/recents/internal/query"
	"github.com/starford/recents/internal/recents"
	"github.com/starford/recents/internal/recentservice"
	"github.com/starford/recents/internal/scanner"
	"github.com/starford/recents/internal/shortcut"
	"github.com/starford/recents/internal/sse"
	"github.com/starford/recents/internal/storage"
)

func setup(opts []Option) (*application, *slog.Logger, error) {
	app := &application{logWriter: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logWriter, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return app, logger, nil
}

// openSource builds the pointer directory provider and its resolver. When
// create is set a missing directory is created.
func openSource(cfg *Config, create bool) (*storage.FS, shortcut.Resolver, error) {
	if create {
		if err := os.MkdirAll(cfg.Source.Path, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create source dir: %w", err)
		}
	}
	store, err := storage.NewFS(cfg.Source.Path, cfg.Source.Pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}
	resolver, err := shortcut.New(cfg.Source.Resolver)
	if err != nil {
		return nil, nil, fmt.Errorf("init resolver: %w", err)
	}
	return store, resolver, nil
}

func newCache(cfg *Config, store *storage.FS, resolver shortcut.Resolver, logger *slog.Logger) *recents.Cache {
	return recents.New(store, resolver, recents.Options{
		MaxItems: cfg.Recents.MaxItems,
		Debounce: cfg.Recents.Debounce,
		Watch:    cfg.Recents.Watch,
		Logger:   logger,
	})
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("source_path", cfg.Source.Path),
		slog.String("source_pattern", cfg.Source.Pattern),
		slog.String("resolver", cfg.Source.Resolver),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, resolver, err := openSource(cfg, true)
	if err != nil {
		return err
	}

	// SSE broker.
	broker := sse.NewBroker(cfg.Events.Throttle, cfg.Events.Keepalive)
	defer broker.Close()

	cache := newCache(cfg, store, resolver, logger)
	defer cache.Close()
	cache.OnChange(func(s models.Snapshot) {
		broker.PublishChanged(len(s), checksum.Snapshot(s))
	})
	cache.OnReady(func() {
		logger.Info("Recent items ready", slog.Int("count", len(cache.Snapshot())))
		broker.PublishReady()
	})

	// Build service and routers.
	svc := recentservice.New(cache, query.Options{PageSize: cfg.Query.PageSize, IsDir: store.IsDir}, logger)
	defer svc.Close()
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Mount("/health", api.NewHealthRouter(svc))

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	if cfg.Metrics.Enabled {
		r.Handle("/metrics", metrics.Handler())
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// SSE streams only end when the broker closes them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// Scan performs a single scan of the pointer directory and writes the
// snapshot to w as JSON.
func Scan(ctx context.Context, w io.Writer, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	store, resolver, err := openSource(cfg, false)
	if err != nil {
		return err
	}
	snap, err := scanner.New(store, resolver, logger).Scan(ctx, cfg.Recents.MaxItems)
	if err != nil {
		return fmt.Errorf("scan %s: %w", store.Root(), err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// ServeMCP serves the MCP tools over stdio until stdin is closed.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	store, resolver, err := openSource(cfg, false)
	if err != nil {
		return err
	}
	cache := newCache(cfg, store, resolver, logger)
	defer cache.Close()

	if !cache.WaitForInitialLoad(ctx, 10*time.Second) {
		logger.Warn("Initial load still running, serving partial results")
	}

	svc := recentservice.New(cache, query.Options{PageSize: cfg.Query.PageSize, IsDir: store.IsDir}, logger)
	defer svc.Close()

	logger.Info("MCP server starting on stdio", slog.String("source_path", cfg.Source.Path))
	return mcpserver.New(svc).ServeStdio()
}
