// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
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
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/starford/weekboard/internal/api"
	"github.com/starford/weekboard/internal/boardservice"
	"github.com/starford/weekboard/internal/kv"
	"github.com/starford/weekboard/internal/mcpserver"
	"github.com/starford/weekboard/internal/render"
	"github.com/starford/weekboard/internal/sse"
	"github.com/starford/weekboard/internal/watch"
	"github.com/starford/weekboard/internal/weeks"
)

// runtime is everything built from the config that the commands share.
type runtime struct {
	cfg     *Config
	logger  *slog.Logger
	store   kv.Store
	fs      *kv.FS // nil unless the file backend is used
	repo    *weeks.Repository
	closers []io.Closer
}

func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			rt.logger.Warn("close failed", slog.String("error", err.Error()))
		}
	}
}

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger builds the structured JSON logger. With a log file configured,
// entries are also written to a rotated file.
func newLogger(cfg *Config, out io.Writer) (*slog.Logger, io.Closer) {
	var closer io.Closer
	if cfg.App.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.App.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = io.MultiWriter(out, rotator)
		closer = rotator
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	return logger, closer
}

// openStore opens the configured key-value backend.
func openStore(cfg StoreConfig) (kv.Store, *kv.FS, io.Closer, error) {
	switch cfg.Backend {
	case BackendSQLite:
		db, err := kv.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return db, nil, db, nil
	case BackendFile, "":
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, nil, nil, fmt.Errorf("create store dir: %w", err)
		}
		fs, err := kv.NewFS(cfg.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("init file store: %w", err)
		}
		return fs, fs, nil, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// bootstrap sets up logging, opens the store and loads the collection.
func (a *application) bootstrap(ctx context.Context) (*runtime, error) {
	cfg := a.config
	logger, logCloser := newLogger(cfg, a.logOutput)
	slog.SetDefault(logger)

	rt := &runtime{cfg: cfg, logger: logger}
	if logCloser != nil {
		rt.closers = append(rt.closers, logCloser)
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_backend", cfg.Store.Backend),
		slog.String("store_path", cfg.Store.Path),
		slog.String("store_key", cfg.Store.Key),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, fs, closer, err := openStore(cfg.Store)
	if err != nil {
		rt.Close()
		return nil, err
	}
	if closer != nil {
		rt.closers = append(rt.closers, closer)
	}
	rt.store, rt.fs = store, fs

	rt.repo = weeks.New(store,
		weeks.WithKey(cfg.Store.Key),
		weeks.WithCount(cfg.Collection.Size),
		weeks.WithTemplate(cfg.Collection.Template()),
		weeks.WithLogger(logger),
	)
	loaded := rt.repo.Load(ctx)
	logger.Info("Weeks loaded", slog.Int("count", len(loaded)))
	return rt, nil
}

func (rt *runtime) service(pub boardservice.Publisher) *boardservice.Service {
	return boardservice.New(rt.repo, render.NewNav(rt.cfg.Nav.Sections...),
		boardservice.WithPublisher(pub),
		boardservice.WithLogger(rt.logger),
		boardservice.WithTitle(rt.cfg.App.Title),
	)
}

// newRootRouter assembles the top-level HTTP handler.
func newRootRouter(svc *boardservice.Service, broker *sse.Broker, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Server-rendered board.
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := render.HTML(w, svc.Title(), svc.Board(req.URL.Query().Get("tag"))); err != nil {
			logger.Error("render board failed", slog.String("error", err.Error()))
		}
	})

	// Mount API routes under /api; the broker serves /api/events.
	r.Mount("/api", api.NewRouter(svc, broker))
	return r
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := app.bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	logger := rt.logger
	cfg := rt.cfg

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc := rt.service(broker)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newRootRouter(svc, broker, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload on external edits of the store file.
	if cfg.Watch.Enabled && rt.fs != nil {
		g.Go(func() error {
			if err := watch.Watch(gCtx, rt.fs, rt.repo, logger, watch.DefaultDebounce, svc.Reloaded); err != nil {
				logger.Warn("watcher disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the errgroup context so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools over stdio until stdin closes.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	rt, err := app.bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	srv := mcpserver.New(rt.service(nil), app.version)
	rt.logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}
