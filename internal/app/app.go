// Package app wires configuration, storage, blob storage, backups and the
// HTTP API into a running kennel server.
package app

import (
	"context"
	"errors"
	"expvar"
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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"kennelcore/internal/api"
	"kennelcore/internal/backups"
	"kennelcore/internal/blob"
	"kennelcore/internal/config"
	"kennelcore/internal/core"
)

const auditLimit = 1000

// Option configures Run.
type Option func(*application)

type application struct {
	config   *config.Config
	registry *prometheus.Registry
}

// WithConfig sets the configuration. It is required.
func WithConfig(cfg *config.Config) Option {
	return func(a *application) { a.config = cfg }
}

// WithRegistry registers metrics on reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(a *application) { a.registry = reg }
}

// NewLogger returns the JSON logger used by the server and the CLI.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// OpenService opens the blob store and the configured storage backend and
// builds the service over them.
func OpenService(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...core.Option) (*core.Service, error) {
	blobs, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	base := []core.Option{core.WithLogger(logger), core.WithBlobStore(blobs)}
	svc, err := core.Open(cfg.Storage, logger, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return svc, nil
}

// Run starts the HTTP server and the backup worker and blocks until ctx is
// cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	a := &application{}
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := a.config
	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	logger := NewLogger(os.Stdout, cfg.App.LogLevel)
	slog.SetDefault(logger)
	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", string(cfg.Storage.Driver)),
		slog.String("blob_driver", string(cfg.Blob.Driver)),
		slog.Duration("backup_interval", cfg.Backups.Interval),
		slog.String("log_level", cfg.App.LogLevel.String()))

	prom, err := core.NewPrometheusMetricsRecorder(a.registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	svcOpts := []core.Option{
		core.WithMetricsRecorder(core.MultiMetricsRecorder{prom, core.NewExpvarMetricsRecorder("")}),
		core.WithAuditRecorder(core.NewMemoryAuditRecorder(auditLimit)),
	}
	if cfg.App.LogLevel <= slog.LevelDebug {
		svcOpts = append(svcOpts, core.WithTracer(core.NewJSONTracer(os.Stderr)))
	}
	svc, err := OpenService(ctx, cfg, logger, svcOpts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("close storage", slog.String("error", err.Error()))
		}
	}()

	worker := backups.NewWorker(svc, svc.Blobs(),
		backups.WithLogger(logger),
		backups.WithAuditLogger(backups.LogAudit{Logger: logger}),
	)
	worker.Start()

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
		r.Handle("/debug/vars", expvar.Handler())
	}
	r.Mount("/", api.NewRouter(svc, api.WithBackups(worker)))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	if cfg.Backups.Interval > 0 {
		g.Go(func() error {
			scheduleBackups(gCtx, worker, cfg.Backups.Interval, logger)
			return nil
		})
	}

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.HTTP.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		if err := worker.Stop(shutdownCtx); err != nil {
			logger.Error("backup worker shutdown error", slog.String("error", err.Error()))
		}
		stop()
		logger.Info("Server stopped")
		return nil
	})

	return g.Wait()
}

func scheduleBackups(ctx context.Context, worker *backups.Worker, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := worker.Enqueue(ctx, backups.Request{RequestedBy: "scheduler", Reason: "periodic"})
			if err != nil {
				logger.Warn("scheduled backup not queued", slog.String("error", err.Error()))
				continue
			}
			logger.Debug("scheduled backup queued", slog.String("job_id", job.ID))
		}
	}
}
