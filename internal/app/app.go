// Package app initializes and holds long-lived application services, acting
// as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/civicgrid/planportal-crawler/internal/config"
	"github.com/civicgrid/planportal-crawler/internal/logging"
	"github.com/civicgrid/planportal-crawler/internal/storage"
	"github.com/civicgrid/planportal-crawler/internal/storage/gcs"
	"github.com/civicgrid/planportal-crawler/internal/storage/memory"
	"github.com/civicgrid/planportal-crawler/internal/store"
)

// App holds the shared, long-lived services for the crawler. It is built
// once at startup from the loaded configuration and passed to the commands
// that need it, failing fast if any backing service cannot be reached.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	store    store.Store
	blobs    storage.Provider
	registry *prometheus.Registry
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the shared zap logger instance.
func (a *App) Logger() *zap.Logger { return a.logger }

// Store provides access to the case record store.
func (a *App) Store() store.Store { return a.store }

// Blobs exposes the configured blob storage provider.
func (a *App) Blobs() storage.Provider { return a.blobs }

// Registry returns the Prometheus registry shared by the app's collectors.
func (a *App) Registry() *prometheus.Registry { return a.registry }

// New creates and initializes the App container from the given configuration.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	l := logging.L
	l.Info("initializing application services")

	var blobs storage.Provider
	var err error
	switch cfg.Storage.Provider {
	case "gcs":
		l.Info("using gcs blob storage", zap.String("bucket", cfg.Storage.GCSBucket))
		blobs, err = gcs.New(ctx, gcs.Config{Bucket: cfg.Storage.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("initialize blob storage: %w", err)
		}
	case "memory":
		l.Info("using in-memory blob storage, uploads are not persisted")
		blobs = memory.NewBlobStore()
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Storage.Provider)
	}

	var st store.Store
	switch cfg.Store.Provider {
	case "mongo":
		l.Info("connecting to mongodb", zap.String("database", cfg.Store.Database))
		st, err = store.NewMongoStore(ctx, store.MongoConfig{
			URI:        cfg.Store.URI,
			Database:   cfg.Store.Database,
			Collection: cfg.Store.Collection,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize store: %w", err)
		}
	case "memory":
		l.Info("using in-memory store, records are not persisted")
		st = store.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown store provider: %s", cfg.Store.Provider)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if cfg.Metrics.Enabled {
		go serveMetrics(l, cfg.Metrics.Addr, registry)
	}

	l.Info("application services initialized")
	return &App{
		cfg:      cfg,
		logger:   l,
		store:    st,
		blobs:    blobs,
		registry: registry,
	}, nil
}

func serveMetrics(l *zap.Logger, addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	l.Info("starting metrics server", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		l.Error("metrics server failed", zap.Error(err))
	}
}

// Close gracefully shuts down the container's services. It is called by a
// Cobra hook after the command finishes execution.
func (a *App) Close(ctx context.Context) {
	a.logger.Info("shutting down application services")
	if err := a.store.Close(ctx); err != nil {
		a.logger.Warn("error closing store", zap.Error(err))
	}
	// Flush buffered log entries; best effort, stderr sync may fail.
	_ = a.logger.Sync()
}
