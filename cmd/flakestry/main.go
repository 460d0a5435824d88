package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/flakestry/pkg/api"
	"github.com/platinummonkey/flakestry/pkg/config"
	"github.com/platinummonkey/flakestry/pkg/observability"
	"github.com/platinummonkey/flakestry/pkg/registry"
	"github.com/platinummonkey/flakestry/pkg/search"
	"github.com/platinummonkey/flakestry/pkg/storage/postgres"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).
			WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	ctx := context.Background()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("Service exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *observability.Logger) error {
	// Tracing (optional)
	tracerProvider, err := observability.InitTracing(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return err
	}

	// Metrics
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	// PostgreSQL connection pool, one per process, passed down explicitly
	db, err := postgres.Open(postgres.ConnectionConfig{
		URL:         cfg.Database.URL,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		Timeout:     cfg.Database.ConnTimeout,
		MaxLifetime: cfg.Database.MaxLifetime,
		MaxIdleTime: cfg.Database.MaxIdleTime,
	})
	if err != nil {
		return err
	}
	logger.Infof("Connected to PostgreSQL (max %d conns)", cfg.Database.MaxConns)

	// OpenSearch client and index bootstrap (create-if-absent, idempotent)
	osClient, err := search.NewClient(cfg.Search.URL)
	if err != nil {
		return err
	}
	searchService := search.NewService(osClient, cfg.Search.Index, metrics)
	if err := searchService.EnsureIndex(ctx); err != nil {
		// The index is ensured again implicitly on first write; a cold
		// search engine at boot should not keep the API down.
		logger.WithError(err).Warn("Failed to ensure search index at startup")
	}

	// Wire the request path: store + searcher -> orchestrator -> handlers
	store := postgres.NewReleaseStore(db, metrics)
	service := registry.NewService(store, searchService)
	handler := api.NewHandler(api.NewHandlers(service), logger, metrics)

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics on a separate port for probes/scrapes
	healthMux := http.NewServeMux()
	observability.NewHealthChecker(db, searchService).RegisterRoutes(healthMux)
	if metrics != nil {
		healthMux.Handle("/metrics", metrics.Handler())
		metrics.StartDBStatsCollector(ctx, db, 0)
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)
	shutdown.Register(apiServer.Shutdown)
	shutdown.Register(healthServer.Shutdown)
	shutdown.Register(func(context.Context) error { return db.Close() })
	if tracerProvider != nil {
		shutdown.Register(tracerProvider.Shutdown)
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Listening on %s", apiServer.Addr)
		if err := apiServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Infof("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		shutdown.Wait()
		return nil
	})

	return g.Wait()
}
