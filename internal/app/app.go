// Package app assembles the store, the engines and the HTTP surface, and
// runs them until the context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rgdevment/urlinfo/internal/config"
	httpHandler "github.com/rgdevment/urlinfo/internal/platform/http"
	"github.com/rgdevment/urlinfo/internal/platform/http/middleware"
	"github.com/rgdevment/urlinfo/internal/platform/metrics"
	"github.com/rgdevment/urlinfo/internal/platform/storage/scylla"
	"github.com/rgdevment/urlinfo/internal/platform/storage/sqlite"
	"github.com/rgdevment/urlinfo/internal/service"
)

// OpenStore connects the adapter selected by cfg.StoreDriver.
func OpenStore(cfg config.Config, logger zerolog.Logger) (service.Repository, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		opts := []sqlite.Option{sqlite.WithMkdirAll()}
		if cfg.SQLiteCreateSchema {
			opts = append(opts, sqlite.WithSchema())
		}
		db, err := sqlite.Open(cfg.SQLitePath, opts...)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("path", cfg.SQLitePath).Msg("sqlite store opened")
		return sqlite.NewSQLiteRepository(db, cfg.StoreTimeout), nil

	case config.DriverScylla:
		session, err := scylla.Connect(cfg.ScyllaKeyspace, cfg.StoreTimeout, logger, cfg.ScyllaHosts...)
		if err != nil {
			return nil, err
		}
		return scylla.NewScyllaRepository(session, cfg.StoreTimeout), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// NewService builds the lookup and ingestion engines from cfg.
func NewService(cfg config.Config, repo service.Repository, logger zerolog.Logger) service.Service {
	return service.NewReputationService(repo, service.Options{
		APIPrefix:    cfg.APIPrefix,
		MaxURILength: cfg.MaxURILength,
		FoldDomains:  cfg.CaseInsensitiveDomains,
		Observer:     metrics.Recorder{},
	}, logger)
}

// NewRouter mounts the dispatcher behind the middleware chain. /metrics is
// served here unless a separate metrics listener is configured.
func NewRouter(cfg config.Config, svc service.Service, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger))

	if cfg.MetricsAddr == "" {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	httpHandler.NewHandler(svc, cfg.APIPrefix, cfg.InsertRoute, logger).RegisterRoutes(r)
	return r
}

// Run serves until ctx is done, then drains in-flight requests and closes
// the store.
func Run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	metrics.Register()

	repo, err := OpenStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing store")
		}
	}()

	svc := NewService(cfg, repo, logger)

	servers := []*http.Server{newServer(cfg.HTTPAddr, NewRouter(cfg, svc, logger))}
	if cfg.MetricsAddr != "" {
		mux := chi.NewRouter()
		mux.Method(http.MethodGet, "/metrics", metrics.Handler())
		servers = append(servers, newServer(cfg.MetricsAddr, mux))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			logger.Info().Str("addr", srv.Addr).Msg("listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(sctx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func newServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
