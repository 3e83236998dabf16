// Package server exposes the recommendation engine over HTTP for dashboards
// and integrations.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pourcost/topshelf/internal/cost"
	"github.com/pourcost/topshelf/internal/demand"
	"github.com/pourcost/topshelf/internal/engine"
	"github.com/pourcost/topshelf/internal/service"
)

// Config holds the HTTP server settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server serves pricing recommendations over HTTP. Engines are rebuilt per
// request from storage, so imports made while the server is running take
// effect immediately.
type Server struct {
	storage   service.Storage
	predictor demand.Predictor
	engineCfg engine.Config
	cfg       Config
	startedAt time.Time
}

// New builds a server. The predictor is optional; without one every
// recommendation uses the benchmark method.
func New(storage service.Storage, predictor demand.Predictor, engineCfg engine.Config, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig().Addr
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}
	if predictor != nil {
		// The prediction ladder serves predictor output straight to
		// clients; invalid demand must surface as an error, not as NaN
		// in a response body.
		predictor = demand.Validate(predictor)
	}
	return &Server{
		storage:   storage,
		predictor: predictor,
		engineCfg: engineCfg,
		cfg:       cfg,
		startedAt: time.Now(),
	}
}

// Routes assembles the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(timing)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/venues", s.handleVenues)
		r.Get("/products", s.handleProducts)
		r.Get("/market-analysis", s.handleMarketAnalysis)
		r.Post("/recommendations", s.handleRecommendation)
		r.Post("/bulk-recommendations", s.handleBulkRecommendations)
		r.Post("/demand-prediction", s.handleDemandPrediction)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Run serves until the context is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}
	return <-errCh
}

// loadEngine builds a fresh engine from the stored record set and cost
// configuration.
func (s *Server) loadEngine(ctx context.Context) (*engine.Engine, error) {
	records, err := s.storage.GetPriceRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load price records: %w", err)
	}

	cfg, err := s.storage.GetCostConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cost config: %w", err)
	}

	return engine.New(records, cost.NewResolver(cfg), s.predictor, s.engineCfg)
}

func timing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
