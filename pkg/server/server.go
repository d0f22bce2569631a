// Package server exposes the controller flows over a local HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"xnftctl/pkg/config"
	"xnftctl/pkg/controller"
)

// Config holds the settings of the HTTP API.
type Config struct {
	Address        string
	AllowedOrigins []string
	RatePerMinute  int
	RequestTimeout time.Duration
	// TxTimeout bounds mint and transfer: broadcast plus confirmation.
	TxTimeout      time.Duration
	ExplorerTxLink func(hash string) string
}

// ConfigFromConfig builds the server settings from a loaded config.
func ConfigFromConfig(cfg *config.Config) Config {
	return Config{
		Address:        cfg.GetServerAddress(),
		AllowedOrigins: cfg.GetAllowedOrigins(),
		RatePerMinute:  cfg.GetRatePerMinute(),
		RequestTimeout: cfg.GetRequestTimeout(),
		TxTimeout:      cfg.GetRequestTimeout() + cfg.GetConfirmTimeout(),
		ExplorerTxLink: cfg.ExplorerTxLink,
	}
}

// Server wraps the HTTP server and provides lifecycle management.
type Server struct {
	config     Config
	ctrl       *controller.Controller
	log        zerolog.Logger
	httpServer *http.Server
	mux        *chi.Mux
}

// New creates the API server. metricsHandler is mounted on /metrics when non-nil.
func New(cfg Config, ctrl *controller.Controller, metricsHandler http.Handler, log zerolog.Logger) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = config.DefaultRequestTimeout
	}
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = cfg.RequestTimeout + config.DefaultConfirmTimeout
	}
	if cfg.ExplorerTxLink == nil {
		cfg.ExplorerTxLink = (*config.Config)(nil).ExplorerTxLink
	}

	s := &Server{config: cfg, ctrl: ctrl, log: log}

	mux := chi.NewMux()
	mux.Use(requestLogger(log))
	mux.Use(recoverer(log))
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	if cfg.RatePerMinute > 0 {
		mux.Use(httprate.LimitByIP(cfg.RatePerMinute, time.Minute))
	}

	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}
	mux.Get("/health", s.handleHealth)
	mux.Get("/ready", s.handleReady)

	mux.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Post("/supply", s.handleSupply)
		r.Post("/owned", s.handleOwned)
		r.Post("/mint", s.handleMint)
		r.Post("/transfer", s.handleTransfer)
		r.Route("/account", func(r chi.Router) {
			r.Post("/connect", s.handleConnect)
			r.Post("/logout", s.handleLogout)
			r.Post("/modal", s.handleModal)
		})
	})
	s.mux = mux

	s.httpServer = &http.Server{
		Addr:              cfg.Address,
		Handler:           newCORSHandler(cfg.AllowedOrigins, mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the full handler chain, CORS included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves the API until Shutdown is called. It returns nil after a
// graceful shutdown.
func (s *Server) Start() error {
	s.log.Info().
		Str("address", s.config.Address).
		Strs("allowed_origins", s.config.AllowedOrigins).
		Int("rate_per_minute", s.config.RatePerMinute).
		Msg("API server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down API server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Error().Err(err).Msg("error shutting down API server")
		return err
	}
	s.log.Info().Msg("API server stopped")
	return nil
}
