// Package server provides the operational HTTP endpoints for the bot:
// health, pool statistics and Prometheus metrics. It handles routing and
// server lifecycle management including graceful shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/cache"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/config"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/database"
)

// Server represents the ops HTTP server. It does not serve user traffic;
// the bot talks to Telegram, the server talks to operators.
type Server struct {
	Config *config.AppConfig
	Db     *database.Manager
	Cache  *cache.RedisCache

	router     chi.Router
	httpServer *http.Server
}

// NewServer creates a new ops server over an already-connected database
// manager. The cache may be nil when Redis is not configured.
func NewServer(cfg *config.AppConfig, db *database.Manager, redisCache *cache.RedisCache) *Server {
	s := &Server{
		Config: cfg,
		Db:     db,
		Cache:  redisCache,
	}

	s.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Server.ServerAddress(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  constants.DefaultIdleTimeout,
	}

	return s
}

// Start starts the HTTP server and blocks until a server error or a
// shutdown signal (SIGINT, SIGTERM) arrives.
func (s *Server) Start() error {
	serverErrors := make(chan error, 1)

	go func() {
		log.Info().
			Str("address", s.Config.Server.ServerAddress()).
			Msg("Starting ops server")

		serverErrors <- s.httpServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info().
			Str("signal", sig.String()).
			Msg("Shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), s.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := s.Shutdown(ctx); err != nil {
			if closeErr := s.httpServer.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the server, then the cache client, then the
// database pools. In-flight requests complete before connections close.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	log.Info().Msg("Ops server stopped gracefully")

	if s.Cache != nil {
		if err := s.Cache.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis client during shutdown")
		}
	}

	s.Db.Close()

	return nil
}
