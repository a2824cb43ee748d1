package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/utils"
)

// SetupRoutes configures the ops endpoints. Everything here is unprotected
// on the assumption that the server binds to an internal interface.
func (s *Server) SetupRoutes() {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Get("/stats", s.handleStats)
	r.Handle("/metrics", promhttp.Handler())

	s.router = r
}

// handleHealth reports overall service health. The database check is
// authoritative; a Redis outage is reported but does not fail the check
// because the cache degrades to the database.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.Db.HealthCheck(r.Context()); err != nil {
		log.Error().Err(err).Msg("Health check failed")
		utils.Error(w, http.StatusServiceUnavailable, "service_unavailable", "database is not healthy")
		return
	}

	cacheStatus := "disabled"
	if s.Cache != nil {
		cacheStatus = "healthy"
		if err := s.Cache.Ping(r.Context()); err != nil {
			log.Warn().Err(err).Msg("Redis ping failed during health check")
			cacheStatus = "unreachable"
		}
	}

	utils.JSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"cache":   cacheStatus,
		"version": s.Config.App.Version,
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{
		"version":     s.Config.App.Version,
		"environment": s.Config.App.Environment,
	})
}

// handleStats exposes live pool occupancy per logical database.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"pools": s.Db.Stats(),
	})
}
