// Package api provides the HTTP server for laurels: the event-raise surface
// for host applications, the achievement authoring surface, and read
// endpoints for progress, scores, and notifications.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/laurelhq/laurels/internal/app/bus"
	"github.com/laurelhq/laurels/internal/app/engine"
	"github.com/laurelhq/laurels/internal/infra/sqlite"
)

// Version is reported by /api/version.
const Version = "0.1.0"

// Server is the laurels HTTP API server.
type Server struct {
	db         *sqlite.DB
	bus        *bus.Bus
	registry   *engine.Registry
	dispatcher *engine.Dispatcher
	engine     *engine.Engine
	ledger     *engine.Ledger
	notify     *engine.NotificationService

	metricsEnabled   bool
	maxNotifications int
	leaderboardTopN  int
}

// NewServer creates an API server over the wired engine components.
func NewServer(db *sqlite.DB, b *bus.Bus, registry *engine.Registry, dispatcher *engine.Dispatcher, eng *engine.Engine, ledger *engine.Ledger, notify *engine.NotificationService) *Server {
	return &Server{
		db:               db,
		bus:              b,
		registry:         registry,
		dispatcher:       dispatcher,
		engine:           eng,
		ledger:           ledger,
		notify:           notify,
		maxNotifications: 20,
		leaderboardTopN:  100,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetLimits overrides the notification and leaderboard page sizes.
func (s *Server) SetLimits(maxNotifications, leaderboardTopN int) {
	if maxNotifications > 0 {
		s.maxNotifications = maxNotifications
	}
	if leaderboardTopN > 0 {
		s.leaderboardTopN = leaderboardTopN
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": Version})
	})

	r.Route("/api", func(r chi.Router) {
		// Host integration: raise an event occurrence
		r.Post("/events/{name}", s.handleRaiseEvent)
		r.Get("/events", s.handleListEvents)

		// Achievement authoring
		r.Get("/achievements", s.handleListAchievements)
		r.Post("/achievements", s.handleCreateAchievement)
		r.Get("/achievements/{id}", s.handleGetAchievement)
		r.Post("/achievements/{id}/publish", s.handlePublishAchievement)
		r.Delete("/achievements/{id}", s.handleTrashAchievement)
		r.Post("/achievements/{id}/award", s.handleAwardAchievement)

		// Per-user views
		r.Get("/users/{id}/progress", s.handleUserProgress)
		r.Get("/users/{id}/score", s.handleUserScore)
		r.Get("/users/{id}/notifications", s.handleUserNotifications)
		r.Post("/notifications/{id}/seen", s.handleNotificationSeen)

		r.Get("/leaderboard", s.handleLeaderboard)
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    "error",
		},
	})
}
