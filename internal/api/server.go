// Package api provides the localhost HTTP server for Foundation.
// It exposes the tracker as a small JSON API for a local UI.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/foundation-app/foundation/internal/app/tracker"
	"github.com/foundation-app/foundation/internal/infra/calendar"
)

// Server is the Foundation HTTP API server.
type Server struct {
	tracker        *tracker.Tracker
	feed           *calendar.Feed
	log            zerolog.Logger
	metricsEnabled bool
	origins        []string
}

// NewServer creates a new API server. feed may be nil when the calendar
// panel is disabled.
func NewServer(t *tracker.Tracker, feed *calendar.Feed, log zerolog.Logger) *Server {
	return &Server{
		tracker: t,
		feed:    feed,
		log:     log.With().Str("component", "api").Logger(),
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetAllowedOrigins restricts CORS. Empty allows any origin.
func (s *Server) SetAllowedOrigins(origins []string) { s.origins = origins }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(requestID)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}).Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", s.handleDashboard)

		r.Route("/credits", func(r chi.Router) {
			r.Post("/session", s.handleSession)
			r.Post("/correct", s.handleCorrect)
			r.Get("/history", s.handleHistory)
		})

		r.Get("/subjects", s.handleSubjects)
		r.Get("/subjects/{id}/grades", s.handleListGrades)
		r.Post("/subjects/{id}/grades", s.handleRecordGrade)
		r.Get("/grades/options", s.handleGradeOptions)
		r.Delete("/grades/{id}", s.handleDeleteGrade)

		r.Route("/rewards", func(r chi.Router) {
			r.Get("/", s.handleListRewards)
			r.Post("/", s.handleAddReward)
			r.Delete("/{id}", s.handleRemoveReward)
			r.Post("/{id}/pin", s.handlePinReward)
			r.Post("/{id}/redeem", s.handleRedeem)
		})

		r.Get("/calendar/events", s.handleCalendarEvents)
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    kind,
		},
	})
}
