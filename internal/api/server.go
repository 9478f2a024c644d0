// Package api provides the HTTP server for NestEgg: portfolio CRUD, the
// balance-update endpoints the reconciliation engine submits through, and a
// live submission-progress SSE feed.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nestegg-app/nestegg/internal/infra/observability"
	"github.com/nestegg-app/nestegg/internal/infra/sqlite"
)

// Version is the served API version string.
const Version = "0.1.0"

// Server is the NestEgg HTTP API server.
type Server struct {
	db             *sqlite.DB
	metricsEnabled bool
	progressHub    *ProgressHub
}

// NewServer creates a new API server over the portfolio database.
func NewServer(db *sqlite.DB) *Server {
	return &Server{db: db, progressHub: NewProgressHub()}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// ProgressHub returns the live progress hub (for broadcasting events).
func (s *Server) ProgressHub() *ProgressHub { return s.progressHub }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)
	r.Use(metricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": Version,
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/accounts", s.handleListAccounts)
		r.Post("/accounts", s.handleCreateAccount)
		r.Delete("/accounts/{id}", s.handleDeleteAccount)

		r.Get("/positions", s.handleListPositions)
		r.Post("/positions", s.handleCreatePosition)
		r.Delete("/positions/{id}", s.handleDeletePosition)
		r.Put("/positions/{id}", s.handleUpdateQuantity)
		r.Put("/positions/{id}/cash", s.handleUpdateCash)

		r.Get("/liabilities", s.handleListLiabilities)
		r.Post("/liabilities", s.handleCreateLiability)
		r.Delete("/liabilities/{id}", s.handleDeleteLiability)
		r.Put("/liabilities/{id}/balance", s.handleUpdateLiabilityBalance)

		r.Get("/otherassets", s.handleListOtherAssets)
		r.Post("/otherassets", s.handleCreateOtherAsset)
		r.Delete("/otherassets/{id}", s.handleDeleteOtherAsset)
		r.Put("/otherassets/{id}/value", s.handleUpdateOtherAssetValue)

		r.Post("/refresh", s.handleRefresh)
		r.Get("/networth", s.handleNetWorth)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/api/progress/live", s.progressHub.HandleProgressSSE)

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// metricsMiddleware records request count and latency per chi route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.ObserveRequest(r.Method, route, status, time.Since(start))
	})
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
