// Package api serves the operational HTTP surface of the worker process.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agri-advisor/internal/catalog"
	"agri-advisor/internal/common/logger"
)

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

type HealthStatuser interface {
	Status(ctx context.Context, slug string) catalog.HealthStatus
}

type Deps struct {
	// Checks are run by /ready, keyed by dependency name.
	Checks  map[string]Check
	Servers HealthStatuser
	Logger  logger.Logger
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(withRequestLogging(deps.Logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", readyHandler(deps.Checks))
	r.Handle("/metrics", promhttp.Handler())

	if deps.Servers != nil {
		r.Get("/servers/{slug}/health", func(w http.ResponseWriter, r *http.Request) {
			slug := chi.URLParam(r, "slug")
			writeJSON(w, http.StatusOK, map[string]string{
				"slug":   slug,
				"status": string(deps.Servers.Status(r.Context(), slug)),
			})
		})
	}
	return r
}

func readyHandler(checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		writeJSON(w, status, map[string]interface{}{"ready": status == http.StatusOK, "checks": results})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func withRequestLogging(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}
			log.Debug("http request", map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     status,
				"durationMs": time.Since(start).Milliseconds(),
			})
		})
	}
}
