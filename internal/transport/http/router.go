// Package httptransport assembles the HTTP API: the shared middleware chain,
// the authenticated domain routes, and the operational endpoints.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bloodline/internal/platform/middleware"
)

// Registrar is implemented by every domain handler.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires the middleware chain and mounts all handlers. Operational
// endpoints sit outside the auth group so probes and scrapers need no token.
func NewRouter(logger *slog.Logger, validator middleware.ActorValidator, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(gr chi.Router) {
		gr.Use(middleware.RequireActor(validator, logger))
		for _, h := range handlers {
			h.Register(gr)
		}
	})

	return r
}
