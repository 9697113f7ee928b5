// Package httptransport wires the thin HTTP layer. Handlers delegate to
// domain services; transport concerns stay isolated here.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	archivehandler "github.com/info-evry/astro-ndi-sub000/internal/archive/handler"
	"github.com/info-evry/astro-ndi-sub000/internal/platform/middleware"
	resethandler "github.com/info-evry/astro-ndi-sub000/internal/reset/handler"
)

// NewRouter assembles the public surface: the token-gated admin API plus
// metrics and liveness endpoints.
func NewRouter(
	archives *archivehandler.Handler,
	resets *resethandler.Handler,
	adminToken string,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/admin", func(admin chi.Router) {
		admin.Use(middleware.RequireAdminToken(adminToken, logger))
		admin.Use(middleware.ContentTypeJSON)
		archives.Register(admin)
		resets.Register(admin)
	})

	return r
}
