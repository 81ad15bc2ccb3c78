// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// domain services, and encode; business rules stay in the services.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"brandgov/pkg/platform/httputil"
)

// Services groups the domain services the router exposes.
type Services struct {
	Manuals    ManualsService
	Assets     AssetsService
	Governance GovernanceService
}

// Handler wires HTTP endpoints to domain services.
type Handler struct {
	services Services
	logger   *slog.Logger
}

func NewHandler(services Services, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{services: services, logger: logger}
}

// NewRouter mounts all endpoints with the shared middleware chain.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestContext)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/manuals", func(r chi.Router) {
		r.Post("/", h.handleCreateManual)
		r.Get("/", h.handleListManuals)
		r.Get("/{manualID}", h.handleGetManual)
	})

	r.Route("/assets", func(r chi.Router) {
		r.Post("/generate", h.handleGenerateAsset)
		r.Get("/", h.handleListAssets)
		r.Get("/history", h.handleAssetHistory)
		r.Route("/{assetID}", func(r chi.Router) {
			r.Get("/", h.handleGetAsset)
			r.Get("/journey", h.handleAssetJourney)
			r.Post("/review-a", h.handleReviewStageA)
			r.Post("/review-b", h.handleReviewStageB)
			r.Post("/audit", h.handleAuditWithImage)
			r.Get("/audits", h.handleListAudits)
		})
	})

	return r
}
