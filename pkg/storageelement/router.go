package storageelement

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/artstore/artstore/pkg/httpapi"
	"github.com/artstore/artstore/pkg/metrics"
	"github.com/artstore/artstore/pkg/ratelimit"
	"github.com/artstore/artstore/pkg/unifiedjwt"
)

// NewRouter builds the storage-element's HTTP surface.
//
// Routes:
//   - GET  /health/live, /health/ready      - liveness/readiness probes
//   - GET  /metrics                         - Prometheus scrape endpoint
//   - POST /api/v1/files/upload             - atomic write protocol entry point
//   - GET  /api/v1/files/{file_id}          - attr.json metadata
//   - GET  /api/v1/files/{file_id}/download - RFC-7233 range/conditional download
//   - DELETE /api/v1/files/{file_id}        - delete
//   - GET  /api/v1/mode                     - current mode + transition history
//   - POST /api/v1/mode                     - RW->RO or RO->AR transition
//   - GET  /api/v1/mode/matrix               - full mode/operation permission table
//   - GET  /api/v1/mode/history              - transition history only
//   - POST /api/v1/mode/validate             - dry-run a transition without committing it
//   - GET  /api/v1/cache/consistency        - dry-run drift report
//   - POST /api/v1/cache/rebuild            - full rebuild from attr.json tree
//   - POST /api/v1/cache/rebuild/incremental
//   - POST /api/v1/cache/cleanup-expired
func NewRouter(svc *Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpapi.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute)) // large uploads/downloads run long

	limiter := ratelimit.New(svc.Redis)

	h := NewHandler(svc)

	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(unifiedjwt.Auth(svc.JWT))
		r.Use(ratelimit.Middleware(limiter, unifiedjwt.ServiceAccountClaims))

		r.Route("/files", func(r chi.Router) {
			r.Post("/upload", h.Upload)
			r.Get("/{file_id}", h.Get)
			r.Get("/{file_id}/download", h.Download)
			r.Delete("/{file_id}", h.Delete)
		})

		r.Route("/mode", func(r chi.Router) {
			r.Get("/", h.GetMode)
			r.Get("/matrix", h.ModeMatrix)
			r.Get("/history", h.ModeHistory)
			r.With(unifiedjwt.RequireRole("SUPER_ADMIN", "ADMIN")).Post("/", h.TransitionMode)
			r.With(unifiedjwt.RequireRole("SUPER_ADMIN", "ADMIN")).Post("/validate", h.ValidateModeTransition)
		})

		r.Route("/cache", func(r chi.Router) {
			r.Use(unifiedjwt.RequireRole("SUPER_ADMIN", "ADMIN"))
			r.Get("/consistency", h.ConsistencyCheck)
			r.Post("/rebuild", h.RebuildFull)
			r.Post("/rebuild/incremental", h.RebuildIncremental)
			r.Post("/cleanup-expired", h.CleanupExpired)
		})
	})

	return r
}
