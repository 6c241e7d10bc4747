package ingester

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

// NewRouter builds the ingester's HTTP surface.
//
// Routes:
//   - GET  /health/live, /health/ready - liveness/readiness probes
//   - GET  /metrics                    - Prometheus scrape endpoint
//   - POST /api/v1/upload              - select a storage element, stream
//     the upload through, and register the result with the admin-module
func NewRouter(svc *Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpapi.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute)) // proxied uploads run long

	limiter := ratelimit.New(svc.Redis)

	h := NewHandler(svc)

	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(unifiedjwt.Auth(svc.JWT))
		r.Use(ratelimit.Middleware(limiter, unifiedjwt.ServiceAccountClaims))
		r.Post("/upload", h.Upload)
	})

	return r
}
