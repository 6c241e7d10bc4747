package adminmodule

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

// NewRouter builds the admin-module's HTTP surface: unauthenticated health
// and auth endpoints, and role-gated CRUD for storage elements, service
// accounts, and the file registry.
//
// Routes:
//   - GET  /health                        - liveness probe
//   - GET  /metrics                       - Prometheus scrape endpoint
//   - POST /api/v1/auth/login             - admin-user login
//   - POST /api/v1/auth/token             - OAuth2 client-credentials/refresh grants
//   - GET  /api/v1/auth/me                - current caller's claims
//   - POST /api/v1/users/me/password      - change own admin-user password
//   - /api/v1/storage-elements/*          - storage element registry (admin only)
//   - /api/v1/service-accounts/*          - service account registry (admin only)
//   - /api/v1/admin-users/*               - admin user registry (super-admin for mutations)
//   - /api/v1/jwt-keys/{status,rotate}    - signing key status + manual rotation
//   - /api/v1/files/*                     - file registry (admin + readonly)
//   - /api/v1/settings/*                  - runtime settings (super-admin for mutations)
func NewRouter(svc *Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpapi.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	limiter := ratelimit.New(svc.Redis)
	rl := ratelimit.Middleware(limiter, unifiedjwt.ServiceAccountClaims)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpapi.WriteJSONOK(w, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	authHandler := NewAuthHandler(svc)
	seHandler := NewStorageElementHandler(svc)
	saHandler := NewServiceAccountHandler(svc)
	fileHandler := NewFileHandler(svc)
	auHandler := NewAdminUserHandler(svc)
	jwtKeyHandler := NewJWTKeyHandler(svc)
	settingHandler := NewSettingHandler(svc)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/token", authHandler.Token)
			r.With(unifiedjwt.Auth(svc.JWT), rl).Get("/me", authHandler.Me)
		})

		r.With(unifiedjwt.Auth(svc.JWT), rl).Post("/users/me/password", authHandler.ChangePassword)

		r.Route("/storage-elements", func(r chi.Router) {
			r.Use(unifiedjwt.Auth(svc.JWT))
			r.Use(rl)
			r.Use(unifiedjwt.RequireRole(string(RoleSuperAdmin), string(RoleAdmin)))
			r.Get("/", seHandler.List)
			r.Post("/", seHandler.Create)
			r.Get("/{id}", seHandler.Get)
			r.Patch("/{id}", seHandler.Update)
			r.Post("/{id}/mode", seHandler.TransitionMode)
			r.Delete("/{id}", seHandler.Delete)
		})

		r.Route("/service-accounts", func(r chi.Router) {
			r.Use(unifiedjwt.Auth(svc.JWT))
			r.Use(rl)
			r.Use(unifiedjwt.RequireRole(string(RoleSuperAdmin), string(RoleAdmin)))
			r.Get("/", saHandler.List)
			r.Post("/", saHandler.Create)
			r.Get("/{id}", saHandler.Get)
			r.Post("/{id}/status", saHandler.UpdateStatus)
			r.Post("/{id}/rotate-secret", saHandler.RotateSecret)
			r.Delete("/{id}", saHandler.Delete)
		})

		r.Route("/admin-users", func(r chi.Router) {
			r.Use(unifiedjwt.Auth(svc.JWT))
			r.Use(rl)
			r.Use(unifiedjwt.RequireRole(string(RoleSuperAdmin), string(RoleAdmin)))
			r.Get("/", auHandler.List)
			r.Get("/{id}", auHandler.Get)
			r.With(unifiedjwt.RequireRole(string(RoleSuperAdmin))).Post("/", auHandler.Create)
			r.With(unifiedjwt.RequireRole(string(RoleSuperAdmin))).Post("/{id}/reset-password", auHandler.ResetPassword)
			r.With(unifiedjwt.RequireRole(string(RoleSuperAdmin))).Delete("/{id}", auHandler.Delete)
		})

		r.Route("/jwt-keys", func(r chi.Router) {
			r.Use(unifiedjwt.Auth(svc.JWT))
			r.Use(rl)
			r.Use(unifiedjwt.RequireRole(string(RoleSuperAdmin), string(RoleAdmin)))
			r.Get("/status", jwtKeyHandler.Status)
			r.With(unifiedjwt.RequireRole(string(RoleSuperAdmin))).Post("/rotate", jwtKeyHandler.Rotate)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Use(unifiedjwt.Auth(svc.JWT))
			r.Use(rl)
			r.Use(unifiedjwt.RequireRole(string(RoleSuperAdmin), string(RoleAdmin)))
			r.Get("/", settingHandler.List)
			r.Get("/{key}", settingHandler.Get)
			r.With(unifiedjwt.RequireRole(string(RoleSuperAdmin))).Put("/{key}", settingHandler.Put)
			r.With(unifiedjwt.RequireRole(string(RoleSuperAdmin))).Delete("/{key}", settingHandler.Delete)
		})

		r.Route("/files", func(r chi.Router) {
			r.Use(unifiedjwt.Auth(svc.JWT))
			r.Use(rl)
			r.Use(unifiedjwt.RequireRole(string(RoleSuperAdmin), string(RoleAdmin), string(RoleReadonly)))
			r.Get("/", fileHandler.List)
			r.With(unifiedjwt.RequireRole(string(RoleSuperAdmin), string(RoleAdmin))).Post("/", fileHandler.Register)
			r.Get("/{fileID}", fileHandler.Get)
			r.With(unifiedjwt.RequireRole(string(RoleSuperAdmin), string(RoleAdmin))).Post("/{fileID}/finalize", fileHandler.Finalize)
			r.With(unifiedjwt.RequireRole(string(RoleSuperAdmin), string(RoleAdmin))).Patch("/{fileID}", fileHandler.UpdateMetadata)
			r.With(unifiedjwt.RequireRole(string(RoleSuperAdmin), string(RoleAdmin))).Delete("/{fileID}", fileHandler.Delete)
		})
	})

	return r
}
