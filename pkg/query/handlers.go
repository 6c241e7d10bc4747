package query

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/artstore/artstore/pkg/httpapi"
	"github.com/artstore/artstore/pkg/metrics"
)

// Handler implements the query service's read-only HTTP surface: search
// and download redirection. It never writes bytes itself — downloads
// always resolve to the owning storage-element and redirect there.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// Search handles GET /api/v1/search?q=...&limit=....
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		httpapi.BadRequest(w, "missing_query", "query parameter 'q' is required")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	timer := metrics.NewTimer()
	results, err := h.svc.Store.Search(r.Context(), q, limit)
	timer.ObserveDuration(metrics.SearchDuration)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		httpapi.InternalServerError(w, "search failed")
		return
	}

	metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()
	httpapi.WriteJSONOK(w, map[string]any{"results": results, "count": len(results)})
}

// Download handles GET /api/v1/files/{file_id}/download by resolving the
// file's owning storage element and redirecting the client there; the
// query service never proxies file bytes itself.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "file_id")

	rec, err := h.svc.Store.GetByID(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			httpapi.NotFound(w, "file_not_found", "no file with this id")
			return
		}
		httpapi.InternalServerError(w, "failed to resolve file")
		return
	}

	element, err := h.svc.Registry.Element(r.Context(), rec.StorageElementID)
	if err != nil || element == nil {
		httpapi.NotFound(w, "storage_element_unavailable", "the storage element holding this file is not currently registered")
		return
	}

	http.Redirect(w, r, element.APIURL+"/api/v1/files/"+fileID+"/download", http.StatusFound)
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	httpapi.WriteJSONOK(w, map[string]string{"status": "ok"})
}

// Ready handles GET /health/ready, checking the database the search
// index depends on.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := h.svc.Store.DB().DB()
	if err != nil || sqlDB.PingContext(r.Context()) != nil {
		httpapi.InternalServerError(w, "database unreachable")
		return
	}
	httpapi.WriteJSONOK(w, map[string]string{"status": "ready"})
}
