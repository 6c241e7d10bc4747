package storageelement

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/artstore/artstore/pkg/httpapi"
)

// Handler implements the storage-element's HTTP surface: file upload,
// retrieval, range download, and deletion, plus the mode and cache
// reconciliation admin endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds a Handler bound to svc.
func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// Upload handles POST /api/v1/files/upload. The request body is streamed
// directly into the write path; metadata rides along as query parameters
// since the ingester already buffers and validates the multipart form.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var declaredSize int64
	if v := q.Get("declared_size"); v != "" {
		declaredSize, _ = strconv.ParseInt(v, 10, 64)
	}
	var retentionDays int
	if v := q.Get("retention_days"); v != "" {
		retentionDays, _ = strconv.Atoi(v)
	}
	var tags []string
	if v := q.Get("tags"); v != "" {
		tags = strings.Split(v, ",")
	}

	req := UploadRequest{
		Reader:              r.Body,
		OriginalFilename:    q.Get("filename"),
		ContentType:         q.Get("content_type"),
		UploadedByID:        q.Get("uploaded_by_id"),
		UploadedByUsername:  q.Get("uploaded_by_username"),
		Description:         q.Get("description"),
		RetentionDays:       retentionDays,
		Tags:                tags,
		DeclaredSize:        declaredSize,
		ExpectedChecksumHex: q.Get("checksum"),
	}

	result, err := h.svc.Element.Upload(r.Context(), req)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	httpapi.WriteJSONCreated(w, result)
}

func writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrModeForbidsOperation):
		httpapi.Forbidden(w, "mode_forbids_operation", "the storage element's current mode does not permit writes")
	case errors.Is(err, ErrInsufficientStorage):
		httpapi.InsufficientStorage(w, "insufficient_storage", "the storage element does not have room for this upload")
	case errors.Is(err, ErrDeclaredSizeMismatch):
		httpapi.UnprocessableEntity(w, "declared_size_mismatch", "the streamed byte count did not match the declared size")
	case errors.Is(err, ErrChecksumMismatch):
		httpapi.UnprocessableEntity(w, "checksum_mismatch", "the computed checksum did not match the expected checksum")
	case errors.Is(err, ErrAttrTooLarge):
		httpapi.UnprocessableEntity(w, "attr_too_large", "file metadata exceeds the attr.json size cap")
	default:
		httpapi.InternalServerError(w, "upload failed")
	}
}

// Download handles GET /api/v1/files/{file_id}/download.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "file_id")

	entry, err := h.svc.Element.cache.Get(fileID)
	if err != nil {
		httpapi.NotFound(w, "file_not_found", "no file with this id")
		return
	}

	// Stored bytes are served as-is; a compressed file's gzip framing is
	// declared so clients decode transparently. Ranges, Content-Length,
	// the ETag, and the checksum all describe the stored bytes.
	if entry.Compressed {
		w.Header().Set("Content-Encoding", "gzip")
	}

	var serveErr error
	if h.svc.Element.Objects() != nil {
		serveErr = h.svc.Element.ServeObjectDownload(w, r, entry)
	} else {
		serveErr = ServeDownload(w, r, entry.DataPath, entry.ContentType)
	}
	if err := serveErr; err != nil {
		if errors.Is(err, ErrFileNotFound) {
			httpapi.NotFound(w, "file_not_found", "no file with this id")
			return
		}
		httpapi.InternalServerError(w, "download failed")
	}
}

// Get handles GET /api/v1/files/{file_id}, returning the attr.json sidecar.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "file_id")

	entry, err := h.svc.Element.cache.Get(fileID)
	if err != nil {
		httpapi.NotFound(w, "file_not_found", "no file with this id")
		return
	}
	attr, err := readAttrFile(entry.DataPath)
	if err != nil {
		httpapi.InternalServerError(w, "failed to read file metadata")
		return
	}
	httpapi.WriteJSONOK(w, attr)
}

// Delete handles DELETE /api/v1/files/{file_id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "file_id")

	if err := h.svc.Element.Delete(r.Context(), fileID); err != nil {
		switch {
		case errors.Is(err, ErrFileNotFound):
			httpapi.NotFound(w, "file_not_found", "no file with this id")
		case errors.Is(err, ErrModeForbidsOperation):
			httpapi.Forbidden(w, "mode_forbids_operation", "the storage element's current mode does not permit deletes")
		default:
			httpapi.InternalServerError(w, "delete failed")
		}
		return
	}
	httpapi.WriteNoContent(w)
}

// GetMode handles GET /api/v1/mode.
func (h *Handler) GetMode(w http.ResponseWriter, r *http.Request) {
	httpapi.WriteJSONOK(w, map[string]any{
		"mode":    h.svc.Element.Mode().Current(),
		"history": h.svc.Element.Mode().History(),
	})
}

type transitionModeRequest struct {
	Mode   string `json:"mode"`
	Reason string `json:"reason"`
}

// TransitionMode handles POST /api/v1/mode, restricted to RW->RO and
// RO->AR transitions.
func (h *Handler) TransitionMode(w http.ResponseWriter, r *http.Request) {
	var req transitionModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.BadRequest(w, "invalid_request_body", "request body must be valid JSON")
		return
	}

	transition, err := h.svc.Element.Mode().Transition(Mode(req.Mode), req.Reason)
	if err != nil {
		httpapi.UnprocessableEntity(w, "invalid_mode_transition", err.Error())
		return
	}

	ctx := r.Context()
	h.svc.Health.ReportOnce(ctx)

	httpapi.WriteJSONOK(w, transition)
}

// modeMatrixEntry describes one mode's permitted operations and its
// legal outbound API-driven transition, for GET /api/v1/mode/matrix.
type modeMatrixEntry struct {
	Mode          Mode     `json:"mode"`
	PermittedOps  []string `json:"permitted_operations"`
	TransitionsTo Mode     `json:"transitions_to,omitempty"`
}

// ModeMatrix handles GET /api/v1/mode/matrix, reporting the full
// mode/operation permission table and the legal API-driven transition
// graph, independent of this element's current mode.
func (h *Handler) ModeMatrix(w http.ResponseWriter, r *http.Request) {
	modes := []Mode{ModeEdit, ModeRW, ModeRO, ModeAR}
	ops := []Operation{OpCreate, OpRead, OpUpdateMetadata, OpDelete}

	entries := make([]modeMatrixEntry, 0, len(modes))
	for _, m := range modes {
		permitted := make([]string, 0, len(ops))
		for _, op := range ops {
			if Permits(m, op) {
				permitted = append(permitted, string(op))
			}
		}
		entry := modeMatrixEntry{Mode: m, PermittedOps: permitted}
		if target, ok := apiTransitions[m]; ok {
			entry.TransitionsTo = target
		}
		entries = append(entries, entry)
	}

	httpapi.WriteJSONOK(w, entries)
}

// ModeHistory handles GET /api/v1/mode/history, returning every
// API-driven transition recorded since this process started.
func (h *Handler) ModeHistory(w http.ResponseWriter, r *http.Request) {
	httpapi.WriteJSONOK(w, h.svc.Element.Mode().History())
}

type validateModeTransitionRequest struct {
	Mode string `json:"mode"`
}

// ValidateModeTransition handles POST /api/v1/mode/validate, a dry run
// that reports whether the requested mode is reachable from the
// element's current mode without performing the transition.
func (h *Handler) ValidateModeTransition(w http.ResponseWriter, r *http.Request) {
	var req validateModeTransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.BadRequest(w, "invalid_request_body", "request body must be valid JSON")
		return
	}

	current := h.svc.Element.Mode().Current()
	target := Mode(req.Mode)
	allowed := CanTransitionTo(current, target)

	httpapi.WriteJSONOK(w, map[string]any{
		"current": current,
		"target":  target,
		"allowed": allowed,
	})
}

// ConsistencyCheck handles GET /api/v1/cache/consistency.
func (h *Handler) ConsistencyCheck(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Element.CheckConsistency()
	if err != nil {
		writeReconcileError(w, err)
		return
	}
	httpapi.WriteJSONOK(w, report)
}

// RebuildFull handles POST /api/v1/cache/rebuild.
func (h *Handler) RebuildFull(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.Element.RebuildFull()
	if err != nil {
		writeReconcileError(w, err)
		return
	}
	httpapi.WriteJSONOK(w, map[string]int{"rows_rebuilt": count})
}

// RebuildIncremental handles POST /api/v1/cache/rebuild/incremental.
func (h *Handler) RebuildIncremental(w http.ResponseWriter, r *http.Request) {
	added, removed, err := h.svc.Element.RebuildIncremental()
	if err != nil {
		writeReconcileError(w, err)
		return
	}
	httpapi.WriteJSONOK(w, map[string]int{"rows_added": added, "rows_removed": removed})
}

// CleanupExpired handles POST /api/v1/cache/cleanup-expired.
func (h *Handler) CleanupExpired(w http.ResponseWriter, r *http.Request) {
	removed, err := h.svc.Element.CleanupExpired()
	if err != nil {
		writeReconcileError(w, err)
		return
	}
	httpapi.WriteJSONOK(w, map[string]int{"rows_removed": removed})
}

func writeReconcileError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrReconcileBusy) {
		httpapi.Conflict(w, "reconcile_busy", "a higher-priority reconciliation operation is already running")
		return
	}
	httpapi.InternalServerError(w, "reconciliation failed")
}

// Live handles GET /health/live: the process is up.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	httpapi.WriteJSONOK(w, map[string]string{"status": "ok"})
}

// Ready handles GET /health/ready: it checks only that the Redis connection
// is usable, and reports the element's current mode.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Redis.Ping(r.Context()).Err(); err != nil {
		httpapi.InternalServerError(w, "redis unavailable")
		return
	}
	httpapi.WriteJSONOK(w, map[string]string{"status": "ready", "mode": string(h.svc.Element.Mode().Current())})
}
