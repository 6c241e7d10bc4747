package adminmodule

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/artstore/artstore/internal/logger"
	"github.com/artstore/artstore/pkg/eventbus"
	"github.com/artstore/artstore/pkg/httpapi"
)

// FileHandler implements the file registry's query, finalize, metadata
// update, and soft-delete endpoints. RegisterFile itself is called by the
// ingester service-to-service rather than exposed here.
type FileHandler struct {
	svc *Service
}

func NewFileHandler(svc *Service) *FileHandler {
	return &FileHandler{svc: svc}
}

func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := FileFilter{
		StorageElementID: q.Get("storage_element_id"),
		RetentionPolicy:  RetentionPolicy(q.Get("retention_policy")),
		UploadedBy:       q.Get("uploaded_by"),
		IncludeDeleted:   q.Get("include_deleted") == "true",
	}

	files, err := h.svc.Store.ListFiles(r.Context(), filter)
	if err != nil {
		httpapi.InternalServerError(w, "failed to list files")
		return
	}
	httpapi.WriteJSONOK(w, files)
}

// Register handles the ingester's service-to-service call after the
// storage-element's atomic write protocol commits, creating the file's
// registry row and publishing event file:created.
func (h *FileHandler) Register(w http.ResponseWriter, r *http.Request) {
	var file File
	if !httpapi.DecodeValid(w, r, &file) {
		return
	}

	fileID, err := h.svc.Store.RegisterFile(r.Context(), &file)
	if err != nil {
		if errors.Is(err, ErrDuplicateFile) {
			httpapi.Conflict(w, "duplicate_file", "a file with this id is already registered")
			return
		}
		httpapi.InternalServerError(w, "failed to register file")
		return
	}

	h.publishEvent(eventbus.EventFileCreated, fileID, file.StorageElementID, "")
	h.audit(r, "file.register", fileID)
	httpapi.WriteJSONCreated(w, map[string]string{"file_id": fileID})
}

func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	file, err := h.svc.Store.GetFile(r.Context(), fileID)
	if err != nil {
		httpapi.NotFound(w, "file_not_found", "no file with this id")
		return
	}
	httpapi.WriteJSONOK(w, file)
}

// Finalize flips a file from TEMPORARY to PERMANENT retention, clearing
// its TTL. Idempotent: finalizing an already-permanent file is a no-op.
func (h *FileHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	if err := h.svc.Store.FinalizeFile(r.Context(), fileID); err != nil {
		if errors.Is(err, ErrFileNotFound) {
			httpapi.NotFound(w, "file_not_found", "no file with this id")
			return
		}
		httpapi.InternalServerError(w, "failed to finalize file")
		return
	}

	h.publishEvent(eventbus.EventFileUpdated, fileID, "", `{"action":"finalize"}`)
	h.audit(r, "file.finalize", fileID)
	httpapi.WriteNoContent(w)
}

type updateFileMetadataRequest struct {
	Description  string         `json:"description"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (h *FileHandler) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	var req updateFileMetadataRequest
	if !httpapi.DecodeValid(w, r, &req) {
		return
	}

	var metadataJSON string
	if req.UserMetadata != nil {
		encoded, err := json.Marshal(req.UserMetadata)
		if err != nil {
			httpapi.BadRequest(w, "invalid_metadata", "user_metadata must be JSON-encodable")
			return
		}
		metadataJSON = string(encoded)
	}

	if err := h.svc.Store.UpdateFileMetadata(r.Context(), fileID, req.Description, metadataJSON); err != nil {
		if errors.Is(err, ErrFileNotFound) {
			httpapi.NotFound(w, "file_not_found", "no file with this id")
			return
		}
		httpapi.InternalServerError(w, "failed to update file metadata")
		return
	}

	h.publishEvent(eventbus.EventFileUpdated, fileID, "", metadataJSON)
	h.audit(r, "file.update_metadata", fileID)
	httpapi.WriteNoContent(w)
}

type deleteFileRequest struct {
	Reason string `json:"reason"`
}

// Delete soft-deletes a file record; it never touches the underlying
// bytes, which the garbage collector reclaims separately.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	var req deleteFileRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.svc.Store.SoftDeleteFile(r.Context(), fileID, req.Reason); err != nil {
		if errors.Is(err, ErrFileNotFound) {
			httpapi.NotFound(w, "file_not_found", "no file with this id")
			return
		}
		httpapi.InternalServerError(w, "failed to delete file")
		return
	}

	h.publishDeleted(fileID)
	h.audit(r, "file.delete", fileID)
	httpapi.WriteNoContent(w)
}

func (h *FileHandler) audit(r *http.Request, action, resourceID string) {
	h.svc.Audit.Record(AuditEvent{
		Actor: actorFromContext(r), ActorType: actorTypeFromContext(r),
		Action: action, Resource: "file", ResourceID: resourceID,
	})
}

// publishEvent emits a file-plane event from a detached context: a
// publish failure is logged but must never fail the request that
// triggered the mutation, the same best-effort contract
// publishSnapshotBestEffort uses for topology publication.
func (h *FileHandler) publishEvent(eventType eventbus.EventType, fileID, storageElementID, metadataJSON string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := &eventbus.Event{
		EventType:        eventType,
		Timestamp:        time.Now(),
		FileID:           fileID,
		StorageElementID: storageElementID,
		Metadata:         metadataJSON,
	}
	if _, err := h.svc.Events.Publish(ctx, event); err != nil {
		logger.Error("failed to publish file event", logger.Err(err))
	}
}

func (h *FileHandler) publishDeleted(fileID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := &eventbus.Event{
		EventType: eventbus.EventFileDeleted,
		Timestamp: time.Now(),
		FileID:    fileID,
		DeletedAt: time.Now().Format(time.RFC3339),
	}
	if _, err := h.svc.Events.Publish(ctx, event); err != nil {
		logger.Error("failed to publish file event", logger.Err(err))
	}
}
