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
	"github.com/artstore/artstore/pkg/unifiedjwt"
)

// StorageElementHandler implements the storage-element registry's CRUD
// and mode-transition endpoints. Every mutation writes an audit entry and
// republishes the current topology snapshot.
type StorageElementHandler struct {
	svc *Service
}

func NewStorageElementHandler(svc *Service) *StorageElementHandler {
	return &StorageElementHandler{svc: svc}
}

func (h *StorageElementHandler) List(w http.ResponseWriter, r *http.Request) {
	elements, err := h.svc.Store.ListStorageElements(r.Context())
	if err != nil {
		httpapi.InternalServerError(w, "failed to list storage elements")
		return
	}
	httpapi.WriteJSONOK(w, elements)
}

func (h *StorageElementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	se, err := h.svc.Store.GetStorageElement(r.Context(), id)
	if err != nil {
		httpapi.NotFound(w, "storage_element_not_found", "no storage element with this id")
		return
	}
	httpapi.WriteJSONOK(w, se)
}

type createStorageElementRequest struct {
	ElementID     string `json:"element_id" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Mode          string `json:"mode" validate:"omitempty,oneof=EDIT RW RO AR"`
	StorageType   string `json:"storage_type" validate:"omitempty,oneof=LOCAL S3"`
	APIURL        string `json:"api_url" validate:"required,url"`
	BasePath      string `json:"base_path"`
	CapacityBytes int64  `json:"capacity_bytes" validate:"min=0"`
	Priority      uint16 `json:"priority"`
	RetentionDays int    `json:"retention_days" validate:"min=0,max=3650"`
}

func (h *StorageElementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStorageElementRequest
	if !httpapi.DecodeValid(w, r, &req) {
		return
	}

	se := &StorageElement{
		ElementID:     req.ElementID,
		Name:          req.Name,
		Mode:          req.Mode,
		StorageType:   req.StorageType,
		APIURL:        req.APIURL,
		BasePath:      req.BasePath,
		CapacityBytes: req.CapacityBytes,
		Priority:      req.Priority,
		RetentionDays: req.RetentionDays,
		Status:        string(StatusOnline),
	}
	if se.Mode == "" {
		se.Mode = string(ModeEdit)
	}
	if se.StorageType == "" {
		se.StorageType = string(StorageTypeLocal)
	}

	if _, err := h.svc.Store.CreateStorageElement(r.Context(), se); err != nil {
		if errors.Is(err, ErrDuplicateStorageElement) {
			httpapi.Conflict(w, "storage_element_exists", "a storage element with this element_id or name already exists")
			return
		}
		httpapi.InternalServerError(w, "failed to create storage element")
		return
	}

	h.audit(r, "storage_element.create", se.ID)
	h.republishTopology(r)
	httpapi.WriteJSONCreated(w, se)
}

type updateStorageElementRequest struct {
	Name          *string `json:"name"`
	APIURL        *string `json:"api_url"`
	BasePath      *string `json:"base_path"`
	CapacityBytes *int64  `json:"capacity_bytes"`
	Priority      *uint16 `json:"priority"`
	RetentionDays *int    `json:"retention_days"`
}

func (h *StorageElementHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	se, err := h.svc.Store.GetStorageElement(r.Context(), id)
	if err != nil {
		httpapi.NotFound(w, "storage_element_not_found", "no storage element with this id")
		return
	}

	var req updateStorageElementRequest
	if !httpapi.DecodeValid(w, r, &req) {
		return
	}
	if req.Name != nil {
		se.Name = *req.Name
	}
	if req.APIURL != nil {
		se.APIURL = *req.APIURL
	}
	if req.BasePath != nil {
		se.BasePath = *req.BasePath
	}
	if req.CapacityBytes != nil {
		se.CapacityBytes = *req.CapacityBytes
	}
	if req.Priority != nil {
		se.Priority = *req.Priority
	}
	if req.RetentionDays != nil {
		se.RetentionDays = *req.RetentionDays
	}

	if err := h.svc.Store.UpdateStorageElement(r.Context(), se); err != nil {
		httpapi.InternalServerError(w, "failed to update storage element")
		return
	}

	h.audit(r, "storage_element.update", se.ID)
	h.republishTopology(r)
	httpapi.WriteJSONOK(w, se)
}

type transitionModeRequest struct {
	Mode   string `json:"mode" validate:"required,oneof=EDIT RW RO AR"`
	Reason string `json:"reason"`
}

// TransitionMode applies an API-driven mode change (RW->RO, RO->AR).
func (h *StorageElementHandler) TransitionMode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req transitionModeRequest
	if !httpapi.DecodeValid(w, r, &req) {
		return
	}

	se, err := h.svc.Store.TransitionMode(r.Context(), id, StorageMode(req.Mode))
	if err != nil {
		switch {
		case errors.Is(err, ErrStorageElementNotFound):
			httpapi.NotFound(w, "storage_element_not_found", "no storage element with this id")
		case errors.Is(err, ErrInvalidModeTransition):
			httpapi.UnprocessableEntity(w, "invalid_mode_transition", "this mode transition is not permitted")
		default:
			httpapi.InternalServerError(w, "failed to transition mode")
		}
		return
	}

	h.svc.Audit.Record(AuditEvent{
		Actor: actorFromContext(r), ActorType: actorTypeFromContext(r),
		Action: "storage_element.mode_transition", Resource: "storage_element", ResourceID: se.ID,
		Detail: map[string]any{"mode": req.Mode, "reason": req.Reason},
	})
	metadataJSON, _ := json.Marshal(map[string]string{"mode": req.Mode, "reason": req.Reason})
	h.publishEvent(eventbus.EventModeChanged, se.ID, string(metadataJSON))
	h.republishTopology(r)
	httpapi.WriteJSONOK(w, se)
}

// publishEvent emits a topology-plane event from a detached context: a
// publish failure is logged but must never fail the request that
// triggered the mutation, the same best-effort contract
// republishTopology uses.
func (h *StorageElementHandler) publishEvent(eventType eventbus.EventType, storageElementID, metadataJSON string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := &eventbus.Event{
		EventType:        eventType,
		Timestamp:        time.Now(),
		StorageElementID: storageElementID,
		Metadata:         metadataJSON,
	}
	if _, err := h.svc.Events.Publish(ctx, event); err != nil {
		logger.Error("failed to publish storage element event", logger.Err(err))
	}
}

func (h *StorageElementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Store.DeleteStorageElement(r.Context(), id); err != nil {
		if errors.Is(err, ErrStorageElementNotFound) {
			httpapi.NotFound(w, "storage_element_not_found", "no storage element with this id")
			return
		}
		httpapi.InternalServerError(w, "failed to delete storage element")
		return
	}

	h.audit(r, "storage_element.delete", id)
	h.republishTopology(r)
	httpapi.WriteNoContent(w)
}

func (h *StorageElementHandler) audit(r *http.Request, action, resourceID string) {
	h.svc.Audit.Record(AuditEvent{
		Actor: actorFromContext(r), ActorType: actorTypeFromContext(r),
		Action: action, Resource: "storage_element", ResourceID: resourceID,
	})
}

// republishTopology best-effort republishes the current snapshot; a
// failure here is logged by the publisher's caller but must never fail
// the request that triggered the CRUD.
func (h *StorageElementHandler) republishTopology(r *http.Request) {
	elements, err := h.svc.Store.ListStorageElements(r.Context())
	if err != nil {
		return
	}
	snapshot := make([]*StorageElement, len(elements))
	copy(snapshot, elements)
	go h.svc.publishSnapshotBestEffort(snapshot)
}

func actorFromContext(r *http.Request) string {
	claims := unifiedjwt.GetClaimsFromContext(r.Context())
	if claims == nil {
		return "unknown"
	}
	if claims.Name != "" {
		return claims.Name
	}
	return claims.Subject
}

func actorTypeFromContext(r *http.Request) string {
	claims := unifiedjwt.GetClaimsFromContext(r.Context())
	if claims == nil {
		return "system"
	}
	return claims.Type
}
