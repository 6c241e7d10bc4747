package adminmodule

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artstore/artstore/pkg/httpapi"
)

// SettingHandler implements the /api/v1/settings surface: a small
// key/value store for runtime-tunable operator configuration.
type SettingHandler struct {
	svc *Service
}

// NewSettingHandler builds a SettingHandler bound to svc.
func NewSettingHandler(svc *Service) *SettingHandler { return &SettingHandler{svc: svc} }

func (h *SettingHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.Store.ListSettings(r.Context())
	if err != nil {
		httpapi.InternalServerError(w, "failed to list settings")
		return
	}
	httpapi.WriteJSONOK(w, settings)
}

func (h *SettingHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	setting, err := h.svc.Store.GetSetting(r.Context(), key)
	if err != nil {
		httpapi.NotFound(w, "setting_not_found", "no setting with this key")
		return
	}
	httpapi.WriteJSONOK(w, setting)
}

type putSettingRequest struct {
	Value       string `json:"value" validate:"required"`
	Description string `json:"description"`
}

func (h *SettingHandler) Put(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req putSettingRequest
	if !httpapi.DecodeValid(w, r, &req) {
		return
	}

	setting, err := h.svc.Store.PutSetting(r.Context(), key, req.Value, req.Description)
	if err != nil {
		httpapi.InternalServerError(w, "failed to store setting")
		return
	}

	h.audit(r, "setting.put", key)
	httpapi.WriteJSONOK(w, setting)
}

func (h *SettingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if err := h.svc.Store.DeleteSetting(r.Context(), key); err != nil {
		if errors.Is(err, ErrSettingNotFound) {
			httpapi.NotFound(w, "setting_not_found", "no setting with this key")
			return
		}
		httpapi.InternalServerError(w, "failed to delete setting")
		return
	}

	h.audit(r, "setting.delete", key)
	httpapi.WriteNoContent(w)
}

func (h *SettingHandler) audit(r *http.Request, action, key string) {
	h.svc.Audit.Record(AuditEvent{
		Actor: actorFromContext(r), ActorType: actorTypeFromContext(r),
		Action: action, Resource: "setting", ResourceID: key,
	})
}
