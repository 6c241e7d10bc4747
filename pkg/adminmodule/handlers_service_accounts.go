package adminmodule

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artstore/artstore/pkg/httpapi"
)

// ServiceAccountHandler implements CRUD and secret-rotation endpoints for
// OAuth2 client-credentials principals.
type ServiceAccountHandler struct {
	svc *Service
}

func NewServiceAccountHandler(svc *Service) *ServiceAccountHandler {
	return &ServiceAccountHandler{svc: svc}
}

func (h *ServiceAccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.Store.ListServiceAccounts(r.Context())
	if err != nil {
		httpapi.InternalServerError(w, "failed to list service accounts")
		return
	}
	httpapi.WriteJSONOK(w, accounts)
}

func (h *ServiceAccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	account, err := h.svc.Store.GetServiceAccount(r.Context(), id)
	if err != nil {
		httpapi.NotFound(w, "service_account_not_found", "no service account with this id")
		return
	}
	httpapi.WriteJSONOK(w, account)
}

type createServiceAccountRequest struct {
	Name        string `json:"name" validate:"required"`
	Role        string `json:"role"`
	RateLimit   int    `json:"rate_limit" validate:"min=0"`
	Environment string `json:"environment"`
}

// Create mints a new service account and returns its plaintext client
// secret exactly once, alongside the stored record.
func (h *ServiceAccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createServiceAccountRequest
	if !httpapi.DecodeValid(w, r, &req) {
		return
	}
	if req.RateLimit <= 0 {
		req.RateLimit = 60
	}

	result, err := h.svc.Store.CreateServiceAccount(r.Context(), req.Name, req.Role, req.RateLimit, req.Environment)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateServiceAccount):
			httpapi.Conflict(w, "service_account_exists", "a service account with this name already exists")
		case errors.Is(err, ErrInvalidRole):
			httpapi.UnprocessableEntity(w, "invalid_role", "role must be one of SUPER_ADMIN, ADMIN, READONLY")
		default:
			httpapi.InternalServerError(w, "failed to create service account")
		}
		return
	}

	h.audit(r, "service_account.create", result.Account.ID)
	httpapi.WriteJSONCreated(w, withClientSecret(result.Account, result.PlaintextSecret))
}

// withClientSecret flattens an account's fields alongside its one-time
// plaintext secret into a single JSON object, matching pkg/apiclient's
// ServiceAccountInfo wire shape (a nested {"account":...,"client_secret":
// ...} envelope would silently decode to a zero-valued struct on the
// client side instead of failing loudly).
func withClientSecret(account *ServiceAccount, plaintext string) map[string]any {
	encoded, _ := json.Marshal(account)
	var flattened map[string]any
	_ = json.Unmarshal(encoded, &flattened)
	flattened["client_secret"] = plaintext
	return flattened
}

type updateServiceAccountStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE SUSPENDED EXPIRED DELETED"`
}

func (h *ServiceAccountHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateServiceAccountStatusRequest
	if !httpapi.DecodeValid(w, r, &req) {
		return
	}

	if err := h.svc.Store.UpdateServiceAccountStatus(r.Context(), id, ServiceAccountStatus(req.Status)); err != nil {
		switch {
		case errors.Is(err, ErrServiceAccountNotFound):
			httpapi.NotFound(w, "service_account_not_found", "no service account with this id")
		case errors.Is(err, ErrSystemAccountProtected):
			httpapi.Forbidden(w, "system_account_protected", "system service accounts cannot change status")
		default:
			httpapi.InternalServerError(w, "failed to update service account status")
		}
		return
	}

	h.audit(r, "service_account.status_update", id)
	httpapi.WriteNoContent(w)
}

// RotateSecret issues a fresh client secret, returned exactly once.
func (h *ServiceAccountHandler) RotateSecret(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	plaintext, err := h.svc.Store.RotateServiceAccountSecret(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrServiceAccountNotFound):
			httpapi.NotFound(w, "service_account_not_found", "no service account with this id")
		case errors.Is(err, ErrSecretReused):
			httpapi.UnprocessableEntity(w, "secret_reused", "generated secret collided with recent history, retry")
		default:
			httpapi.InternalServerError(w, "failed to rotate service account secret")
		}
		return
	}

	account, err := h.svc.Store.GetServiceAccount(r.Context(), id)
	if err != nil {
		httpapi.NotFound(w, "service_account_not_found", "no service account with this id")
		return
	}

	h.audit(r, "service_account.rotate_secret", id)
	httpapi.WriteJSONOK(w, withClientSecret(account, plaintext))
}

func (h *ServiceAccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Store.DeleteServiceAccount(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrServiceAccountNotFound):
			httpapi.NotFound(w, "service_account_not_found", "no service account with this id")
		case errors.Is(err, ErrSystemAccountProtected):
			httpapi.Forbidden(w, "system_account_protected", "system service accounts cannot be deleted")
		default:
			httpapi.InternalServerError(w, "failed to delete service account")
		}
		return
	}

	h.audit(r, "service_account.delete", id)
	httpapi.WriteNoContent(w)
}

func (h *ServiceAccountHandler) audit(r *http.Request, action, resourceID string) {
	h.svc.Audit.Record(AuditEvent{
		Actor: actorFromContext(r), ActorType: actorTypeFromContext(r),
		Action: action, Resource: "service_account", ResourceID: resourceID,
	})
}
