package adminmodule

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artstore/artstore/pkg/httpapi"
)

// AdminUserHandler implements CRUD and password-reset endpoints for human
// operator accounts.
type AdminUserHandler struct {
	svc *Service
}

func NewAdminUserHandler(svc *Service) *AdminUserHandler {
	return &AdminUserHandler{svc: svc}
}

func (h *AdminUserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Store.ListAdminUsers(r.Context())
	if err != nil {
		httpapi.InternalServerError(w, "failed to list admin users")
		return
	}
	httpapi.WriteJSONOK(w, users)
}

func (h *AdminUserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.svc.Store.GetAdminUserByID(r.Context(), id)
	if err != nil {
		httpapi.NotFound(w, "admin_user_not_found", "no admin user with this id")
		return
	}
	httpapi.WriteJSONOK(w, user)
}

type createAdminUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password"` // optional: a random password is generated if omitted
	Role     string `json:"role" validate:"omitempty,oneof=SUPER_ADMIN ADMIN READONLY"`
}

// Create provisions a new admin user. If no password is supplied, one is
// generated and returned exactly once, same as a newly minted service
// account's client secret.
func (h *AdminUserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAdminUserRequest
	if !httpapi.DecodeValid(w, r, &req) {
		return
	}

	result, err := h.svc.Store.CreateAdminUserWithPassword(r.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateAdminUser):
			httpapi.Conflict(w, "admin_user_exists", "an admin user with this username already exists")
		case errors.Is(err, ErrInvalidRole):
			httpapi.UnprocessableEntity(w, "invalid_role", "role must be one of SUPER_ADMIN, ADMIN, READONLY")
		case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordTooLong):
			httpapi.UnprocessableEntity(w, "password_invalid", err.Error())
		default:
			httpapi.InternalServerError(w, "failed to create admin user")
		}
		return
	}

	h.audit(r, "admin_user.create", result.User.ID)
	httpapi.WriteJSONCreated(w, withPassword(result.User, result.PlaintextPassword))
}

// withPassword flattens a user's fields alongside its one-time plaintext
// password into a single JSON object, the same flat shape used for
// service-account secrets (see handlers_service_accounts.go's
// withClientSecret) rather than nesting it under a wrapper key.
func withPassword(user *AdminUser, plaintext string) map[string]any {
	encoded, _ := json.Marshal(user)
	var flattened map[string]any
	_ = json.Unmarshal(encoded, &flattened)
	flattened["password"] = plaintext
	return flattened
}

// ResetPassword generates a fresh password for another admin user,
// returned exactly once, and forces a password change on next login.
func (h *AdminUserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	password, err := h.svc.Store.ResetAdminPassword(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrAdminUserNotFound):
			httpapi.NotFound(w, "admin_user_not_found", "no admin user with this id")
		default:
			httpapi.InternalServerError(w, "failed to reset admin user password")
		}
		return
	}

	user, err := h.svc.Store.GetAdminUserByID(r.Context(), id)
	if err != nil {
		httpapi.NotFound(w, "admin_user_not_found", "no admin user with this id")
		return
	}

	h.audit(r, "admin_user.reset_password", id)
	httpapi.WriteJSONOK(w, withPassword(user, password))
}

func (h *AdminUserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Store.DeleteAdminUser(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrAdminUserNotFound):
			httpapi.NotFound(w, "admin_user_not_found", "no admin user with this id")
		case errors.Is(err, ErrSystemAccountProtected):
			httpapi.Forbidden(w, "system_account_protected", "the built-in admin account cannot be deleted")
		default:
			httpapi.InternalServerError(w, "failed to delete admin user")
		}
		return
	}

	h.audit(r, "admin_user.delete", id)
	httpapi.WriteNoContent(w)
}

func (h *AdminUserHandler) audit(r *http.Request, action, resourceID string) {
	h.svc.Audit.Record(AuditEvent{
		Actor: actorFromContext(r), ActorType: actorTypeFromContext(r),
		Action: action, Resource: "admin_user", ResourceID: resourceID,
	})
}
