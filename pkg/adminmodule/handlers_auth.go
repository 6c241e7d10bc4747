package adminmodule

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/artstore/artstore/pkg/httpapi"
	"github.com/artstore/artstore/pkg/unifiedjwt"
)

// AuthHandler implements admin-user login and the OAuth2 client-credentials
// grant for service accounts, both minting UnifiedJWT token pairs.
type AuthHandler struct {
	svc *Service
}

func NewAuthHandler(svc *Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates an admin user with username/password and issues a
// UnifiedJWT token pair with type="admin_user".
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httpapi.DecodeValid(w, r, &req) {
		return
	}

	user, err := h.svc.Store.AuthenticateAdminUser(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrAccountLocked):
			httpapi.Forbidden(w, "account_locked", "this account is temporarily locked due to repeated failed logins")
		default:
			httpapi.Unauthorized(w, "invalid_credentials", "invalid username or password")
		}
		return
	}

	pair, err := h.svc.JWT.GenerateTokenPair(unifiedjwt.Subject{
		ID:   user.ID,
		Type: unifiedjwt.SubjectAdminUser,
		Role: user.Role,
		Name: user.Username,
	})
	if err != nil {
		httpapi.InternalServerError(w, "failed to issue tokens")
		return
	}

	h.svc.Audit.Record(AuditEvent{
		Actor: user.Username, ActorType: "admin_user", Action: "login", Resource: "admin_user", ResourceID: user.ID,
	})

	httpapi.WriteJSONOK(w, pair)
}

type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
}

// rfc6749Error writes an OAuth2 §5.2-shaped error body; the token
// endpoint is the one surface that must not answer with problem+json.
func rfc6749Error(w http.ResponseWriter, status int, errCode, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errCode,
		"error_description": description,
	})
}

// Token implements the OAuth2 client-credentials and refresh_token grants
// for service accounts.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rfc6749Error(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	switch req.GrantType {
	case "client_credentials":
		h.clientCredentialsGrant(w, r, req)
	case "refresh_token":
		h.refreshTokenGrant(w, r, req)
	default:
		rfc6749Error(w, http.StatusBadRequest, "unsupported_grant_type", "grant_type must be client_credentials or refresh_token")
	}
}

func (h *AuthHandler) clientCredentialsGrant(w http.ResponseWriter, r *http.Request, req tokenRequest) {
	if req.ClientID == "" || req.ClientSecret == "" {
		rfc6749Error(w, http.StatusBadRequest, "invalid_request", "client_id and client_secret are required")
		return
	}

	account, err := h.svc.Store.AuthenticateServiceAccount(r.Context(), req.ClientID, req.ClientSecret)
	if err != nil {
		rfc6749Error(w, http.StatusUnauthorized, "invalid_client", "client authentication failed")
		return
	}

	pair, err := h.svc.JWT.GenerateTokenPair(unifiedjwt.Subject{
		ID:        account.ID,
		Type:      unifiedjwt.SubjectServiceAccount,
		Role:      account.Role,
		Name:      account.Name,
		ClientID:  account.ClientID,
		RateLimit: account.RateLimit,
	})
	if err != nil {
		rfc6749Error(w, http.StatusInternalServerError, "server_error", "failed to issue tokens")
		return
	}

	httpapi.WriteJSONOK(w, pair)
}

func (h *AuthHandler) refreshTokenGrant(w http.ResponseWriter, r *http.Request, req tokenRequest) {
	if req.RefreshToken == "" {
		rfc6749Error(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}

	claims, err := h.svc.JWT.ValidateToken(req.RefreshToken)
	if err != nil {
		rfc6749Error(w, http.StatusUnauthorized, "invalid_grant", "refresh token is invalid or expired")
		return
	}

	pair, err := h.svc.JWT.GenerateTokenPair(unifiedjwt.Subject{
		ID:        claims.Subject,
		Type:      unifiedjwt.SubjectType(claims.Type),
		Role:      claims.Role,
		Name:      claims.Name,
		ClientID:  claims.ClientID,
		RateLimit: claims.RateLimit,
	})
	if err != nil {
		rfc6749Error(w, http.StatusInternalServerError, "server_error", "failed to issue tokens")
		return
	}

	httpapi.WriteJSONOK(w, pair)
}

// Me returns the claims embedded in the caller's own validated token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := unifiedjwt.GetClaimsFromContext(r.Context())
	if claims == nil {
		httpapi.Unauthorized(w, "authentication_required", "no valid token presented")
		return
	}
	httpapi.WriteJSONOK(w, map[string]any{
		"sub":        claims.Subject,
		"type":       claims.Type,
		"role":       claims.Role,
		"name":       claims.Name,
		"client_id":  claims.ClientID,
		"rate_limit": claims.RateLimit,
	})
}

type changePasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required"`
}

// ChangePassword lets an authenticated admin user change their own password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := unifiedjwt.GetClaimsFromContext(r.Context())
	if claims == nil || !claims.IsAdminUser() {
		httpapi.Unauthorized(w, "authentication_required", "an admin_user token is required")
		return
	}

	var req changePasswordRequest
	if !httpapi.DecodeValid(w, r, &req) {
		return
	}

	if err := h.svc.Store.ChangeAdminPassword(r.Context(), claims.Subject, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, ErrPasswordReused):
			httpapi.UnprocessableEntity(w, "password_reused", "this password was used recently")
		case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordTooLong):
			httpapi.UnprocessableEntity(w, "password_invalid", err.Error())
		default:
			httpapi.InternalServerError(w, "failed to change password")
		}
		return
	}

	httpapi.WriteNoContent(w)
}
