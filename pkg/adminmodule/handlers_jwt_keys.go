package adminmodule

import (
	"errors"
	"net/http"

	"github.com/artstore/artstore/pkg/httpapi"
	"github.com/artstore/artstore/pkg/jwtkeys"
)

// JWTKeyHandler exposes operator visibility into, and manual control over,
// the admin-module's signing key lifecycle. Rotation otherwise happens on
// Rotator's own schedule (see Service.runRotationLoop); these endpoints
// let an operator trigger it early or inspect its current state.
type JWTKeyHandler struct {
	svc *Service
}

func NewJWTKeyHandler(svc *Service) *JWTKeyHandler {
	return &JWTKeyHandler{svc: svc}
}

type jwtKeyStatus struct {
	Version       string `json:"version"`
	CreatedAt     string `json:"created_at"`
	ExpiresAt     string `json:"expires_at"`
	IsActive      bool   `json:"is_active"`
	RotationCount int    `json:"rotation_count"`
}

// Status reports every signing key the registry knows about, newest
// first, so an operator can confirm rotation is keeping pace without
// exposing any private key material.
func (h *JWTKeyHandler) Status(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.Store.ListJWTKeys(r.Context())
	if err != nil {
		httpapi.InternalServerError(w, "failed to load jwt key status")
		return
	}

	keys := make([]jwtKeyStatus, 0, len(records))
	activeCount := 0
	for _, rec := range records {
		if rec.IsActive {
			activeCount++
		}
		keys = append(keys, jwtKeyStatus{
			Version:       rec.Version,
			CreatedAt:     rec.CreatedAt.Format(isoTimeFormat),
			ExpiresAt:     rec.ExpiresAt.Format(isoTimeFormat),
			IsActive:      rec.IsActive,
			RotationCount: rec.RotationCount,
		})
	}

	httpapi.WriteJSONOK(w, map[string]any{
		"keys":         keys,
		"active_count": activeCount,
	})
}

// Rotate forces an immediate key rotation, bypassing the scheduler's
// "due within 1 hour" check. It shares the same distributed lock as the
// background rotation loop, so a manual trigger racing a scheduled one
// cannot double-rotate; the loser returns 409 rather than silently
// no-op'ing the way the scheduler's own skip does, since a human
// explicitly asked for a rotation and deserves to know it didn't happen.
func (h *JWTKeyHandler) Rotate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Rotator.ForceRotate(r.Context()); err != nil {
		if errors.Is(err, jwtkeys.ErrRotationInProgress) {
			httpapi.Conflict(w, "rotation_in_progress", "another instance is currently rotating keys")
			return
		}
		httpapi.InternalServerError(w, "failed to rotate jwt signing key")
		return
	}

	h.svc.Audit.Record(AuditEvent{
		Actor: actorFromContext(r), ActorType: actorTypeFromContext(r),
		Action: "jwt_key.rotate", Resource: "jwt_key",
	})
	httpapi.WriteNoContent(w)
}

const isoTimeFormat = "2006-01-02T15:04:05Z07:00"
