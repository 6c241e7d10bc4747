package unifiedjwt

import (
	"context"
	"net/http"
	"strings"

	"github.com/artstore/artstore/pkg/httpapi"
)

type contextKey string

const claimsContextKey contextKey = "unifiedjwt_claims"

// GetClaimsFromContext retrieves the validated Claims from a request
// context. Returns nil if Auth hasn't run or the request was
// unauthenticated (see OptionalAuth). Must only be called from handler
// code downstream of Auth.
func GetClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsContextKey).(*Claims)
	return claims
}

// ServiceAccountClaims adapts GetClaimsFromContext to the shape
// pkg/ratelimit's middleware expects, returning the client_id and
// requests-per-minute budget embedded in a service-account token.
func ServiceAccountClaims(ctx context.Context) (clientID string, rateLimit int, ok bool) {
	claims := GetClaimsFromContext(ctx)
	if claims == nil || !claims.IsServiceAccount() {
		return "", 0, false
	}
	return claims.ClientID, claims.RateLimit, true
}

func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// Auth is middleware that requires a valid Bearer token and stores its
// claims in the request context. Invalid or missing tokens are rejected
// with an RFC-7807 problem response.
func Auth(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r)
			if !ok {
				httpapi.Unauthorized(w, "missing_bearer_token", "Authorization: Bearer <token> is required")
				return
			}

			claims, err := service.ValidateToken(token)
			if err != nil {
				httpapi.Unauthorized(w, "invalid_token", "the provided token is invalid or expired")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth is like Auth but never rejects the request: claims are
// attached to the context only if a valid token is present.
func OptionalAuth(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := service.ValidateToken(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole blocks requests whose claims' Role is not one of allowed.
// Must run after Auth.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	allowedSet := make(map[string]bool, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaimsFromContext(r.Context())
			if claims == nil {
				httpapi.Unauthorized(w, "authentication_required", "this endpoint requires authentication")
				return
			}
			if !allowedSet[claims.Role] {
				httpapi.Forbidden(w, "insufficient_role", "this endpoint requires a higher role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
