// Package unifiedjwt implements the cross-service RS256 claim schema shared
// by all four ArtStore services. Every service validates tokens locally
// against a public key; no network round-trip is required per request.
package unifiedjwt

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// SubjectType discriminates between the two kinds of token subject.
type SubjectType string

const (
	// SubjectAdminUser identifies a human administrator authenticated via
	// username/password.
	SubjectAdminUser SubjectType = "admin_user"

	// SubjectServiceAccount identifies an OAuth2 client-credentials caller.
	SubjectServiceAccount SubjectType = "service_account"

	// legacyTypeAccess and legacyTypeRefresh are pre-unification token
	// types. They are accepted on validation for backward compatibility;
	// new tokens are never minted with these values.
	legacyTypeAccess  = "access"
	legacyTypeRefresh = "refresh"

	// serviceAccountClientIDPrefix is used to infer service-accountness
	// from legacy tokens that carry no schema_version/type discriminator.
	serviceAccountClientIDPrefix = "sa_"
)

// Common errors returned by claim validation.
var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInvalidTokenType   = errors.New("invalid token type")
	ErrTokenSigningFailed = errors.New("failed to sign token")
	ErrMissingRequired    = errors.New("token is missing a required claim")
)

// Claims is the UnifiedJWT payload shared by admin-module, storage-element,
// ingester, and query. It carries either an admin_user or a
// service_account subject, discriminated by Type.
type Claims struct {
	jwt.RegisteredClaims

	// Type discriminates the subject kind. Legacy tokens may instead carry
	// "access" or "refresh"; service-accountness is then inferred from the
	// ClientID prefix "sa_".
	Type string `json:"type"`

	// Role is the subject's role: SUPER_ADMIN | ADMIN | READONLY for
	// admin users, or the configured role string for service accounts.
	Role string `json:"role"`

	// Name is a display name for the subject (admin username or service
	// account name).
	Name string `json:"name"`

	// ClientID is set only for service-account tokens.
	ClientID string `json:"client_id,omitempty"`

	// RateLimit is the service account's requests-per-minute budget,
	// embedded so rate-limiting middleware needs no database lookup.
	RateLimit int `json:"rate_limit,omitempty"`
}

// IsServiceAccount reports whether these claims identify a service account,
// using the modern Type discriminator and falling back to the legacy
// client_id-prefix inference for pre-unification tokens.
func (c *Claims) IsServiceAccount() bool {
	if c.Type == string(SubjectServiceAccount) {
		return true
	}
	if c.isLegacy() {
		return strings.HasPrefix(c.ClientID, serviceAccountClientIDPrefix)
	}
	return false
}

// IsAdminUser reports whether these claims identify an admin user.
func (c *Claims) IsAdminUser() bool {
	if c.Type == string(SubjectAdminUser) {
		return true
	}
	if c.isLegacy() {
		return !strings.HasPrefix(c.ClientID, serviceAccountClientIDPrefix)
	}
	return false
}

// isLegacy reports whether Type holds a pre-unification value.
func (c *Claims) isLegacy() bool {
	return c.Type == legacyTypeAccess || c.Type == legacyTypeRefresh
}

// Validate checks that the required UnifiedJWT fields are present. It does
// not verify the signature; callers use jwt.ParseWithClaims for that.
func (c *Claims) Validate() error {
	if c.Subject == "" {
		return ErrMissingRequired
	}
	if c.Type == "" {
		return ErrMissingRequired
	}
	if c.Role == "" {
		return ErrMissingRequired
	}
	if c.ID == "" { // jti
		return ErrMissingRequired
	}
	if c.ExpiresAt == nil || c.IssuedAt == nil {
		return ErrMissingRequired
	}
	return nil
}
