package unifiedjwt

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(Config{}, newFakeKeyProvider(t))
}

func echoClaimsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaimsFromContext(r.Context())
		if claims == nil {
			w.WriteHeader(http.StatusTeapot) // unmistakable sentinel for "no claims"
			return
		}
		w.Header().Set("X-Subject", claims.Subject)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingBearerToken(t *testing.T) {
	service := newTestService(t)
	handler := Auth(service)(echoClaimsHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	service := newTestService(t)
	handler := Auth(service)(echoClaimsHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic deadbeef")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthAcceptsValidTokenAndInjectsClaims(t *testing.T) {
	service := newTestService(t)
	pair, err := service.GenerateTokenPair(Subject{ID: "admin-1", Type: SubjectAdminUser, Role: "ADMIN"})
	require.NoError(t, err)

	handler := Auth(service)(echoClaimsHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin-1", rec.Header().Get("X-Subject"))
}

func TestAuthRejectsTokenSignedByUnknownKey(t *testing.T) {
	service := newTestService(t)
	other := NewService(Config{}, newFakeKeyProvider(t))
	pair, err := other.GenerateTokenPair(Subject{ID: "admin-2", Type: SubjectAdminUser, Role: "ADMIN"})
	require.NoError(t, err)

	handler := Auth(service)(echoClaimsHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAuthPassesThroughWithoutToken(t *testing.T) {
	service := newTestService(t)
	handler := OptionalAuth(service)(echoClaimsHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code, "handler should run with nil claims rather than being rejected")
}

func TestOptionalAuthInjectsClaimsWhenPresent(t *testing.T) {
	service := newTestService(t)
	pair, err := service.GenerateTokenPair(Subject{ID: "admin-3", Type: SubjectAdminUser, Role: "READONLY"})
	require.NoError(t, err)

	handler := OptionalAuth(service)(echoClaimsHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin-3", rec.Header().Get("X-Subject"))
}

func TestRequireRoleAllowsMatchingRole(t *testing.T) {
	service := newTestService(t)
	pair, err := service.GenerateTokenPair(Subject{ID: "admin-4", Type: SubjectAdminUser, Role: "SUPER_ADMIN"})
	require.NoError(t, err)

	handler := Auth(service)(RequireRole("SUPER_ADMIN", "ADMIN")(echoClaimsHandler()))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleRejectsLowerRole(t *testing.T) {
	service := newTestService(t)
	pair, err := service.GenerateTokenPair(Subject{ID: "admin-5", Type: SubjectAdminUser, Role: "READONLY"})
	require.NoError(t, err)

	handler := Auth(service)(RequireRole("SUPER_ADMIN", "ADMIN")(echoClaimsHandler()))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServiceAccountClaimsExtractsRateLimit(t *testing.T) {
	service := newTestService(t)
	pair, err := service.GenerateTokenPair(Subject{
		ID: "sa_ingester-1", Type: SubjectServiceAccount, Role: "INGESTER", ClientID: "sa_ingester-1", RateLimit: 600,
	})
	require.NoError(t, err)

	var clientID string
	var rateLimit int
	var ok bool
	handler := Auth(service)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID, rateLimit, ok = ServiceAccountClaims(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, ok)
	assert.Equal(t, "sa_ingester-1", clientID)
	assert.Equal(t, 600, rateLimit)
}
