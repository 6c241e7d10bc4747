package query

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/artstore/artstore/pkg/redisdiscovery"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &Service{
		Store:    setupTestStore(t),
		Registry: redisdiscovery.NewRegistry(client),
		Redis:    client,
	}
}

func newSearchRouter(svc *Service) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Get("/api/v1/search", h.Search)
	r.Get("/api/v1/files/{file_id}/download", h.Download)
	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)
	return r
}

func TestHandler_SearchRequiresQuery(t *testing.T) {
	svc := newTestService(t)
	router := newSearchRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_SearchReturnsMatches(t *testing.T) {
	svc := newTestService(t)
	router := newSearchRouter(svc)
	ctx := context.Background()

	require.NoError(t, svc.Store.UpsertFile(ctx, &SearchRecord{
		FileID:           "file-100",
		OriginalFilename: "project-plan.docx",
		Description:      "roadmap for next quarter",
		StorageElementID: "se-1",
		StoragePath:      "p/file-100",
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}, "stream-h1", "file.created"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=roadmap", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "project-plan.docx")
}

func TestHandler_DownloadRedirectsToOwningElement(t *testing.T) {
	svc := newTestService(t)
	router := newSearchRouter(svc)
	ctx := context.Background()

	require.NoError(t, svc.Store.UpsertFile(ctx, &SearchRecord{
		FileID:           "file-101",
		OriginalFilename: "data.csv",
		StorageElementID: "se-7",
		StoragePath:      "p/file-101",
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}, "stream-h2", "file.created"))

	require.NoError(t, svc.Registry.Report(ctx, &redisdiscovery.StorageElement{
		ID:             "se-7",
		Name:           "se-7",
		APIURL:         "https://se-7.internal:8443",
		Mode:           redisdiscovery.ModeRW,
		Status:         redisdiscovery.StatusOnline,
		CapacityBytes:  100 << 30,
		UsedBytes:      0,
		Priority:       1,
		CapacityStatus: redisdiscovery.CapacityOK,
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/file-101/download", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "https://se-7.internal:8443/api/v1/files/file-101/download", rec.Header().Get("Location"))
}

func TestHandler_DownloadUnknownFileReturns404(t *testing.T) {
	svc := newTestService(t)
	router := newSearchRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/does-not-exist/download", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_LiveAndReady(t *testing.T) {
	svc := newTestService(t)
	router := newSearchRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
