package storageelement

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestParseRangeHeaderSingleRange(t *testing.T) {
	ranges, err := parseRangeHeader("bytes=0-99", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranges) != 1 || ranges[0].start != 0 || ranges[0].end != 99 {
		t.Errorf("unexpected ranges: %+v", ranges)
	}
}

func TestParseRangeHeaderSuffixRange(t *testing.T) {
	ranges, err := parseRangeHeader("bytes=-500", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranges) != 1 || ranges[0].start != 500 || ranges[0].end != 999 {
		t.Errorf("unexpected ranges: %+v", ranges)
	}
}

func TestParseRangeHeaderOpenEndedRange(t *testing.T) {
	ranges, err := parseRangeHeader("bytes=900-", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranges) != 1 || ranges[0].start != 900 || ranges[0].end != 999 {
		t.Errorf("unexpected ranges: %+v", ranges)
	}
}

func TestParseRangeHeaderClampsEndToSize(t *testing.T) {
	ranges, err := parseRangeHeader("bytes=0-9999", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ranges[0].end != 999 {
		t.Errorf("expected end clamped to 999, got %d", ranges[0].end)
	}
}

func TestParseRangeHeaderMultipleRanges(t *testing.T) {
	ranges, err := parseRangeHeader("bytes=0-99,200-299", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranges) != 2 {
		t.Fatalf("expected 2 ranges, got %d", len(ranges))
	}
}

func TestParseRangeHeaderUnsatisfiable(t *testing.T) {
	_, err := parseRangeHeader("bytes=5000-6000", 1000)
	if err != ErrRangeNotSatisfiable {
		t.Errorf("expected ErrRangeNotSatisfiable, got %v", err)
	}
}

func TestParseRangeHeaderMalformedIsIgnored(t *testing.T) {
	ranges, err := parseRangeHeader("bytes=abc-def", 1000)
	if err != nil {
		t.Errorf("expected malformed header to be ignored (nil error), got %v", err)
	}
	if ranges != nil {
		t.Errorf("expected no ranges parsed from malformed header, got %+v", ranges)
	}
}

func TestParseRangeHeaderEmptyHeaderReturnsNil(t *testing.T) {
	ranges, err := parseRangeHeader("", 1000)
	if err != nil || ranges != nil {
		t.Errorf("expected (nil, nil) for empty header, got (%v, %v)", ranges, err)
	}
}

func TestServeDownloadFullBody(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.bin")
	content := []byte("the quick brown fox jumps over the lazy dog")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/download", nil)
	rec := httptest.NewRecorder()

	if err := ServeDownload(rec, req, path, "text/plain"); err != nil {
		t.Fatalf("ServeDownload: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != string(content) {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestServeDownloadSingleRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.bin")
	content := []byte("0123456789")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/download", nil)
	req.Header.Set("Range", "bytes=2-5")
	rec := httptest.NewRecorder()

	if err := ServeDownload(rec, req, path, "text/plain"); err != nil {
		t.Fatalf("ServeDownload: %v", err)
	}
	if rec.Code != http.StatusPartialContent {
		t.Errorf("expected 206, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "2345" {
		t.Errorf("expected body %q, got %q", "2345", body)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 2-5/10" {
		t.Errorf("unexpected Content-Range: %q", got)
	}
}

func TestServeDownloadUnsatisfiableRangeReturns416(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.bin")
	if err := os.WriteFile(path, []byte("short"), 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/download", nil)
	req.Header.Set("Range", "bytes=1000-2000")
	rec := httptest.NewRecorder()

	if err := ServeDownload(rec, req, path, "text/plain"); err != nil {
		t.Fatalf("ServeDownload: %v", err)
	}
	if rec.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Errorf("expected 416, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes */5" {
		t.Errorf("unexpected Content-Range: %q", got)
	}
}

func TestServeDownloadIfNoneMatchReturns304(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.bin")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	first := httptest.NewRequest(http.MethodGet, "/download", nil)
	firstRec := httptest.NewRecorder()
	if err := ServeDownload(firstRec, first, path, "text/plain"); err != nil {
		t.Fatalf("ServeDownload: %v", err)
	}
	etag := firstRec.Header().Get("ETag")

	second := httptest.NewRequest(http.MethodGet, "/download", nil)
	second.Header.Set("If-None-Match", etag)
	secondRec := httptest.NewRecorder()
	if err := ServeDownload(secondRec, second, path, "text/plain"); err != nil {
		t.Fatalf("ServeDownload: %v", err)
	}
	if secondRec.Code != http.StatusNotModified {
		t.Errorf("expected 304, got %d", secondRec.Code)
	}
}

func TestServeDownloadMissingFileReturnsErrFileNotFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/download", nil)
	rec := httptest.NewRecorder()

	err := ServeDownload(rec, req, filepath.Join(t.TempDir(), "nope.bin"), "text/plain")
	if err != ErrFileNotFound {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
}
