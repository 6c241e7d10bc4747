package storageelement

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/artstore/artstore/pkg/httpapi"
	"github.com/artstore/artstore/pkg/metrics"
)

// byteRange is a single parsed, end-inclusive, bounds-clamped range.
type byteRange struct {
	start, end int64 // inclusive
}

func (r byteRange) length() int64 { return r.end - r.start + 1 }

// parseRangeHeader parses "bytes=a-b[,c-d,...]" per RFC 7233, supporting
// suffix ("-N") and open-ended ("N-") forms, clamping end to size-1.
// Returns ErrRangeNotSatisfiable if no requested range overlaps the
// resource; a syntactically invalid header is reported the same way a
// caller that sent no Range header would be (nil, nil), since a malformed
// Range header must be ignored, not rejected with 400.
func parseRangeHeader(header string, size int64) ([]byteRange, error) {
	if header == "" {
		return nil, nil
	}
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return nil, nil
	}
	spec := strings.TrimPrefix(header, prefix)

	var ranges []byteRange
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		dash := strings.IndexByte(part, '-')
		if dash < 0 {
			return nil, nil
		}

		startStr, endStr := part[:dash], part[dash+1:]

		var r byteRange
		switch {
		case startStr == "" && endStr == "":
			return nil, nil
		case startStr == "":
			// Suffix range: last N bytes.
			n, err := strconv.ParseInt(endStr, 10, 64)
			if err != nil || n <= 0 {
				return nil, nil
			}
			if n > size {
				n = size
			}
			r = byteRange{start: size - n, end: size - 1}
		case endStr == "":
			start, err := strconv.ParseInt(startStr, 10, 64)
			if err != nil || start < 0 {
				return nil, nil
			}
			r = byteRange{start: start, end: size - 1}
		default:
			start, err1 := strconv.ParseInt(startStr, 10, 64)
			end, err2 := strconv.ParseInt(endStr, 10, 64)
			if err1 != nil || err2 != nil || start < 0 {
				return nil, nil
			}
			if end > size-1 {
				end = size - 1
			}
			r = byteRange{start: start, end: end}
		}

		if r.start >= size || r.start > r.end {
			return nil, ErrRangeNotSatisfiable
		}
		ranges = append(ranges, r)
	}

	if len(ranges) == 0 {
		return nil, nil
	}
	return ranges, nil
}

// computeETag derives a strong ETag from size, modification time, and the
// normalized path, quoted per RFC 7232.
func computeETag(size int64, modTime time.Time, path string) string {
	return fmt.Sprintf(`"%x-%x-%x"`, size, modTime.UnixNano(), hashPath(path))
}

func hashPath(path string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(path); i++ {
		h ^= uint32(path[i])
		h *= 16777619
	}
	return h
}

// ifModifiedSince parses the If-Modified-Since header per HTTP-date
// (RFC 7231 §7.1.1.1). A malformed header is ignored, not rejected.
func ifModifiedSince(header string) (time.Time, bool) {
	if header == "" {
		return time.Time{}, false
	}
	t, err := http.ParseTime(header)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ServeDownload writes dataPath to w, honoring Range, If-None-Match, and
// If-Modified-Since per RFC 7233/7232.
func ServeDownload(w http.ResponseWriter, r *http.Request, dataPath, contentType string) error {
	info, err := os.Stat(dataPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return err
	}

	etag := computeETag(info.Size(), info.ModTime(), dataPath)
	w.Header().Set("ETag", etag)
	w.Header().Set("Accept-Ranges", "bytes")

	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		metrics.DownloadsTotal.WithLabelValues("not_modified").Inc()
		w.WriteHeader(http.StatusNotModified)
		return nil
	}
	if t, ok := ifModifiedSince(r.Header.Get("If-Modified-Since")); ok && !info.ModTime().Truncate(time.Second).After(t) {
		metrics.DownloadsTotal.WithLabelValues("not_modified").Inc()
		w.WriteHeader(http.StatusNotModified)
		return nil
	}

	ranges, err := parseRangeHeader(r.Header.Get("Range"), info.Size())
	if err == ErrRangeNotSatisfiable {
		metrics.DownloadsTotal.WithLabelValues("not_satisfiable").Inc()
		httpapi.RangeNotSatisfiable(w, info.Size())
		return nil
	}
	if err != nil {
		return err
	}

	f, err := os.Open(dataPath)
	if err != nil {
		return err
	}
	defer f.Close()

	switch len(ranges) {
	case 0:
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
		w.WriteHeader(http.StatusOK)
		n, err := io.Copy(w, f)
		metrics.DownloadsTotal.WithLabelValues("full").Inc()
		metrics.DownloadBytesTotal.Add(float64(n))
		return err

	case 1:
		rg := ranges[0]
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", rg.start, rg.end, info.Size()))
		w.Header().Set("Content-Length", strconv.FormatInt(rg.length(), 10))
		w.WriteHeader(http.StatusPartialContent)
		n, err := io.CopyN(w, io.NewSectionReader(f, rg.start, rg.length()), rg.length())
		metrics.DownloadsTotal.WithLabelValues("range").Inc()
		metrics.DownloadBytesTotal.Add(float64(n))
		return err

	default:
		metrics.DownloadsTotal.WithLabelValues("range").Inc()
		return serveMultipartRanges(w, f, ranges, info.Size(), contentType)
	}
}

// serveMultipartRanges writes a multipart/byteranges response, one part
// per requested range, each with its own Content-Type/Content-Range.
func serveMultipartRanges(w http.ResponseWriter, f *os.File, ranges []byteRange, size int64, contentType string) error {
	mw := multipart.NewWriter(w)
	w.Header().Set("Content-Type", "multipart/byteranges; boundary="+mw.Boundary())
	w.WriteHeader(http.StatusPartialContent)

	for _, rg := range ranges {
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", contentType)
		header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", rg.start, rg.end, size))

		part, err := mw.CreatePart(header)
		if err != nil {
			return err
		}
		if _, err := io.CopyN(part, io.NewSectionReader(f, rg.start, rg.length()), rg.length()); err != nil {
			return err
		}
	}

	return mw.Close()
}

// ServeObjectDownload is ServeDownload's counterpart for S3 elements:
// metadata comes from the cache row and the attr sidecar's local mtime,
// bytes from (optionally ranged) GetObject calls.
func (e *Element) ServeObjectDownload(w http.ResponseWriter, r *http.Request, entry *CacheEntry) error {
	key := e.dataObjectKey(entry.DataPath)
	size := entry.FileSize

	modTime := entry.UpdatedAt
	if info, err := os.Stat(attrPath(entry.DataPath)); err == nil {
		modTime = info.ModTime()
	}

	etag := computeETag(size, modTime, key)
	w.Header().Set("ETag", etag)
	w.Header().Set("Accept-Ranges", "bytes")

	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		metrics.DownloadsTotal.WithLabelValues("not_modified").Inc()
		w.WriteHeader(http.StatusNotModified)
		return nil
	}
	if t, ok := ifModifiedSince(r.Header.Get("If-Modified-Since")); ok && !modTime.Truncate(time.Second).After(t) {
		metrics.DownloadsTotal.WithLabelValues("not_modified").Inc()
		w.WriteHeader(http.StatusNotModified)
		return nil
	}

	ranges, err := parseRangeHeader(r.Header.Get("Range"), size)
	if err == ErrRangeNotSatisfiable {
		metrics.DownloadsTotal.WithLabelValues("not_satisfiable").Inc()
		httpapi.RangeNotSatisfiable(w, size)
		return nil
	}
	if err != nil {
		return err
	}

	switch len(ranges) {
	case 0:
		body, err := e.objects.Get(r.Context(), key, nil)
		if err != nil {
			return err
		}
		defer body.Close()

		w.Header().Set("Content-Type", entry.ContentType)
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		n, err := io.Copy(w, body)
		metrics.DownloadsTotal.WithLabelValues("full").Inc()
		metrics.DownloadBytesTotal.Add(float64(n))
		return err

	case 1:
		rg := ranges[0]
		body, err := e.objects.Get(r.Context(), key, &rg)
		if err != nil {
			return err
		}
		defer body.Close()

		w.Header().Set("Content-Type", entry.ContentType)
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", rg.start, rg.end, size))
		w.Header().Set("Content-Length", strconv.FormatInt(rg.length(), 10))
		w.WriteHeader(http.StatusPartialContent)
		n, err := io.Copy(w, body)
		metrics.DownloadsTotal.WithLabelValues("range").Inc()
		metrics.DownloadBytesTotal.Add(float64(n))
		return err

	default:
		metrics.DownloadsTotal.WithLabelValues("range").Inc()
		return e.serveMultipartObjectRanges(w, r, key, ranges, size, entry.ContentType)
	}
}

// serveMultipartObjectRanges writes a multipart/byteranges response from
// one ranged GetObject per part.
func (e *Element) serveMultipartObjectRanges(w http.ResponseWriter, r *http.Request, key string, ranges []byteRange, size int64, contentType string) error {
	mw := multipart.NewWriter(w)
	w.Header().Set("Content-Type", "multipart/byteranges; boundary="+mw.Boundary())
	w.WriteHeader(http.StatusPartialContent)

	for _, rg := range ranges {
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", contentType)
		header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", rg.start, rg.end, size))

		part, err := mw.CreatePart(header)
		if err != nil {
			return err
		}

		body, err := e.objects.Get(r.Context(), key, &rg)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, body); err != nil {
			body.Close()
			return err
		}
		body.Close()
	}

	return mw.Close()
}
