package ingester

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/artstore/artstore/pkg/bufpool"
	"github.com/artstore/artstore/pkg/metrics"
)

// StreamRequest carries the parsed multipart upload on to the chosen
// storage element. Reader is consumed exactly once.
type StreamRequest struct {
	Reader              io.Reader
	Filename            string
	ContentType         string
	UploadedByID        string
	UploadedByUsername  string
	Description         string
	RetentionDays       int
	Tags                []string
	DeclaredSize        int64
	ExpectedChecksumHex string
}

// StreamResult mirrors the storage-element's UploadResult.
type StreamResult struct {
	FileID               string `json:"file_id"`
	StorageFilename      string `json:"storage_filename"`
	FileSize             int64  `json:"file_size"`
	ChecksumHex          string `json:"checksum_hex"`
	StoragePath          string `json:"storage_path"`
	Compressed           bool   `json:"compressed,omitempty"`
	CompressionAlgorithm string `json:"compression_algorithm,omitempty"`
	OriginalSize         int64  `json:"original_size,omitempty"`
}

// Proxy streams an upload's body through to a storage element's write
// path, copying in bufpool-backed chunks rather than buffering the whole
// file. On a 5xx or connection error the caller must not retry elsewhere
// once Stream has been called: the body may already be partially
// consumed by the chosen element.
type Proxy struct {
	httpClient *http.Client
}

func NewProxy() *Proxy {
	return &Proxy{
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// Stream uploads req to element's /api/v1/files/upload endpoint, using
// token as the bearer credential for the downstream call.
func (p *Proxy) Stream(ctx context.Context, apiURL, token string, req StreamRequest) (*StreamResult, error) {
	timer := metrics.NewTimer()
	defer func() { timer.ObserveDuration(metrics.IngestProxyDuration) }()

	pr, pw := io.Pipe()
	go func() {
		buf := bufpool.Get(bufpool.DefaultLargeSize)
		defer bufpool.Put(buf)

		n, err := io.CopyBuffer(pw, req.Reader, buf)
		metrics.IngestBytesTotal.Add(float64(n))
		pw.CloseWithError(err)
	}()

	q := url.Values{}
	q.Set("filename", req.Filename)
	q.Set("content_type", req.ContentType)
	q.Set("uploaded_by_id", req.UploadedByID)
	q.Set("uploaded_by_username", req.UploadedByUsername)
	q.Set("description", req.Description)
	if req.RetentionDays > 0 {
		q.Set("retention_days", strconv.Itoa(req.RetentionDays))
	}
	if len(req.Tags) > 0 {
		q.Set("tags", strings.Join(req.Tags, ","))
	}
	if req.DeclaredSize > 0 {
		q.Set("declared_size", strconv.FormatInt(req.DeclaredSize, 10))
	}
	if req.ExpectedChecksumHex != "" {
		q.Set("checksum", req.ExpectedChecksumHex)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/api/v1/files/upload?"+q.Encode(), pr)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/octet-stream")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stream to storage element: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("storage element rejected upload: status %d", resp.StatusCode)
	}

	var result StreamResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode storage element response: %w", err)
	}
	return &result, nil
}
