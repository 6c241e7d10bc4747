package ingester

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/artstore/artstore/pkg/apiclient"
	"github.com/artstore/artstore/pkg/httpapi"
	"github.com/artstore/artstore/pkg/metrics"
	"github.com/artstore/artstore/pkg/unifiedjwt"
)

const maxMultipartMemory = 32 << 20 // in-memory limit for the parsed form; larger file parts spill to a temp file

var validUploadedBy = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Handler implements the ingester's single write-path endpoint.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// Upload handles POST /api/v1/upload: parse the incoming multipart form,
// select a writable storage element, stream the file through to it, and
// register the result with the admin-module's file registry.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		httpapi.BadRequest(w, "invalid_multipart_body", "request body must be a valid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		metrics.IngestSelectionsTotal.WithLabelValues("no_file_part").Inc()
		httpapi.BadRequest(w, "missing_file_part", ErrMissingFilePart.Error())
		return
	}
	defer file.Close()

	uploadedBy := r.FormValue("uploaded_by")
	if !validUploadedBy.MatchString(uploadedBy) {
		httpapi.BadRequest(w, "invalid_uploaded_by", "uploaded_by is required and must match [A-Za-z0-9_-]+")
		return
	}

	claims := unifiedjwt.GetClaimsFromContext(r.Context())
	uploadedByID := uploadedBy
	if claims != nil {
		uploadedByID = claims.Subject
	}

	var retentionDays int
	if v := r.FormValue("retention_days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 1 || days > 3650 {
			httpapi.BadRequest(w, "invalid_retention_days", "retention_days must be an integer between 1 and 3650")
			return
		}
		retentionDays = days
	}

	var tags []string
	if v := r.FormValue("tags"); v != "" {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	declaredSize := header.Size

	element, err := h.svc.Selector.Select(r.Context(), declaredSize)
	if err != nil {
		h.writeSelectionError(w, err)
		return
	}
	metrics.IngestSelectionsTotal.WithLabelValues("selected").Inc()

	result, err := h.svc.Proxy.Stream(r.Context(), element.APIURL, h.svc.ServiceToken(), StreamRequest{
		Reader:              file,
		Filename:            header.Filename,
		ContentType:         header.Header.Get("Content-Type"),
		UploadedByID:        uploadedByID,
		UploadedByUsername:  uploadedBy,
		Description:         r.FormValue("description"),
		RetentionDays:       retentionDays,
		Tags:                tags,
		DeclaredSize:        declaredSize,
		ExpectedChecksumHex: r.FormValue("checksum"),
	})
	if err != nil {
		httpapi.InternalServerError(w, "upload failed: storage element rejected or was unreachable")
		return
	}

	registration := apiclient.FileRegistration{
		FileID:           result.FileID,
		OriginalFilename: header.Filename,
		StorageFilename:  result.StorageFilename,
		FileSize:         result.FileSize,
		ChecksumSHA256:   result.ChecksumHex,
		ContentType:      header.Header.Get("Content-Type"),
		Description:      r.FormValue("description"),
		RetentionPolicy:  "TEMPORARY",
		StorageElementID: element.ID,
		StoragePath:      result.StoragePath,
		UploadedBy:       uploadedBy,
	}
	if retentionDays > 0 {
		registration.TTLDays = &retentionDays
	}
	if result.Compressed {
		registration.Compressed = true
		registration.CompressionAlgorithm = result.CompressionAlgorithm
		registration.OriginalSize = &result.OriginalSize
	}

	fileID, err := h.svc.Admin.RegisterFile(registration)
	if err != nil {
		httpapi.InternalServerError(w, "upload committed but file registration failed")
		return
	}

	httpapi.WriteJSONCreated(w, map[string]any{
		"file_id":            fileID,
		"storage_element_id": element.ID,
		"file_size":          result.FileSize,
	})
}

func (h *Handler) writeSelectionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoEligibleElement):
		metrics.IngestSelectionsTotal.WithLabelValues("no_eligible_element").Inc()
		httpapi.InsufficientStorage(w, "no_eligible_storage_element", "no writable storage element currently has room for this upload")
	case errors.Is(err, ErrFileTooLargeForCritical):
		metrics.IngestSelectionsTotal.WithLabelValues("rejected_large_file").Inc()
		httpapi.UnprocessableEntity(w, "file_too_large_for_critical", "file exceeds the size limit accepted by a storage element at critical capacity")
	default:
		httpapi.InternalServerError(w, "storage element selection failed")
	}
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	httpapi.WriteJSONOK(w, map[string]string{"status": "ok"})
}

// Ready handles GET /health/ready, checking the Redis connection the
// selector depends on.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.svc.Redis.Ping(ctx).Err(); err != nil {
		httpapi.InternalServerError(w, "redis unreachable")
		return
	}
	httpapi.WriteJSONOK(w, map[string]string{"status": "ready"})
}
