package apiclient

import "time"

// FileRegistration is the request body for the admin-module's file
// registry, mirroring pkg/adminmodule.File's JSON shape.
type FileRegistration struct {
	FileID               string     `json:"file_id"`
	OriginalFilename     string     `json:"original_filename"`
	StorageFilename      string     `json:"storage_filename"`
	FileSize             int64      `json:"file_size"`
	ChecksumSHA256       string     `json:"checksum_sha256"`
	ContentType          string     `json:"content_type,omitempty"`
	Description          string     `json:"description,omitempty"`
	RetentionPolicy      string     `json:"retention_policy"`
	TTLDays              *int       `json:"ttl_days,omitempty"`
	StorageElementID     string     `json:"storage_element_id"`
	StoragePath          string     `json:"storage_path"`
	Compressed           bool       `json:"compressed,omitempty"`
	CompressionAlgorithm string     `json:"compression_algorithm,omitempty"`
	OriginalSize         *int64     `json:"original_size,omitempty"`
	UploadedBy           string     `json:"uploaded_by,omitempty"`
	UploadSourceIP       string     `json:"upload_source_ip,omitempty"`
	CreatedAt            *time.Time `json:"created_at,omitempty"`
}

type registerFileResponse struct {
	FileID string `json:"file_id"`
}

// RegisterFile calls the admin-module's POST /api/v1/files, the
// service-to-service call the ingester makes once a storage-element has
// committed an upload.
func (c *Client) RegisterFile(file FileRegistration) (string, error) {
	resp, err := createResource[registerFileResponse](c, "/api/v1/files", file)
	if err != nil {
		return "", err
	}
	return resp.FileID, nil
}

// GetFile calls the admin-module's GET /api/v1/files/{file_id}, the
// service-to-service call the query consumer makes to hydrate its search
// index after a file-events delivery (the event itself carries only the
// file ID, not the record's fields).
func (c *Client) GetFile(fileID string) (*FileRegistration, error) {
	return getResource[FileRegistration](c, resourcePath("/api/v1/files/%s", fileID))
}

// ListFiles calls the admin-module's GET /api/v1/files.
func (c *Client) ListFiles() ([]FileRegistration, error) {
	return listResources[FileRegistration](c, "/api/v1/files")
}

// FinalizeFile calls the admin-module's POST /api/v1/files/{file_id}/finalize,
// confirming a file's upload is durable and ready to be served.
func (c *Client) FinalizeFile(fileID string) (*FileRegistration, error) {
	return createResource[FileRegistration](c, resourcePath("/api/v1/files/%s/finalize", fileID), struct{}{})
}

// UpdateFileMetadataRequest is the body for updating a file's mutable
// metadata fields.
type UpdateFileMetadataRequest struct {
	Description     string `json:"description,omitempty"`
	RetentionPolicy string `json:"retention_policy,omitempty"`
	TTLDays         *int   `json:"ttl_days,omitempty"`
}

// UpdateFileMetadata calls the admin-module's PATCH /api/v1/files/{file_id}.
func (c *Client) UpdateFileMetadata(fileID string, req UpdateFileMetadataRequest) (*FileRegistration, error) {
	return patchResource[FileRegistration](c, resourcePath("/api/v1/files/%s", fileID), req)
}

// DeleteFile calls the admin-module's DELETE /api/v1/files/{file_id}.
func (c *Client) DeleteFile(fileID string) error {
	return deleteResource(c, resourcePath("/api/v1/files/%s", fileID))
}
