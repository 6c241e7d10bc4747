package apiclient

import "time"

// StorageElementInfo mirrors pkg/adminmodule.StorageElement's JSON shape
// as seen by an authenticated admin caller.
type StorageElementInfo struct {
	ID              string     `json:"id"`
	ElementID       string     `json:"element_id"`
	Name            string     `json:"name"`
	Mode            string     `json:"mode"`
	StorageType     string     `json:"storage_type"`
	APIURL          string     `json:"api_url"`
	BasePath        string     `json:"base_path,omitempty"`
	CapacityBytes   int64      `json:"capacity_bytes"`
	UsedBytes       int64      `json:"used_bytes"`
	FileCount       int64      `json:"file_count"`
	Priority        uint16     `json:"priority"`
	RetentionDays   int        `json:"retention_days,omitempty"`
	Status          string     `json:"status"`
	LastHealthCheck *time.Time `json:"last_health_check,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateStorageElementRequest is the body for registering a new
// storage-element with the admin-module.
type CreateStorageElementRequest struct {
	ElementID     string `json:"element_id"`
	Name          string `json:"name"`
	Mode          string `json:"mode,omitempty"`
	StorageType   string `json:"storage_type,omitempty"`
	APIURL        string `json:"api_url"`
	BasePath      string `json:"base_path,omitempty"`
	CapacityBytes int64  `json:"capacity_bytes,omitempty"`
	Priority      uint16 `json:"priority,omitempty"`
	RetentionDays int    `json:"retention_days,omitempty"`
}

// ListStorageElements calls the admin-module's GET /api/v1/storage-elements.
func (c *Client) ListStorageElements() ([]StorageElementInfo, error) {
	return listResources[StorageElementInfo](c, "/api/v1/storage-elements")
}

// GetStorageElement calls the admin-module's GET /api/v1/storage-elements/{id}.
func (c *Client) GetStorageElement(id string) (*StorageElementInfo, error) {
	return getResource[StorageElementInfo](c, resourcePath("/api/v1/storage-elements/%s", id))
}

// CreateStorageElement calls the admin-module's POST /api/v1/storage-elements.
func (c *Client) CreateStorageElement(req CreateStorageElementRequest) (*StorageElementInfo, error) {
	return createResource[StorageElementInfo](c, "/api/v1/storage-elements", req)
}

// UpdateStorageElementRequest is the body for updating a storage-element's
// mutable fields.
type UpdateStorageElementRequest struct {
	Name          string `json:"name,omitempty"`
	Priority      uint16 `json:"priority,omitempty"`
	RetentionDays int    `json:"retention_days,omitempty"`
	CapacityBytes int64  `json:"capacity_bytes,omitempty"`
}

// UpdateStorageElement calls the admin-module's PATCH /api/v1/storage-elements/{id}.
func (c *Client) UpdateStorageElement(id string, req UpdateStorageElementRequest) (*StorageElementInfo, error) {
	return patchResource[StorageElementInfo](c, resourcePath("/api/v1/storage-elements/%s", id), req)
}

// TransitionStorageElementMode calls the admin-module's
// POST /api/v1/storage-elements/{id}/mode.
func (c *Client) TransitionStorageElementMode(id, mode string) (*StorageElementInfo, error) {
	req := struct {
		Mode string `json:"mode"`
	}{Mode: mode}
	return createResource[StorageElementInfo](c, resourcePath("/api/v1/storage-elements/%s/mode", id), req)
}

// DeleteStorageElement calls the admin-module's DELETE /api/v1/storage-elements/{id}.
func (c *Client) DeleteStorageElement(id string) error {
	return deleteResource(c, resourcePath("/api/v1/storage-elements/%s", id))
}
