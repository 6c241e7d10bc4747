package apiclient

import "time"

// ServiceAccountInfo mirrors pkg/adminmodule.ServiceAccount's JSON shape
// as seen by an authenticated admin caller. ClientSecret is only ever
// populated by CreateServiceAccount and RotateServiceAccountSecret,
// which return it exactly once.
type ServiceAccountInfo struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	ClientID        string     `json:"client_id"`
	ClientSecret    string     `json:"client_secret,omitempty"`
	Role            string     `json:"role"`
	Status          string     `json:"status"`
	RateLimit       int        `json:"rate_limit"`
	Environment     string     `json:"environment"`
	IsSystem        bool       `json:"is_system"`
	SecretExpiresAt *time.Time `json:"secret_expires_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateServiceAccountRequest is the body for registering a new
// service account with the admin-module.
type CreateServiceAccountRequest struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	RateLimit   int    `json:"rate_limit,omitempty"`
	Environment string `json:"environment,omitempty"`
}

// ListServiceAccounts calls the admin-module's GET /api/v1/service-accounts.
func (c *Client) ListServiceAccounts() ([]ServiceAccountInfo, error) {
	return listResources[ServiceAccountInfo](c, "/api/v1/service-accounts")
}

// GetServiceAccount calls the admin-module's GET /api/v1/service-accounts/{id}.
func (c *Client) GetServiceAccount(id string) (*ServiceAccountInfo, error) {
	return getResource[ServiceAccountInfo](c, resourcePath("/api/v1/service-accounts/%s", id))
}

// CreateServiceAccount calls the admin-module's POST /api/v1/service-accounts.
// The returned ClientSecret is shown only this once.
func (c *Client) CreateServiceAccount(req CreateServiceAccountRequest) (*ServiceAccountInfo, error) {
	return createResource[ServiceAccountInfo](c, "/api/v1/service-accounts", req)
}

// UpdateServiceAccountStatus calls the admin-module's
// POST /api/v1/service-accounts/{id}/status.
func (c *Client) UpdateServiceAccountStatus(id, status string) (*ServiceAccountInfo, error) {
	req := struct {
		Status string `json:"status"`
	}{Status: status}
	return createResource[ServiceAccountInfo](c, resourcePath("/api/v1/service-accounts/%s/status", id), req)
}

// RotateServiceAccountSecret calls the admin-module's
// POST /api/v1/service-accounts/{id}/rotate-secret. The returned
// ClientSecret is shown only this once.
func (c *Client) RotateServiceAccountSecret(id string) (*ServiceAccountInfo, error) {
	return createResource[ServiceAccountInfo](c, resourcePath("/api/v1/service-accounts/%s/rotate-secret", id), struct{}{})
}

// DeleteServiceAccount calls the admin-module's DELETE /api/v1/service-accounts/{id}.
func (c *Client) DeleteServiceAccount(id string) error {
	return deleteResource(c, resourcePath("/api/v1/service-accounts/%s", id))
}
