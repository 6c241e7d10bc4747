package apiclient

import "time"

// AdminUserInfo mirrors pkg/adminmodule.AdminUser's JSON shape as seen by
// an authenticated admin caller. Password is only ever populated by
// CreateAdminUser and ResetAdminUserPassword, which return it exactly
// once.
type AdminUserInfo struct {
	ID                 string     `json:"id"`
	Username           string     `json:"username"`
	Password           string     `json:"password,omitempty"`
	Role               string     `json:"role"`
	IsSystem           bool       `json:"is_system"`
	MustChangePassword bool       `json:"must_change_password"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
	LockedUntil        *time.Time `json:"locked_until,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// CreateAdminUserRequest is the body for provisioning a new admin user.
// Password may be left blank to have the admin-module generate one.
type CreateAdminUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"`
}

// ListAdminUsers calls the admin-module's GET /api/v1/admin-users.
func (c *Client) ListAdminUsers() ([]AdminUserInfo, error) {
	return listResources[AdminUserInfo](c, "/api/v1/admin-users")
}

// GetAdminUser calls the admin-module's GET /api/v1/admin-users/{id}.
func (c *Client) GetAdminUser(id string) (*AdminUserInfo, error) {
	return getResource[AdminUserInfo](c, resourcePath("/api/v1/admin-users/%s", id))
}

// CreateAdminUser calls the admin-module's POST /api/v1/admin-users. The
// returned Password is shown only this once.
func (c *Client) CreateAdminUser(req CreateAdminUserRequest) (*AdminUserInfo, error) {
	return createResource[AdminUserInfo](c, "/api/v1/admin-users", req)
}

// ResetAdminUserPassword calls the admin-module's
// POST /api/v1/admin-users/{id}/reset-password. The returned Password is
// shown only this once.
func (c *Client) ResetAdminUserPassword(id string) (*AdminUserInfo, error) {
	return createResource[AdminUserInfo](c, resourcePath("/api/v1/admin-users/%s/reset-password", id), struct{}{})
}

// DeleteAdminUser calls the admin-module's DELETE /api/v1/admin-users/{id}.
func (c *Client) DeleteAdminUser(id string) error {
	return deleteResource(c, resourcePath("/api/v1/admin-users/%s", id))
}
