package apiclient

// JWTKeyStatus mirrors one entry of the admin-module's
// GET /api/v1/jwt-keys/status response.
type JWTKeyStatus struct {
	Version       string `json:"version"`
	CreatedAt     string `json:"created_at"`
	ExpiresAt     string `json:"expires_at"`
	IsActive      bool   `json:"is_active"`
	RotationCount int    `json:"rotation_count"`
}

// JWTKeyStatusResponse is the admin-module's full key-status payload.
type JWTKeyStatusResponse struct {
	Keys        []JWTKeyStatus `json:"keys"`
	ActiveCount int            `json:"active_count"`
}

// JWTKeyStatus calls the admin-module's GET /api/v1/jwt-keys/status.
func (c *Client) JWTKeyStatus() (*JWTKeyStatusResponse, error) {
	return getResource[JWTKeyStatusResponse](c, "/api/v1/jwt-keys/status")
}

// RotateJWTKey calls the admin-module's POST /api/v1/jwt-keys/rotate,
// forcing an immediate signing key rotation.
func (c *Client) RotateJWTKey() error {
	return c.post("/api/v1/jwt-keys/rotate", struct{}{}, nil)
}
