package apiclient

import (
	"time"
)

// LoginRequest represents a login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse represents the response from login/refresh endpoints.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"` // seconds
	ExpiresAt    time.Time `json:"expires_at"`
}

// ExpiresInDuration returns ExpiresIn as a time.Duration.
func (t *TokenResponse) ExpiresInDuration() time.Duration {
	return time.Duration(t.ExpiresIn) * time.Second
}

// tokenRequest mirrors the admin-module's RFC-6749 §4.4/§6 token request
// body for the client-credentials and refresh-token grants.
type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// ClientCredentialsToken exchanges a service-account's client_id/secret
// for a token pair via the admin-module's OAuth2 client-credentials
// grant. Used by the ingester and query services to authenticate their
// own service-to-service calls.
func (c *Client) ClientCredentialsToken(clientID, clientSecret string) (*TokenResponse, error) {
	req := tokenRequest{
		GrantType:    "client_credentials",
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}

	var resp TokenResponse
	if err := c.post("/api/v1/auth/token", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login authenticates with the server and returns tokens.
func (c *Client) Login(username, password string) (*TokenResponse, error) {
	req := LoginRequest{
		Username: username,
		Password: password,
	}

	var resp TokenResponse
	if err := c.post("/api/v1/auth/login", req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// RefreshToken exchanges a refresh token for a fresh pair via the
// token endpoint's refresh_token grant. Works for both admin-user and
// service-account refresh tokens.
func (c *Client) RefreshToken(refreshToken string) (*TokenResponse, error) {
	req := tokenRequest{
		GrantType:    "refresh_token",
		RefreshToken: refreshToken,
	}

	var resp TokenResponse
	if err := c.post("/api/v1/auth/token", req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}
