package apiclient

import (
	"fmt"
	"net/http"
)

// APIError is a decoded RFC 7807 problem response from an ArtStore
// service, carrying the stable machine code alongside the HTTP status.
type APIError struct {
	StatusCode int    `json:"status,omitempty"`
	Code       string `json:"code,omitempty"`
	Title      string `json:"title,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.Code != "" && e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Detail)
	case e.Detail != "":
		return e.Detail
	case e.Code != "":
		return e.Code
	}
	return fmt.Sprintf("http status %d", e.StatusCode)
}

// IsAuthError returns true if this is an authentication or
// authorization error.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsNotFound returns true if this is a not found error.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsConflict returns true if this is a conflict error.
func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// IsValidationError returns true if this is a validation error.
func (e *APIError) IsValidationError() bool {
	return e.Code == "validation_failed" ||
		e.StatusCode == http.StatusBadRequest ||
		e.StatusCode == http.StatusUnprocessableEntity
}
