// Package httpapi provides the shared HTTP response conventions used by all
// four ArtStore services: RFC-7807 problem responses, plain JSON helpers, and
// request logging middleware.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Problem represents an RFC 7807 "problem details" response, extended with a
// stable machine-readable Code so clients can branch on it without parsing
// Detail strings.
// https://tools.ietf.org/html/rfc7807
type Problem struct {
	// Type is a URI reference that identifies the problem type.
	// If not set, defaults to "about:blank".
	Type string `json:"type,omitempty"`

	// Title is a short, human-readable summary of the problem type.
	Title string `json:"title"`

	// Status is the HTTP status code for this occurrence of the problem.
	Status int `json:"status"`

	// Detail is a human-readable explanation specific to this occurrence.
	Detail string `json:"detail,omitempty"`

	// Instance is a URI reference that identifies the specific occurrence.
	Instance string `json:"instance,omitempty"`

	// Code is a stable machine-readable error code, e.g. "capacity_full".
	Code string `json:"code,omitempty"`
}

// ContentTypeProblemJSON is the Content-Type for RFC 7807 problem responses.
const ContentTypeProblemJSON = "application/problem+json"

// WriteProblem writes an RFC 7807 problem response with a machine code.
func WriteProblem(w http.ResponseWriter, status int, code, title, detail string) {
	problem := &Problem{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: detail,
		Code:   code,
	}

	w.Header().Set("Content-Type", ContentTypeProblemJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem)
}

// Common problem helper functions for standard HTTP errors.

// BadRequest writes a 400 Bad Request problem response.
func BadRequest(w http.ResponseWriter, code, detail string) {
	WriteProblem(w, http.StatusBadRequest, code, "Bad Request", detail)
}

// Unauthorized writes a 401 Unauthorized problem response.
func Unauthorized(w http.ResponseWriter, code, detail string) {
	WriteProblem(w, http.StatusUnauthorized, code, "Unauthorized", detail)
}

// Forbidden writes a 403 Forbidden problem response.
func Forbidden(w http.ResponseWriter, code, detail string) {
	WriteProblem(w, http.StatusForbidden, code, "Forbidden", detail)
}

// NotFound writes a 404 Not Found problem response.
func NotFound(w http.ResponseWriter, code, detail string) {
	WriteProblem(w, http.StatusNotFound, code, "Not Found", detail)
}

// Conflict writes a 409 Conflict problem response.
func Conflict(w http.ResponseWriter, code, detail string) {
	WriteProblem(w, http.StatusConflict, code, "Conflict", detail)
}

// UnprocessableEntity writes a 422 Unprocessable Entity problem response.
func UnprocessableEntity(w http.ResponseWriter, code, detail string) {
	WriteProblem(w, http.StatusUnprocessableEntity, code, "Unprocessable Entity", detail)
}

// TooManyRequests writes a 429 Too Many Requests problem response and sets
// Retry-After if retryAfterSeconds is positive.
func TooManyRequests(w http.ResponseWriter, code, detail string, retryAfterSeconds int) {
	if retryAfterSeconds > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	WriteProblem(w, http.StatusTooManyRequests, code, "Too Many Requests", detail)
}

// InsufficientStorage writes a 507 Insufficient Storage problem response.
func InsufficientStorage(w http.ResponseWriter, code, detail string) {
	WriteProblem(w, http.StatusInsufficientStorage, code, "Insufficient Storage", detail)
}

// RangeNotSatisfiable writes a 416 Range Not Satisfiable problem response
// with the mandatory Content-Range: bytes */N header.
func RangeNotSatisfiable(w http.ResponseWriter, totalSize int64) {
	w.Header().Set("Content-Range", "bytes */"+strconv.FormatInt(totalSize, 10))
	WriteProblem(w, http.StatusRequestedRangeNotSatisfiable, "range_not_satisfiable",
		"Range Not Satisfiable", "the requested range cannot be satisfied")
}

// InternalServerError writes a 500 Internal Server Error problem response.
func InternalServerError(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusInternalServerError, "internal_error", "Internal Server Error", detail)
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteJSONOK writes a 200 OK JSON response.
func WriteJSONOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteJSONCreated writes a 201 Created JSON response.
func WriteJSONCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
