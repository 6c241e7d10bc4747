package ingester

import "errors"

var (
	// ErrNoEligibleElement is returned when no storage element in the
	// registry is writable, online, and under its FULL threshold.
	ErrNoEligibleElement = errors.New("ingester: no eligible storage element")

	// ErrFileTooLargeForCritical is returned when every eligible element
	// that could otherwise take the upload is reporting CRITICAL capacity
	// and the declared size exceeds the CRITICAL-only oversize limit.
	ErrFileTooLargeForCritical = errors.New("ingester: file too large for a storage element at critical capacity")

	// ErrMissingFilePart is returned when the incoming multipart form has
	// no "file" part.
	ErrMissingFilePart = errors.New("ingester: multipart form has no file part")
)
