package storageelement

import "errors"

var (
	// ErrFileNotFound is returned when a file_id has no attr.json / cache row.
	ErrFileNotFound = errors.New("file not found")

	// ErrAttrTooLarge is returned when the encoded attr.json would exceed
	// the 4 KiB sidecar size cap.
	ErrAttrTooLarge = errors.New("attr.json exceeds 4096 byte limit")

	// ErrDeclaredSizeMismatch is returned when the bytes actually streamed
	// don't match a caller-declared content length.
	ErrDeclaredSizeMismatch = errors.New("uploaded size does not match declared size")

	// ErrChecksumMismatch is returned when an externally supplied checksum
	// doesn't match the SHA-256 computed over the streamed bytes.
	ErrChecksumMismatch = errors.New("checksum does not match uploaded bytes")

	// ErrInsufficientStorage is returned when the element has no room for
	// an incoming upload of the declared size.
	ErrInsufficientStorage = errors.New("insufficient storage capacity")

	// ErrPathTraversal is returned when a supplied path component would
	// escape the element's base_path.
	ErrPathTraversal = errors.New("path traversal rejected")

	// ErrInvalidModeTransition is returned for a forbidden mode change.
	ErrInvalidModeTransition = errors.New("invalid storage mode transition")

	// ErrModeForbidsOperation is returned when the element's current mode
	// doesn't permit the requested operation (e.g. delete while RO).
	ErrModeForbidsOperation = errors.New("current storage mode forbids this operation")

	// ErrRangeNotSatisfiable is returned by range parsing when no byte of
	// the requested range falls within the resource.
	ErrRangeNotSatisfiable = errors.New("requested range not satisfiable")

	// ErrReconcileBusy is returned when a higher- or equal-priority
	// reconciliation operation is already holding the exclusive lock.
	ErrReconcileBusy = errors.New("a reconciliation operation is already running")
)
