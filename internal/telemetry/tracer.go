package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for ArtStore operations.
// These follow OpenTelemetry semantic conventions where applicable.
// Cross-service keys use the "artstore." prefix, filesystem-level keys "fs.".
const (
	AttrFileID          = "artstore.file_id"
	AttrElementID       = "artstore.element_id"
	AttrStorageFilename = "artstore.storage_filename"
	AttrMode            = "artstore.mode"
	AttrCapacityStatus  = "artstore.capacity_status"
	AttrEventType       = "artstore.event_type"
	AttrStreamID        = "artstore.stream_id"
	AttrClientID        = "artstore.client_id"
	AttrKeyVersion      = "artstore.key_version"
	AttrUploadedBy      = "artstore.uploaded_by"

	AttrPath     = "fs.path"
	AttrSize     = "fs.size"
	AttrChecksum = "fs.checksum"

	AttrBucket = "storage.bucket"
	AttrKey    = "storage.key"
)

// Span names for operations.
// Format: <component>.<operation>.
const (
	SpanUpload        = "storage_element.upload"
	SpanDownload      = "storage_element.download"
	SpanDelete        = "storage_element.delete"
	SpanWALRecovery   = "storage_element.wal_recovery"
	SpanReconcile     = "storage_element.reconcile"
	SpanSelect        = "ingester.select_element"
	SpanProxyUpload   = "ingester.proxy_upload"
	SpanEventPublish  = "events.publish"
	SpanEventConsume  = "events.consume"
	SpanKeyRotation   = "admin.key_rotation"
	SpanTokenIssue    = "admin.token_issue"
	SpanSearch        = "query.search"
)

// FileID returns an attribute for a file's registry identifier.
func FileID(id string) attribute.KeyValue {
	return attribute.String(AttrFileID, id)
}

// ElementID returns an attribute for a storage element's stable tag.
func ElementID(id string) attribute.KeyValue {
	return attribute.String(AttrElementID, id)
}

// StorageFilename returns an attribute for the derived on-disk filename.
func StorageFilename(name string) attribute.KeyValue {
	return attribute.String(AttrStorageFilename, name)
}

// Mode returns an attribute for a storage element's mode.
func Mode(mode string) attribute.KeyValue {
	return attribute.String(AttrMode, mode)
}

// CapacityStatus returns an attribute for an element's capacity status.
func CapacityStatus(status string) attribute.KeyValue {
	return attribute.String(AttrCapacityStatus, status)
}

// EventType returns an attribute for a file-event's type.
func EventType(t string) attribute.KeyValue {
	return attribute.String(AttrEventType, t)
}

// StreamID returns an attribute for a Redis Stream entry id.
func StreamID(id string) attribute.KeyValue {
	return attribute.String(AttrStreamID, id)
}

// ClientID returns an attribute for a service account's client id.
func ClientID(id string) attribute.KeyValue {
	return attribute.String(AttrClientID, id)
}

// KeyVersion returns an attribute for a JWT signing key version.
func KeyVersion(version string) attribute.KeyValue {
	return attribute.String(AttrKeyVersion, version)
}

// UploadedBy returns an attribute for the uploading identity.
func UploadedBy(name string) attribute.KeyValue {
	return attribute.String(AttrUploadedBy, name)
}

// FSPath returns an attribute for a file path.
func FSPath(path string) attribute.KeyValue {
	return attribute.String(AttrPath, path)
}

// FSSize returns an attribute for a byte size.
func FSSize(size int64) attribute.KeyValue {
	return attribute.Int64(AttrSize, size)
}

// Checksum returns an attribute for a SHA-256 hex digest.
func Checksum(hex string) attribute.KeyValue {
	return attribute.String(AttrChecksum, hex)
}

// Bucket returns an attribute for an S3 bucket name.
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// StorageKey returns an attribute for an S3 object key.
func StorageKey(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// StartUploadSpan starts a span covering the atomic write protocol for
// one upload.
func StartUploadSpan(ctx context.Context, uploadedBy string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{UploadedBy(uploadedBy)}, attrs...)
	return StartSpan(ctx, SpanUpload, trace.WithAttributes(allAttrs...))
}

// StartSelectSpan starts a span covering one storage-element selection.
func StartSelectSpan(ctx context.Context, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanSelect, trace.WithAttributes(attrs...))
}

// StartEventSpan starts a span for producing or consuming one
// file-event; name should be SpanEventPublish or SpanEventConsume.
func StartEventSpan(ctx context.Context, name, eventType string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{EventType(eventType)}, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}
