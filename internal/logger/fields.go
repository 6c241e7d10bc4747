package logger

import "log/slog"

// Standard field keys for structured logging across ArtStore's four services.
// Use these keys consistently so log aggregation and querying stay uniform.
const (
	// Distributed tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Request identification
	KeyRequestID = "request_id"
	KeyService   = "service"
	KeyClientIP  = "client_ip"
	KeySubject   = "subject" // JWT sub claim

	// Domain identifiers
	KeyFileID           = "file_id"
	KeyStorageElementID = "storage_element_id"
	KeyTransactionID    = "transaction_id"
	KeyStoragePath      = "storage_path"

	// Operation metadata
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code"
	KeyOperation  = "operation"
	KeyStatus     = "status"

	// Capacity / storage
	KeySize         = "size_bytes"
	KeyUsedBytes    = "used_bytes"
	KeyCapacityPct  = "used_percent"
	KeyMode         = "mode"
	KeyPriority     = "priority"
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr { return slog.String(KeyTraceID, id) }

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr { return slog.String(KeySpanID, id) }

// FileID returns a slog.Attr for a file's identifier.
func FileID(id string) slog.Attr { return slog.String(KeyFileID, id) }

// StorageElementID returns a slog.Attr for a storage element's identifier.
func StorageElementID(id string) slog.Attr { return slog.String(KeyStorageElementID, id) }

// TransactionID returns a slog.Attr for a WAL transaction identifier.
func TransactionID(id string) slog.Attr { return slog.String(KeyTransactionID, id) }

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Operation returns a slog.Attr for sub-operation type
func Operation(op string) slog.Attr { return slog.String(KeyOperation, op) }

// Size returns a slog.Attr for byte size.
func Size(n int64) slog.Attr { return slog.Int64(KeySize, n) }
