// Package eventbus implements the at-least-once file-event plane: admin-module
// produces onto a capped Redis Stream after every file mutation; query
// consumes via a named consumer group, acknowledging on success and
// retrying from the Pending Entry List on failure, with unprocessable
// messages moved to a dead-letter stream after a bounded number of
// retries.
package eventbus

import "time"

const (
	// StreamFileEvents is the primary at-least-once file event stream.
	StreamFileEvents = "file-events"

	// StreamDeadLetter receives messages that exceeded MaxDeliveries.
	StreamDeadLetter = "file-events-dlq"

	// StreamMaxLen is the approximate cap passed to XADD's MAXLEN ~ form;
	// Redis trims lazily so this is a soft bound, not exact.
	StreamMaxLen = 1_000_000

	// MaxDeliveries bounds how many times a message may be claimed and
	// retried before it is moved to the dead-letter stream.
	MaxDeliveries = 5

	// ClaimMinIdle is how long a message must sit unacknowledged in the
	// PEL before another consumer may claim and retry it.
	ClaimMinIdle = 30 * time.Second
)

// EventType enumerates the file lifecycle transitions that publish events.
type EventType string

const (
	EventFileCreated EventType = "file:created"
	EventFileUpdated EventType = "file:updated"
	EventFileDeleted EventType = "file:deleted"
	EventModeChanged EventType = "storage_element:mode_changed"
)

// Event is the flat field set XADD writes for each stream entry.
type Event struct {
	EventType        EventType `json:"event_type"`
	Timestamp        time.Time `json:"timestamp"`
	FileID           string    `json:"file_id"`
	StorageElementID string    `json:"storage_element_id"`
	Metadata         string    `json:"metadata,omitempty"`    // JSON-encoded, mutation-specific
	DeletedAt        string    `json:"deleted_at,omitempty"`  // RFC3339, set only for EventFileDeleted

	// StreamID is the Redis-assigned entry ID, populated on read.
	StreamID string `json:"-"`
}

// IdempotencyKey returns the composite key consumers use to dedupe
// reprocessed deliveries: file_id + event_type + stream_id.
func (e *Event) IdempotencyKey() string {
	return e.FileID + ":" + string(e.EventType) + ":" + e.StreamID
}
