package adminmodule

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/artstore/artstore/internal/logger"
)

// auditQueueSize bounds the buffered channel; when it is full, Record
// drops the new entry rather than blocking the request path.
const auditQueueSize = 1024

// AuditEvent describes one administrative mutation to be recorded.
type AuditEvent struct {
	Actor      string
	ActorType  string // admin_user | service_account | system
	Action     string
	Resource   string
	ResourceID string
	Detail     map[string]any
}

// AuditLog writes audit entries asynchronously: callers post to a
// buffered channel and a single background goroutine drains it into the
// registry's audit_log table, so a slow or contended database write never
// adds latency to the request that triggered it.
type AuditLog struct {
	store   *Store
	queue   chan AuditEvent
	dropped atomic.Int64
	done    chan struct{}
}

// NewAuditLog creates an AuditLog and starts its drain goroutine. Call
// Close to stop the goroutine during shutdown.
func NewAuditLog(store *Store) *AuditLog {
	a := &AuditLog{
		store: store,
		queue: make(chan AuditEvent, auditQueueSize),
		done:  make(chan struct{}),
	}
	go a.drain()
	return a
}

// Record enqueues an audit entry. Never blocks: if the queue is full, the
// event is dropped and the drop counter is incremented.
func (a *AuditLog) Record(event AuditEvent) {
	select {
	case a.queue <- event:
	default:
		a.dropped.Add(1)
		logger.Warn("audit log queue full, dropping entry", "action", event.Action, "resource", event.Resource)
	}
}

// Dropped returns the number of audit entries dropped so far because the
// queue was full; exposed for metrics.
func (a *AuditLog) Dropped() int64 {
	return a.dropped.Load()
}

// Close signals the drain goroutine to stop; the goroutine writes the
// entries still queued and then exits. Close returns without waiting for
// that flush.
func (a *AuditLog) Close() {
	close(a.done)
}

func (a *AuditLog) drain() {
	for {
		select {
		case event := <-a.queue:
			a.write(event)
		case <-a.done:
			// Flush whatever remains without blocking indefinitely.
			for {
				select {
				case event := <-a.queue:
					a.write(event)
				default:
					return
				}
			}
		}
	}
}

func (a *AuditLog) write(event AuditEvent) {
	detailJSON := ""
	if event.Detail != nil {
		if encoded, err := json.Marshal(event.Detail); err == nil {
			detailJSON = string(encoded)
		}
	}

	entry := &AuditLogEntry{
		ID:         uuid.NewString(),
		Actor:      event.Actor,
		ActorType:  event.ActorType,
		Action:     event.Action,
		Resource:   event.Resource,
		ResourceID: event.ResourceID,
		DetailJSON: detailJSON,
		CreatedAt:  time.Now(),
	}

	if err := a.store.db.WithContext(context.Background()).Create(entry).Error; err != nil {
		logger.Error("failed to write audit log entry", logger.Err(err))
	}
}

func (s *Store) ListAuditLog(ctx context.Context, limit int) ([]*AuditLogEntry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var entries []*AuditLogEntry
	if err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
