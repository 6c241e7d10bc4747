package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/artstore/artstore/internal/logger"
	"github.com/artstore/artstore/pkg/apiclient"
	"github.com/artstore/artstore/pkg/eventbus"
	"github.com/artstore/artstore/pkg/metrics"
)

// Indexer drains the file-events stream and keeps the search index
// current. Each delivery carries only identifiers — the consumer fetches
// the authoritative record from the admin-module before indexing it, so
// the index always reflects the admin-module's current view rather than
// a stale copy of whatever the event happened to carry.
type Indexer struct {
	consumer *eventbus.Consumer
	store    *Store
	admin    *apiclient.Client
}

func NewIndexer(consumer *eventbus.Consumer, store *Store, admin *apiclient.Client) *Indexer {
	return &Indexer{consumer: consumer, store: store, admin: admin}
}

// Run reads and applies events until ctx is cancelled, reclaiming stale
// pending entries once every ten pollIntervals alongside normal reads.
func (idx *Indexer) Run(ctx context.Context, pollInterval time.Duration) {
	reclaimTicker := time.NewTicker(pollInterval * 10)
	defer reclaimTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-reclaimTicker.C:
			idx.reclaim(ctx)
		default:
		}

		events, err := idx.consumer.Read(ctx, 50, pollInterval)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("file-events read failed", logger.Err(err))
			continue
		}
		idx.applyAll(ctx, events)
	}
}

func (idx *Indexer) reclaim(ctx context.Context) {
	events, err := idx.consumer.ReclaimStale(ctx, 100)
	if err != nil {
		logger.Error("file-events reclaim failed", logger.Err(err))
		return
	}
	idx.applyAll(ctx, events)
}

func (idx *Indexer) applyAll(ctx context.Context, events []*eventbus.Event) {
	var toAck []string
	for _, event := range events {
		timer := metrics.NewTimer()
		err := idx.apply(ctx, event)
		timer.ObserveDurationVec(metrics.EventProcessingDuration, string(event.EventType))

		if err != nil {
			metrics.EventsConsumedTotal.WithLabelValues(string(event.EventType), "error").Inc()
			logger.Error("failed to apply file event, leaving in PEL for retry",
				logger.Err(err), slog.String("event_type", string(event.EventType)), logger.FileID(event.FileID))
			continue
		}
		metrics.EventsConsumedTotal.WithLabelValues(string(event.EventType), "ok").Inc()
		toAck = append(toAck, event.StreamID)
	}

	if len(toAck) > 0 {
		if err := idx.consumer.Ack(ctx, toAck...); err != nil {
			logger.Error("failed to ack processed file events", logger.Err(err))
		}
	}
}

func (idx *Indexer) apply(ctx context.Context, event *eventbus.Event) error {
	processed, err := idx.store.IsProcessed(ctx, event.StreamID)
	if err != nil {
		return err
	}
	if processed {
		return nil
	}

	switch event.EventType {
	case eventbus.EventFileCreated, eventbus.EventFileUpdated:
		return idx.indexFromAdmin(ctx, event)
	case eventbus.EventFileDeleted:
		return idx.applyDeleted(ctx, event)
	case eventbus.EventModeChanged:
		// No search-index effect; mark processed so PEL doesn't keep
		// redelivering an event this consumer has nothing to do with.
		return idx.store.markReadOnlyEvent(ctx, event)
	default:
		return idx.store.markReadOnlyEvent(ctx, event)
	}
}

func (idx *Indexer) indexFromAdmin(ctx context.Context, event *eventbus.Event) error {
	file, err := idx.admin.GetFile(event.FileID)
	if err != nil {
		return err
	}

	createdAt := time.Now()
	if file.CreatedAt != nil {
		createdAt = *file.CreatedAt
	}

	rec := &SearchRecord{
		FileID:           file.FileID,
		OriginalFilename: file.OriginalFilename,
		ContentType:      file.ContentType,
		Description:      file.Description,
		UploadedBy:       file.UploadedBy,
		FileSize:         file.FileSize,
		StorageElementID: file.StorageElementID,
		StoragePath:      file.StoragePath,
		CreatedAt:        createdAt,
		UpdatedAt:        time.Now(),
	}
	return idx.store.UpsertFile(ctx, rec, event.StreamID, string(event.EventType))
}

func (idx *Indexer) applyDeleted(ctx context.Context, event *eventbus.Event) error {
	deletedAt := time.Now()
	if event.DeletedAt != "" {
		if ts, err := time.Parse(time.RFC3339, event.DeletedAt); err == nil {
			deletedAt = ts
		}
	}
	return idx.store.MarkDeleted(ctx, event.FileID, deletedAt, event.StreamID, string(event.EventType))
}
