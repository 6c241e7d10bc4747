package eventbus

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Producer publishes file events onto StreamFileEvents. Admin-module
// constructs one and calls Publish after every file create/update/delete
// or storage-element mode change.
type Producer struct {
	client *redis.Client
}

// NewProducer creates a Producer bound to the given Redis client.
func NewProducer(client *redis.Client) *Producer {
	return &Producer{client: client}
}

// Publish XADDs the event with an approximate MAXLEN cap and returns the
// Redis-assigned stream ID.
func (p *Producer) Publish(ctx context.Context, event *Event) (string, error) {
	values := map[string]interface{}{
		"event_type":         string(event.EventType),
		"timestamp":          event.Timestamp.Format(timeLayout),
		"file_id":            event.FileID,
		"storage_element_id": event.StorageElementID,
	}
	if event.Metadata != "" {
		values["metadata"] = event.Metadata
	}
	if event.DeletedAt != "" {
		values["deleted_at"] = event.DeletedAt
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamFileEvents,
		MaxLen: StreamMaxLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("publish file event: %w", err)
	}

	return id, nil
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"
