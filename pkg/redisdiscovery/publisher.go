package redisdiscovery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// versionCounterKey is a Redis INCR counter shared across admin-module
// replicas so the monotonic version survives a leader change.
const versionCounterKey = "artstore:topology:version"

// Publisher is used by admin-module to broadcast topology snapshots.
type Publisher struct {
	client *redis.Client
}

// NewPublisher creates a Publisher bound to the given Redis client.
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishSnapshot assigns the next monotonic version, mirrors the snapshot
// into TopologySnapshotKey with a TTL, and publishes it on TopologyChannel.
func (p *Publisher) PublishSnapshot(ctx context.Context, elements []*StorageElement) error {
	version, err := p.client.Incr(ctx, versionCounterKey).Result()
	if err != nil {
		return fmt.Errorf("allocate topology version: %w", err)
	}

	snapshot := &Snapshot{
		Version:         version,
		Timestamp:       time.Now(),
		Count:           len(elements),
		StorageElements: elements,
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal topology snapshot: %w", err)
	}

	pipe := p.client.Pipeline()
	pipe.Set(ctx, TopologySnapshotKey, payload, TopologySnapshotTTL)
	pipe.Publish(ctx, TopologyChannel, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish topology snapshot: %w", err)
	}

	return nil
}
