package redisdiscovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/artstore/artstore/internal/logger"
)

// Subscriber is used by ingester and query to track the live topology: it
// hydrates once from the TTL'd snapshot key, then applies live updates
// from the pub/sub channel, discarding any snapshot whose version does
// not advance the one already held.
type Subscriber struct {
	client      *redis.Client
	lastVersion int64
}

// NewSubscriber creates a Subscriber bound to the given Redis client.
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Hydrate loads the current snapshot from TopologySnapshotKey. Returns
// (nil, nil) if no snapshot has ever been published (empty registry).
func (s *Subscriber) Hydrate(ctx context.Context) (*Snapshot, error) {
	payload, err := s.client.Get(ctx, TopologySnapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hydrate topology snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("decode topology snapshot: %w", err)
	}

	s.lastVersion = snapshot.Version
	return &snapshot, nil
}

// Watch subscribes to TopologyChannel and streams snapshots with a
// strictly increasing version on the returned channel. It runs until ctx
// is cancelled. Snapshots with a version at or below the last one
// observed (from Hydrate or a prior Watch delivery) are silently dropped.
func (s *Subscriber) Watch(ctx context.Context) (<-chan *Snapshot, error) {
	pubsub := s.client.Subscribe(ctx, TopologyChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe to topology channel: %w", err)
	}

	out := make(chan *Snapshot, 8)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var snapshot Snapshot
				if err := json.Unmarshal([]byte(msg.Payload), &snapshot); err != nil {
					logger.Error("topology snapshot decode failed", logger.Err(err))
					continue
				}
				if snapshot.Version <= s.lastVersion {
					continue
				}
				s.lastVersion = snapshot.Version

				select {
				case out <- &snapshot:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
