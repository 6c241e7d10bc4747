package eventbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/artstore/artstore/internal/logger"
)

// Consumer reads from StreamFileEvents via a named consumer group,
// acknowledging processed entries and reclaiming + retrying (or
// dead-lettering) entries abandoned by a crashed consumer.
type Consumer struct {
	client *redis.Client
	group  string
	name   string
}

// NewConsumer creates a Consumer for the given group and consumer name.
// Call EnsureGroup once before the first Read.
func NewConsumer(client *redis.Client, group, consumerName string) *Consumer {
	return &Consumer{client: client, group: group, name: consumerName}
}

// EnsureGroup creates the consumer group at the end of the stream ("$"),
// tolerating the group already existing.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, StreamFileEvents, c.group, "$").Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		if isBusyGroup(err) {
			return nil
		}
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

func isBusyGroup(err error) bool {
	return err != nil && len(err.Error()) >= 9 && err.Error()[:9] == "BUSYGROUP"
}

// Read blocks up to block for new entries delivered to this consumer and
// parses them into Events. A block of zero or less returns at once. An
// empty result on timeout is not an error.
func (c *Consumer) Read(ctx context.Context, count int64, block time.Duration) ([]*Event, error) {
	if block <= 0 {
		block = -1 // go-redis omits BLOCK for negative values; BLOCK 0 would wait forever
	}
	res, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.name,
		Streams:  []string{StreamFileEvents, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read consumer group: %w", err)
	}

	var events []*Event
	for _, stream := range res {
		for _, msg := range stream.Messages {
			events = append(events, parseMessage(msg))
		}
	}
	return events, nil
}

// Ack acknowledges successfully processed entries, removing them from the
// group's Pending Entry List.
func (c *Consumer) Ack(ctx context.Context, streamIDs ...string) error {
	if len(streamIDs) == 0 {
		return nil
	}
	if err := c.client.XAck(ctx, StreamFileEvents, c.group, streamIDs...).Err(); err != nil {
		return fmt.Errorf("ack file events: %w", err)
	}
	return nil
}

// ReclaimStale finds entries idle longer than ClaimMinIdle, claims them for
// this consumer, and returns those still under MaxDeliveries for
// reprocessing. Entries that have exceeded MaxDeliveries are moved to
// StreamDeadLetter and acknowledged off the original stream.
func (c *Consumer) ReclaimStale(ctx context.Context, limit int64) ([]*Event, error) {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: StreamFileEvents,
		Group:  c.group,
		Start:  "-",
		End:    "+",
		Count:  limit,
		Idle:   ClaimMinIdle,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list pending entries: %w", err)
	}
	if len(pending) == 0 {
		return nil, nil
	}

	var toDeadLetter, toClaim []string
	deliveryCount := make(map[string]int64, len(pending))
	for _, p := range pending {
		deliveryCount[p.ID] = p.RetryCount
		if p.RetryCount >= MaxDeliveries {
			toDeadLetter = append(toDeadLetter, p.ID)
		} else {
			toClaim = append(toClaim, p.ID)
		}
	}

	if len(toDeadLetter) > 0 {
		if err := c.deadLetter(ctx, toDeadLetter); err != nil {
			logger.Error("dead-letter move failed", logger.Err(err))
		}
	}

	if len(toClaim) == 0 {
		return nil, nil
	}

	msgs, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   StreamFileEvents,
		Group:    c.group,
		Consumer: c.name,
		MinIdle:  ClaimMinIdle,
		Messages: toClaim,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("claim stale entries: %w", err)
	}

	events := make([]*Event, 0, len(msgs))
	for _, msg := range msgs {
		events = append(events, parseMessage(msg))
	}
	return events, nil
}

// deadLetter copies each entry's raw fields onto StreamDeadLetter and
// acknowledges it off the primary stream so it never redelivers there.
func (c *Consumer) deadLetter(ctx context.Context, streamIDs []string) error {
	for _, id := range streamIDs {
		msgs, err := c.client.XRange(ctx, StreamFileEvents, id, id).Result()
		if err != nil || len(msgs) == 0 {
			continue
		}
		values := msgs[0].Values
		values["original_stream_id"] = id
		if err := c.client.XAdd(ctx, &redis.XAddArgs{
			Stream: StreamDeadLetter,
			Values: values,
		}).Err(); err != nil {
			return fmt.Errorf("xadd dead-letter: %w", err)
		}
		if err := c.client.XAck(ctx, StreamFileEvents, c.group, id).Err(); err != nil {
			return fmt.Errorf("ack dead-lettered entry: %w", err)
		}
	}
	return nil
}

func parseMessage(msg redis.XMessage) *Event {
	event := &Event{StreamID: msg.ID}
	if v, ok := msg.Values["event_type"].(string); ok {
		event.EventType = EventType(v)
	}
	if v, ok := msg.Values["timestamp"].(string); ok {
		if ts, err := time.Parse(timeLayout, v); err == nil {
			event.Timestamp = ts
		}
	}
	if v, ok := msg.Values["file_id"].(string); ok {
		event.FileID = v
	}
	if v, ok := msg.Values["storage_element_id"].(string); ok {
		event.StorageElementID = v
	}
	if v, ok := msg.Values["metadata"].(string); ok {
		event.Metadata = v
	}
	if v, ok := msg.Values["deleted_at"].(string); ok {
		event.DeletedAt = v
	}
	return event
}
