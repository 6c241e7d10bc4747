package redisdiscovery

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Registry is used by a storage-element's health reporter to publish its
// own liveness and capacity: a hash of current stats, and membership in
// a per-mode sorted set ordered by priority for the ingester's selector.
type Registry struct {
	client *redis.Client
}

// NewRegistry creates a Registry bound to the given Redis client.
func NewRegistry(client *redis.Client) *Registry {
	return &Registry{client: client}
}

// Report writes the element's hash and, if it is writable and not full,
// maintains its membership in storage:{mode}:by_priority. Read-only modes
// (RO, AR) and FULL elements are removed from every priority set since
// they are never selection candidates.
func (r *Registry) Report(ctx context.Context, el *StorageElement) error {
	hashKey := elementHashKey(el.ID)
	ttl := ElementTTL()

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, hashKey, map[string]interface{}{
		"id":              el.ID,
		"name":            el.Name,
		"api_url":         el.APIURL,
		"mode":            string(el.Mode),
		"status":          string(el.Status),
		"capacity_bytes":  el.CapacityBytes,
		"used_bytes":      el.UsedBytes,
		"file_count":      el.FileCount,
		"priority":        el.Priority,
		"capacity_status": string(el.CapacityStatus),
		"reported_at":     time.Now().Format(time.RFC3339),
	})
	pipe.Expire(ctx, hashKey, ttl)

	eligible := (el.Mode == ModeEdit || el.Mode == ModeRW) &&
		el.Status == StatusOnline &&
		el.CapacityStatus != CapacityFull

	for _, mode := range []StorageMode{ModeEdit, ModeRW, ModeRO, ModeAR} {
		zkey := priorityZSetKey(mode)
		if eligible && mode == el.Mode {
			pipe.ZAdd(ctx, zkey, redis.Z{Score: float64(el.Priority), Member: el.ID})
			pipe.Expire(ctx, zkey, ttl)
		} else {
			pipe.ZRem(ctx, zkey, el.ID)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("report storage element state: %w", err)
	}
	return nil
}

// Deregister removes an element from its hash and every priority sorted
// set, called on graceful shutdown.
func (r *Registry) Deregister(ctx context.Context, id string) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, elementHashKey(id))
	for _, mode := range []StorageMode{ModeEdit, ModeRW, ModeRO, ModeAR} {
		pipe.ZRem(ctx, priorityZSetKey(mode), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deregister storage element: %w", err)
	}
	return nil
}

// EligibleMembers returns element IDs from storage:{mode}:by_priority in
// priority order (lowest first), with Redis's own lexicographic tie-break
// for equal scores giving deterministic ordering on ties.
func (r *Registry) EligibleMembers(ctx context.Context, mode StorageMode) ([]string, error) {
	ids, err := r.client.ZRange(ctx, priorityZSetKey(mode), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list eligible members for mode %s: %w", mode, err)
	}
	return ids, nil
}

// Element fetches a single element's hash, parsing numeric fields back
// into a StorageElement. Returns (nil, nil) if the hash has expired or
// was never reported (the element went offline or was never registered).
func (r *Registry) Element(ctx context.Context, id string) (*StorageElement, error) {
	fields, err := r.client.HGetAll(ctx, elementHashKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch storage element hash: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	capacityBytes, _ := strconv.ParseInt(fields["capacity_bytes"], 10, 64)
	usedBytes, _ := strconv.ParseInt(fields["used_bytes"], 10, 64)
	fileCount, _ := strconv.ParseInt(fields["file_count"], 10, 64)
	priority, _ := strconv.ParseUint(fields["priority"], 10, 16)

	return &StorageElement{
		ID:             fields["id"],
		Name:           fields["name"],
		APIURL:         fields["api_url"],
		Mode:           StorageMode(fields["mode"]),
		Status:         StorageElementStatus(fields["status"]),
		CapacityBytes:  capacityBytes,
		UsedBytes:      usedBytes,
		FileCount:      fileCount,
		Priority:       uint16(priority),
		CapacityStatus: CapacityStatus(fields["capacity_status"]),
	}, nil
}
