// Package redisdiscovery implements the topology bus that admin-module,
// ingester, and query use to track the live set of storage elements:
// a pub/sub channel carrying full snapshots, a TTL'd key for late
// subscribers to bootstrap from, and per-element hashes + sorted sets
// that the storage-element's own health reporter maintains.
package redisdiscovery

import "time"

// Topology channel, snapshot key, and element bookkeeping constants.
const (
	// TopologyChannel is the pub/sub channel admin-module publishes full
	// snapshots on whenever a storage element is created, updated,
	// deleted, or on a periodic heartbeat.
	TopologyChannel = "artstore:service_discovery"

	// TopologySnapshotKey mirrors the latest snapshot so a subscriber that
	// starts after the last publish can still bootstrap.
	TopologySnapshotKey = "artstore:storage_elements"

	// TopologySnapshotTTL bounds how long a stale snapshot key is trusted.
	TopologySnapshotTTL = 1 * time.Hour

	// elementHashKeyPrefix is the per-element health hash
	// "storage:elements:{id}".
	elementHashKeyPrefix = "storage:elements:"

	// priorityZSetPrefix is the per-mode sorted set
	// "storage:{mode}:by_priority".
	priorityZSetPrefix = "storage:"
	priorityZSetSuffix = ":by_priority"

	// elementHeartbeatInterval is how often the storage-element health
	// reporter refreshes its hash and sorted-set membership.
	elementHeartbeatInterval = 10 * time.Second

	// elementTTLMultiplier sets the hash/membership TTL relative to the
	// heartbeat interval, so a missed beat or two doesn't evict a live
	// element.
	elementTTLMultiplier = 3
)

// ElementTTL is the TTL applied to a storage element's hash and sorted-set
// membership.
func ElementTTL() time.Duration {
	return elementHeartbeatInterval * elementTTLMultiplier
}

// StorageElementStatus mirrors the admin-module's operational status enum.
type StorageElementStatus string

const (
	StatusOnline      StorageElementStatus = "ONLINE"
	StatusDegraded    StorageElementStatus = "DEGRADED"
	StatusMaintenance StorageElementStatus = "MAINTENANCE"
	StatusOffline     StorageElementStatus = "OFFLINE"
)

// StorageMode mirrors the storage-element mode state machine.
type StorageMode string

const (
	ModeEdit StorageMode = "EDIT"
	ModeRW   StorageMode = "RW"
	ModeRO   StorageMode = "RO"
	ModeAR   StorageMode = "AR"
)

// CapacityStatus is the adaptive capacity classification computed by the
// ingester's selector (see pkg/ingester) and reported by each element.
type CapacityStatus string

const (
	CapacityOK       CapacityStatus = "OK"
	CapacityWarning  CapacityStatus = "WARNING"
	CapacityCritical CapacityStatus = "CRITICAL"
	CapacityFull     CapacityStatus = "FULL"
)

// StorageElement is the canonical admin-module shape mirrored into Redis.
// Only this shape is modeled; see DESIGN.md for the rejected alternate.
type StorageElement struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	APIURL         string               `json:"api_url"`
	Mode           StorageMode          `json:"mode"`
	Status         StorageElementStatus `json:"status"`
	CapacityBytes  int64                `json:"capacity_bytes"`
	UsedBytes      int64                `json:"used_bytes"`
	FileCount      int64                `json:"file_count"`
	Priority       uint16               `json:"priority"`
	CapacityStatus CapacityStatus       `json:"capacity_status"`
}

// Snapshot is the full topology payload published on TopologyChannel and
// mirrored into TopologySnapshotKey.
type Snapshot struct {
	Version         int64             `json:"version"`
	Timestamp       time.Time         `json:"timestamp"`
	Count           int               `json:"count"`
	StorageElements []*StorageElement `json:"storage_elements"`
}

func priorityZSetKey(mode StorageMode) string {
	return priorityZSetPrefix + string(mode) + priorityZSetSuffix
}

func elementHashKey(id string) string {
	return elementHashKeyPrefix + id
}
