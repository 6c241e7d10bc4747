package redisdiscovery

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestPublishAndHydrateSnapshot(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	pub := NewPublisher(client)
	elements := []*StorageElement{{ID: "se-1", Name: "east-1", Mode: ModeRW, Status: StatusOnline, CapacityBytes: 100, UsedBytes: 10, Priority: 1}}
	require.NoError(t, pub.PublishSnapshot(ctx, elements))

	sub := NewSubscriber(client)
	snapshot, err := sub.Hydrate(ctx)
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, int64(1), snapshot.Version)
	assert.Equal(t, 1, snapshot.Count)
	assert.Equal(t, "se-1", snapshot.StorageElements[0].ID)
}

func TestHydrateEmptyReturnsNil(t *testing.T) {
	client := newTestClient(t)
	sub := NewSubscriber(client)

	snapshot, err := sub.Hydrate(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestWatchDropsStaleVersions(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := NewSubscriber(client)
	sub.lastVersion = 5 // simulate having already hydrated a newer snapshot

	updates, err := sub.Watch(ctx)
	require.NoError(t, err)

	pub := NewPublisher(client)
	// First two Incr calls land on versions 1 and 2, both stale relative
	// to lastVersion=5, so they must not surface on the channel.
	require.NoError(t, pub.PublishSnapshot(ctx, nil))
	require.NoError(t, pub.PublishSnapshot(ctx, nil))

	select {
	case snap := <-updates:
		t.Fatalf("expected stale snapshot to be dropped, got version %d", snap.Version)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatchDeliversAdvancingVersions(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := NewSubscriber(client)
	updates, err := sub.Watch(ctx)
	require.NoError(t, err)

	pub := NewPublisher(client)
	require.NoError(t, pub.PublishSnapshot(ctx, []*StorageElement{{ID: "se-2"}}))

	select {
	case snap := <-updates:
		require.NotNil(t, snap)
		assert.Equal(t, int64(1), snap.Version)
		assert.Equal(t, "se-2", snap.StorageElements[0].ID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for topology update")
	}
}

func TestRegistryReportAndEligibleMembers(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	registry := NewRegistry(client)

	eligible := &StorageElement{ID: "se-a", Mode: ModeRW, Status: StatusOnline, Priority: 5, CapacityStatus: CapacityOK}
	full := &StorageElement{ID: "se-b", Mode: ModeRW, Status: StatusOnline, Priority: 1, CapacityStatus: CapacityFull}
	readOnly := &StorageElement{ID: "se-c", Mode: ModeRO, Status: StatusOnline, Priority: 2, CapacityStatus: CapacityOK}

	require.NoError(t, registry.Report(ctx, eligible))
	require.NoError(t, registry.Report(ctx, full))
	require.NoError(t, registry.Report(ctx, readOnly))

	members, err := registry.EligibleMembers(ctx, ModeRW)
	require.NoError(t, err)
	assert.Equal(t, []string{"se-a"}, members, "FULL elements must not appear in the priority set")

	fetched, err := registry.Element(ctx, "se-a")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, uint16(5), fetched.Priority)
}

func TestRegistryDeregisterRemovesFromAllSets(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	registry := NewRegistry(client)

	el := &StorageElement{ID: "se-x", Mode: ModeEdit, Status: StatusOnline, Priority: 3, CapacityStatus: CapacityOK}
	require.NoError(t, registry.Report(ctx, el))

	require.NoError(t, registry.Deregister(ctx, "se-x"))

	members, err := registry.EligibleMembers(ctx, ModeEdit)
	require.NoError(t, err)
	assert.Empty(t, members)

	fetched, err := registry.Element(ctx, "se-x")
	require.NoError(t, err)
	assert.Nil(t, fetched)
}

func TestPriorityOrderingIsDeterministicOnTies(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	registry := NewRegistry(client)

	// Equal priority: Redis breaks ties lexicographically by member name.
	require.NoError(t, registry.Report(ctx, &StorageElement{ID: "se-z", Mode: ModeRW, Status: StatusOnline, Priority: 1, CapacityStatus: CapacityOK}))
	require.NoError(t, registry.Report(ctx, &StorageElement{ID: "se-a", Mode: ModeRW, Status: StatusOnline, Priority: 1, CapacityStatus: CapacityOK}))

	members, err := registry.EligibleMembers(ctx, ModeRW)
	require.NoError(t, err)
	assert.Equal(t, []string{"se-a", "se-z"}, members)
}
