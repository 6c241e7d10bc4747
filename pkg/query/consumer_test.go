package query

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/artstore/artstore/pkg/apiclient"
	"github.com/artstore/artstore/pkg/eventbus"
)

func newTestConsumer(t *testing.T) (*eventbus.Producer, *eventbus.Consumer) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	consumer := eventbus.NewConsumer(client, "query", "query-test")
	require.NoError(t, consumer.EnsureGroup(ctx))
	return eventbus.NewProducer(client), consumer
}

// newFakeAdmin stands in for the admin-module's GET /api/v1/files/{id},
// the only call the indexer makes outbound.
func newFakeAdmin(t *testing.T, files map[string]apiclient.FileRegistration) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fileID := r.URL.Path[len("/api/v1/files/"):]
		file, ok := files[fileID]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "not found"})
			return
		}
		_ = json.NewEncoder(w).Encode(file)
	}))
	t.Cleanup(srv.Close)
	return apiclient.New(srv.URL)
}

func testModeChangedEvent(storageElementID, streamID string) *eventbus.Event {
	return &eventbus.Event{
		EventType:        eventbus.EventModeChanged,
		Timestamp:        time.Now(),
		StorageElementID: storageElementID,
		StreamID:         streamID,
	}
}

func TestIndexer_FileCreatedHydratesFromAdmin(t *testing.T) {
	store := setupTestStore(t)
	producer, consumer := newTestConsumer(t)
	admin := newFakeAdmin(t, map[string]apiclient.FileRegistration{
		"file-10": {
			FileID:           "file-10",
			OriginalFilename: "invoice.pdf",
			ContentType:      "application/pdf",
			FileSize:         4096,
			StorageElementID: "se-1",
			StoragePath:      "ab/cd/file-10",
		},
	})
	idx := NewIndexer(consumer, store, admin)
	ctx := context.Background()

	_, err := producer.Publish(ctx, &eventbus.Event{
		EventType:        eventbus.EventFileCreated,
		Timestamp:        time.Now(),
		FileID:           "file-10",
		StorageElementID: "se-1",
	})
	require.NoError(t, err)

	events, err := consumer.Read(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)

	idx.applyAll(ctx, events)

	rec, err := store.GetByID(ctx, "file-10")
	require.NoError(t, err)
	require.Equal(t, "invoice.pdf", rec.OriginalFilename)
	require.Equal(t, "se-1", rec.StorageElementID)

	processed, err := store.IsProcessed(ctx, events[0].StreamID)
	require.NoError(t, err)
	require.True(t, processed, "a successfully applied event must be marked processed and acked")

	// Acked entries leave the PEL; re-reading with ">" must yield nothing.
	more, err := consumer.Read(ctx, 10, 0)
	require.NoError(t, err)
	require.Empty(t, more)
}

func TestIndexer_FileDeletedMarksSoftDeleted(t *testing.T) {
	store := setupTestStore(t)
	producer, consumer := newTestConsumer(t)
	admin := newFakeAdmin(t, map[string]apiclient.FileRegistration{
		"file-11": {FileID: "file-11", OriginalFilename: "temp.txt", StorageElementID: "se-1", StoragePath: "p/file-11"},
	})
	idx := NewIndexer(consumer, store, admin)
	ctx := context.Background()

	_, err := producer.Publish(ctx, &eventbus.Event{EventType: eventbus.EventFileCreated, Timestamp: time.Now(), FileID: "file-11"})
	require.NoError(t, err)
	events, err := consumer.Read(ctx, 10, 0)
	require.NoError(t, err)
	idx.applyAll(ctx, events)

	_, err = producer.Publish(ctx, &eventbus.Event{
		EventType: eventbus.EventFileDeleted,
		Timestamp: time.Now(),
		FileID:    "file-11",
		DeletedAt: time.Now().Format(time.RFC3339),
	})
	require.NoError(t, err)
	events, err = consumer.Read(ctx, 10, 0)
	require.NoError(t, err)
	idx.applyAll(ctx, events)

	_, err = store.GetByID(ctx, "file-11")
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestIndexer_UnknownAdminFileLeavesEventUnacked(t *testing.T) {
	store := setupTestStore(t)
	producer, consumer := newTestConsumer(t)
	admin := newFakeAdmin(t, map[string]apiclient.FileRegistration{}) // admin has nothing
	idx := NewIndexer(consumer, store, admin)
	ctx := context.Background()

	_, err := producer.Publish(ctx, &eventbus.Event{EventType: eventbus.EventFileCreated, Timestamp: time.Now(), FileID: "ghost"})
	require.NoError(t, err)
	events, err := consumer.Read(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)

	idx.applyAll(ctx, events)

	processed, err := store.IsProcessed(ctx, events[0].StreamID)
	require.NoError(t, err)
	require.False(t, processed, "a failed apply must not be marked processed, so it stays in the PEL for retry")
}

func TestIndexer_ModeChangedMarksProcessedWithoutIndexing(t *testing.T) {
	store := setupTestStore(t)
	producer, consumer := newTestConsumer(t)
	admin := newFakeAdmin(t, nil)
	idx := NewIndexer(consumer, store, admin)
	ctx := context.Background()

	_, err := producer.Publish(ctx, &eventbus.Event{
		EventType:        eventbus.EventModeChanged,
		Timestamp:        time.Now(),
		StorageElementID: "se-9",
	})
	require.NoError(t, err)
	events, err := consumer.Read(ctx, 10, 0)
	require.NoError(t, err)
	idx.applyAll(ctx, events)

	processed, err := store.IsProcessed(ctx, events[0].StreamID)
	require.NoError(t, err)
	require.True(t, processed)
}

func TestIndexer_AlreadyProcessedEventIsSkipped(t *testing.T) {
	store := setupTestStore(t)
	_, consumer := newTestConsumer(t)
	admin := newFakeAdmin(t, map[string]apiclient.FileRegistration{
		"file-12": {FileID: "file-12", OriginalFilename: "a.txt", StorageElementID: "se-1", StoragePath: "p/file-12"},
	})
	idx := NewIndexer(consumer, store, admin)
	ctx := context.Background()

	event := &eventbus.Event{EventType: eventbus.EventFileCreated, FileID: "file-12", StreamID: "99-0"}
	require.NoError(t, idx.apply(ctx, event))

	// Simulate the admin-module becoming unreachable: a redelivery of the
	// same stream id must short-circuit on IsProcessed rather than fail.
	admin2 := newFakeAdmin(t, nil)
	idx2 := NewIndexer(consumer, store, admin2)
	require.NoError(t, idx2.apply(ctx, event))
}
