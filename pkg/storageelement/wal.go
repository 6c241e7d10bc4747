package storageelement

import (
	"encoding/json"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// OperationType enumerates the mutating file operations the WAL tracks.
type OperationType string

const (
	OpUpload        OperationType = "UPLOAD"
	OpDeleteFile    OperationType = "DELETE"
	OpUpdateMeta    OperationType = "UPDATE_METADATA"
	OpModeChange    OperationType = "MODE_CHANGE"
)

// TxStatus is the WAL entry's lifecycle state.
type TxStatus string

const (
	TxPending    TxStatus = "PENDING"
	TxInProgress TxStatus = "IN_PROGRESS"
	TxCommitted  TxStatus = "COMMITTED"
	TxFailed     TxStatus = "FAILED"
	TxRolledBack TxStatus = "ROLLED_BACK"
)

// IsTerminal reports whether status ends the entry's lifecycle.
func (s TxStatus) IsTerminal() bool {
	return s == TxCommitted || s == TxFailed || s == TxRolledBack
}

// Compensation describes how to undo a partially applied operation: the
// paths to remove if the operation failed partway through the write path.
// ObjectKey is set on storage_type=S3 elements, where the data bytes
// live in the bucket rather than at DataPath.
type Compensation struct {
	DataPath  string `json:"data_path,omitempty"`
	AttrPath  string `json:"attr_path,omitempty"`
	ObjectKey string `json:"object_key,omitempty"`
}

// WALEntry is a single write-ahead log record, strictly ordered
// PENDING -> IN_PROGRESS -> terminal, never written out of order.
type WALEntry struct {
	TransactionID    string         `json:"transaction_id"`
	OperationType    OperationType  `json:"operation_type"`
	Status           TxStatus       `json:"status"`
	Payload          map[string]any `json:"payload,omitempty"`
	CompensationData Compensation   `json:"compensation_data"`
	StartedAt        time.Time      `json:"started_at"`
	CommittedAt      *time.Time     `json:"committed_at,omitempty"`
	SagaID           string         `json:"saga_id,omitempty"`
	ErrorMessage     string         `json:"error_message,omitempty"`
	DurationMs       int64          `json:"duration_ms,omitempty"`
}

const walKeyPrefix = "wal:"

func walKey(transactionID string) []byte {
	return []byte(walKeyPrefix + transactionID)
}

// WAL is a badger-backed write-ahead log. One WAL lives per storage
// element, at a fixed path under the element's configuration directory
// (separate from the byte-storage base_path).
type WAL struct {
	db *badgerdb.DB
}

// OpenWAL opens (creating if absent) the badger database backing the WAL.
func OpenWAL(path string) (*WAL, error) {
	opts := badgerdb.DefaultOptions(path).WithLogger(nil)
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open WAL database: %w", err)
	}
	return &WAL{db: db}, nil
}

// Close releases the underlying badger database.
func (w *WAL) Close() error {
	return w.db.Close()
}

// Begin inserts a new PENDING entry, then immediately advances it to
// IN_PROGRESS, matching the "insert PENDING, mark IN_PROGRESS" contract:
// callers observe strictly ordered status writes with no gap a concurrent
// reader could witness as anything but PENDING then IN_PROGRESS.
func (w *WAL) Begin(op OperationType, payload map[string]any, compensation Compensation) (*WALEntry, error) {
	entry := &WALEntry{
		TransactionID:    uuid.New().String(),
		OperationType:    op,
		Status:           TxPending,
		Payload:          payload,
		CompensationData: compensation,
		StartedAt:        time.Now(),
	}
	if err := w.put(entry); err != nil {
		return nil, err
	}

	entry.Status = TxInProgress
	if err := w.put(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Commit marks the entry COMMITTED, recording duration.
func (w *WAL) Commit(entry *WALEntry) error {
	now := time.Now()
	entry.Status = TxCommitted
	entry.CommittedAt = &now
	entry.DurationMs = now.Sub(entry.StartedAt).Milliseconds()
	return w.put(entry)
}

// Fail marks the entry FAILED with the given error.
func (w *WAL) Fail(entry *WALEntry, cause error) error {
	now := time.Now()
	entry.Status = TxFailed
	entry.CommittedAt = &now
	entry.DurationMs = now.Sub(entry.StartedAt).Milliseconds()
	if cause != nil {
		entry.ErrorMessage = cause.Error()
	}
	return w.put(entry)
}

// RollBack marks the entry ROLLED_BACK after its compensation has run.
func (w *WAL) RollBack(entry *WALEntry) error {
	now := time.Now()
	entry.Status = TxRolledBack
	entry.CommittedAt = &now
	entry.DurationMs = now.Sub(entry.StartedAt).Milliseconds()
	return w.put(entry)
}

func (w *WAL) put(entry *WALEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode WAL entry: %w", err)
	}
	return w.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(walKey(entry.TransactionID), data)
	})
}

// Get fetches a single WAL entry by transaction ID.
func (w *WAL) Get(transactionID string) (*WALEntry, error) {
	var entry WALEntry
	err := w.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(walKey(transactionID))
		if err == badgerdb.ErrKeyNotFound {
			return ErrFileNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// NonTerminal returns every WAL entry whose status is PENDING or
// IN_PROGRESS, for crash-recovery scanning on service start.
func (w *WAL) NonTerminal() ([]*WALEntry, error) {
	var entries []*WALEntry
	err := w.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(walKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			var entry WALEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return err
			}
			if !entry.Status.IsTerminal() {
				entries = append(entries, &entry)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan WAL for non-terminal entries: %w", err)
	}
	return entries, nil
}

// CompactBefore deletes every terminal entry whose CommittedAt is older
// than cutoff, keeping the WAL bounded while retaining recent history for
// diagnosis and replay.
func (w *WAL) CompactBefore(cutoff time.Time) (int, error) {
	var toDelete [][]byte

	err := w.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(walKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			var entry WALEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return err
			}
			if entry.Status.IsTerminal() && entry.CommittedAt != nil && entry.CommittedAt.Before(cutoff) {
				key := append([]byte{}, item.Key()...)
				toDelete = append(toDelete, key)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan WAL for compaction: %w", err)
	}

	if len(toDelete) == 0 {
		return 0, nil
	}

	err = w.db.Update(func(txn *badgerdb.Txn) error {
		for _, key := range toDelete {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("compact WAL: %w", err)
	}
	return len(toDelete), nil
}
