package storageelement

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Config configures a single storage-element process.
type Config struct {
	// ElementID is this element's stable identity in the admin registry;
	// it never changes post-creation.
	ElementID string

	// BasePath is the root directory data files and attr.json sidecars
	// are written under.
	BasePath string

	// WALPath is the badger database directory backing the write-ahead
	// log. Kept separate from BasePath so WAL compaction never touches
	// user data.
	WALPath string

	// Cache configures the local GORM-backed index.
	Cache CacheConfig

	// S3, when set, puts the element's data bytes in a bucket instead of
	// under BasePath (storage_type=S3). The WAL, attr sidecars, and
	// cache stay local either way; BasePath still anchors them.
	S3 *S3Config

	// InitialMode is the mode the element starts in. Changing it
	// thereafter requires an operator restart with new configuration,
	// except for the API-driven RW->RO->AR transitions.
	InitialMode Mode

	// CapacityBytes is the element's total reported capacity.
	CapacityBytes int64

	// MaxUploadSize rejects an upload whose declared or streamed size
	// exceeds it. Zero means unlimited.
	MaxUploadSize int64

	// DefaultRetentionDays is used when an upload doesn't specify one.
	DefaultRetentionDays int

	// CompressibleTypes lists the content types whose bytes are gzipped
	// before storage. An entry ending in "/" matches as a prefix
	// ("text/" covers text/plain, text/csv, ...). Empty disables
	// compression.
	CompressibleTypes []string
}

// shouldCompress reports whether an upload with this content type is
// stored gzip-compressed.
func (c *Config) shouldCompress(contentType string) bool {
	for _, t := range c.CompressibleTypes {
		if t == contentType {
			return true
		}
		if strings.HasSuffix(t, "/") && strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}

// Element is the storage-element's in-process runtime: the write-ahead
// log, local cache, mode controller, and byte-usage accounting a single
// storage domain needs.
type Element struct {
	cfg Config

	wal     *WAL
	cache   *Cache
	mode    *ModeController
	objects *ObjectStore // nil for storage_type=LOCAL

	mu        sync.Mutex
	usedBytes int64

	reconcileMu sync.Mutex
	reconciling reconcilePriority
}

// Open wires up the WAL and cache for cfg, recovering the WAL and seeding
// the used-bytes counter from the cache before returning so the element
// never serves traffic against a torn write. The cache is not reconciled
// against attr.json here.
func Open(cfg Config) (*Element, error) {
	if cfg.ElementID == "" {
		return nil, fmt.Errorf("element_id is required")
	}
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("base_path is required")
	}

	wal, err := OpenWAL(cfg.WALPath)
	if err != nil {
		return nil, err
	}

	cache, err := OpenCache(cfg.Cache)
	if err != nil {
		wal.Close()
		return nil, err
	}

	el := &Element{
		cfg:   cfg,
		wal:   wal,
		cache: cache,
		mode:  NewModeController(cfg.InitialMode),
	}

	if cfg.S3 != nil {
		objects, err := NewObjectStore(context.Background(), *cfg.S3)
		if err != nil {
			wal.Close()
			cache.Close()
			return nil, fmt.Errorf("open object store: %w", err)
		}
		el.objects = objects
	}

	if err := el.RecoverWAL(); err != nil {
		wal.Close()
		cache.Close()
		return nil, fmt.Errorf("WAL crash recovery: %w", err)
	}

	usedBytes, err := el.recomputeUsedBytes()
	if err != nil {
		wal.Close()
		cache.Close()
		return nil, fmt.Errorf("compute initial used bytes: %w", err)
	}
	el.usedBytes = usedBytes

	return el, nil
}

// Close releases the WAL and cache.
func (e *Element) Close() error {
	errWAL := e.wal.Close()
	errCache := e.cache.Close()
	if errWAL != nil {
		return errWAL
	}
	return errCache
}

// Mode returns the element's mode controller.
func (e *Element) Mode() *ModeController { return e.mode }

// UsedBytes returns the currently tracked used capacity.
func (e *Element) UsedBytes() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.usedBytes
}

// CapacityBytes returns the element's configured total capacity.
func (e *Element) CapacityBytes() int64 { return e.cfg.CapacityBytes }

// FileCount returns the number of non-deleted cache rows, used for health
// reporting.
func (e *Element) FileCount() (int64, error) {
	ids, err := e.cache.AllFileIDs()
	if err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}

func (e *Element) addUsedBytes(delta int64) {
	e.mu.Lock()
	e.usedBytes += delta
	if e.usedBytes < 0 {
		e.usedBytes = 0
	}
	e.mu.Unlock()
}

// recomputeUsedBytes sums file_size across non-deleted cache rows, used to
// seed the in-memory counter on startup.
func (e *Element) recomputeUsedBytes() (int64, error) {
	entries, err := e.cache.List(Filter{IncludeDeleted: false})
	if err != nil {
		return 0, err
	}
	var total int64
	for _, entry := range entries {
		total += entry.FileSize
	}
	return total, nil
}

// hasRoomFor reports whether an incoming upload of size bytes fits within
// the element's configured capacity.
func (e *Element) hasRoomFor(size int64) bool {
	if e.cfg.CapacityBytes <= 0 {
		return true
	}
	return e.UsedBytes()+size <= e.cfg.CapacityBytes
}
