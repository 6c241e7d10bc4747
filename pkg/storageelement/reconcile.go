package storageelement

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/artstore/artstore/pkg/metrics"
)

// reconcilePriority orders the three reconciliation operations against one
// another. A lower-or-equal-priority operation already running yields (the
// caller gets ErrReconcileBusy) rather than interleaving with a higher one.
type reconcilePriority int

const (
	priorityNone reconcilePriority = iota
	priorityExpiredCleanup
	priorityIncremental
	priorityFull
)

// ConsistencyReport is the dry-run result of comparing the cache against
// the attr.json tree on disk, the on-disk source of truth.
type ConsistencyReport struct {
	OrphanCache      []string `json:"orphan_cache"`       // cache rows with no attr.json
	OrphanAttr       []string `json:"orphan_attr"`        // attr.json files with no cache row
	ExpiredCache     []string `json:"expired_cache"`      // cache rows past their TTL
	InconsistencyPct float64  `json:"inconsistency_pct"`
}

// acquireReconcile claims the reconciliation slot for p, returning a release
// function, or ErrReconcileBusy if an operation of equal or higher priority
// already holds it.
func (e *Element) acquireReconcile(p reconcilePriority) (func(), error) {
	e.reconcileMu.Lock()
	defer e.reconcileMu.Unlock()

	if e.reconciling != priorityNone && e.reconciling >= p {
		metrics.ReconcileBusyTotal.Inc()
		return nil, ErrReconcileBusy
	}
	e.reconciling = p

	return func() {
		e.reconcileMu.Lock()
		e.reconciling = priorityNone
		e.reconcileMu.Unlock()
	}, nil
}

// scanAttrFileIDs walks BasePath for attr.json sidecars and returns the
// file_id recorded in each, keyed by its data path.
func (e *Element) scanAttrFileIDs() (map[string]string, error) {
	result := make(map[string]string)

	err := filepath.WalkDir(e.cfg.BasePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".attr.json") {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return nil // skip unreadable sidecars, counted as drift by the caller
		}
		var attr AttrFile
		if err := json.Unmarshal(raw, &attr); err != nil {
			return nil
		}

		dataPath := strings.TrimSuffix(path, ".attr.json")
		result[dataPath] = attr.FileID
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("walk storage tree: %w", err)
	}
	return result, nil
}

// CheckConsistency compares the cache against the attr.json tree without
// modifying either, the read-only operation behind GET /cache/consistency.
func (e *Element) CheckConsistency() (*ConsistencyReport, error) {
	timer := metrics.NewTimer()
	defer func() { timer.ObserveDurationVec(metrics.ReconcileDuration, "check") }()

	release, err := e.acquireReconcile(priorityIncremental)
	if err != nil {
		return nil, err
	}
	defer release()

	attrByFileID, err := e.attrFileIDSet()
	if err != nil {
		return nil, err
	}

	cacheIDs, err := e.cache.AllFileIDs()
	if err != nil {
		return nil, err
	}
	cacheSet := make(map[string]bool, len(cacheIDs))
	for _, id := range cacheIDs {
		cacheSet[id] = true
	}

	report := &ConsistencyReport{}
	for id := range cacheSet {
		if !attrByFileID[id] {
			report.OrphanCache = append(report.OrphanCache, id)
		}
	}
	for id := range attrByFileID {
		if !cacheSet[id] {
			report.OrphanAttr = append(report.OrphanAttr, id)
		}
	}

	expired, err := e.cache.ExpiredFileIDs(time.Now())
	if err != nil {
		return nil, err
	}
	report.ExpiredCache = expired

	total := len(cacheSet)
	if len(attrByFileID) > total {
		total = len(attrByFileID)
	}
	if total > 0 {
		drift := len(report.OrphanCache) + len(report.OrphanAttr)
		report.InconsistencyPct = float64(drift) / float64(total) * 100
	}

	return report, nil
}

func (e *Element) attrFileIDSet() (map[string]bool, error) {
	byPath, err := e.scanAttrFileIDs()
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(byPath))
	for _, id := range byPath {
		ids[id] = true
	}
	return ids, nil
}

// RebuildIncremental inserts cache rows for attr.json files missing one and
// marks cache rows deleted when their attr.json is gone, without touching
// rows that are already consistent.
func (e *Element) RebuildIncremental() (added, removed int, err error) {
	timer := metrics.NewTimer()
	defer func() { timer.ObserveDurationVec(metrics.ReconcileDuration, "incremental") }()

	release, err := e.acquireReconcile(priorityIncremental)
	if err != nil {
		return 0, 0, err
	}
	defer release()

	byPath, err := e.scanAttrFileIDs()
	if err != nil {
		return 0, 0, err
	}

	cacheIDs, err := e.cache.AllFileIDs()
	if err != nil {
		return 0, 0, err
	}
	cacheSet := make(map[string]bool, len(cacheIDs))
	for _, id := range cacheIDs {
		cacheSet[id] = true
	}

	for dataPath, fileID := range byPath {
		if cacheSet[fileID] {
			continue
		}
		attr, err := readAttrFile(dataPath)
		if err != nil {
			continue
		}
		if err := e.cache.Upsert(attrToCacheEntry(attr, dataPath)); err != nil {
			return added, removed, fmt.Errorf("insert recovered cache row: %w", err)
		}
		added++
	}

	attrSet := make(map[string]bool, len(byPath))
	for _, id := range byPath {
		attrSet[id] = true
	}
	for _, id := range cacheIDs {
		if attrSet[id] {
			continue
		}
		if err := e.cache.MarkDeleted(id); err != nil {
			return added, removed, fmt.Errorf("mark orphan cache row deleted: %w", err)
		}
		removed++
	}

	return added, removed, nil
}

// RebuildFull truncates the cache and re-derives it entirely from the
// attr.json tree, the on-disk source of truth. Used after cache corruption
// or when incremental drift has grown too large to trust.
func (e *Element) RebuildFull() (int, error) {
	timer := metrics.NewTimer()
	defer func() { timer.ObserveDurationVec(metrics.ReconcileDuration, "full") }()

	release, err := e.acquireReconcile(priorityFull)
	if err != nil {
		return 0, err
	}
	defer release()

	byPath, err := e.scanAttrFileIDs()
	if err != nil {
		return 0, err
	}

	if err := e.cache.Truncate(); err != nil {
		return 0, fmt.Errorf("truncate cache: %w", err)
	}

	var count int
	for dataPath := range byPath {
		attr, err := readAttrFile(dataPath)
		if err != nil {
			continue
		}
		if err := e.cache.Upsert(attrToCacheEntry(attr, dataPath)); err != nil {
			return count, fmt.Errorf("insert cache row during full rebuild: %w", err)
		}
		count++
	}

	usedBytes, err := e.recomputeUsedBytes()
	if err != nil {
		return count, fmt.Errorf("recompute used bytes after rebuild: %w", err)
	}
	e.mu.Lock()
	e.usedBytes = usedBytes
	e.mu.Unlock()

	return count, nil
}

// CleanupExpired deletes data files, attr sidecars, and cache rows whose
// TTL has passed. Lowest priority: it yields to both rebuild operations.
func (e *Element) CleanupExpired() (int, error) {
	timer := metrics.NewTimer()
	defer func() { timer.ObserveDurationVec(metrics.ReconcileDuration, "expired_cleanup") }()

	release, err := e.acquireReconcile(priorityExpiredCleanup)
	if err != nil {
		return 0, err
	}
	defer release()

	ids, err := e.cache.ExpiredFileIDs(time.Now())
	if err != nil {
		return 0, err
	}

	var removed int
	for _, id := range ids {
		entry, err := e.cache.Get(id)
		if err != nil {
			continue
		}
		e.removeData(entry.DataPath)
		os.Remove(attrPath(entry.DataPath))
		if err := e.cache.MarkDeleted(id); err != nil {
			return removed, fmt.Errorf("mark expired cache row deleted: %w", err)
		}
		e.addUsedBytes(-entry.FileSize)
		removed++
	}

	return removed, nil
}

func attrToCacheEntry(attr *AttrFile, dataPath string) *CacheEntry {
	return &CacheEntry{
		FileID:           attr.FileID,
		StorageFilename:  attr.StorageFilename,
		DataPath:         dataPath,
		OriginalFilename: attr.OriginalFilename,
		FileSize:         attr.FileSize,
		ContentType:      attr.ContentType,
		Checksum:         attr.Checksum,
		Compressed:       attr.Compressed,
		CreatedByID:      attr.CreatedByID,
		CreatedAt:        attr.CreatedAt,
		UpdatedAt:        attr.UpdatedAt,
		RetentionPolicy:  "TEMPORARY",
	}
}
