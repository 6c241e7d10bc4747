// Package storageelement implements the per-node durable write path: a
// write-ahead log backed by badger, ASCII-sanitized hierarchical storage
// paths, an attr.json sidecar that is the on-disk source of truth for a
// file's metadata, a local GORM cache for fast listing, and RFC-7233
// range/conditional downloads.
//
// The write path follows a fixed order per upload: WAL PENDING, stream
// bytes to a temp file and fsync, rename the data file into place,
// write the attr.json sidecar via temp+fsync+rename, upsert the cache
// row, then WAL COMMITTED. Any failure between the WAL insert and the
// cache upsert triggers rollback via the WAL entry's compensation data.
package storageelement
