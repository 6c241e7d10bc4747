package storageelement

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// CacheEntry is the local, non-authoritative index row mirroring a file's
// attr.json. It exists purely to make List fast; attr.json on disk
// remains the source of truth, and the cache is rebuildable from it.
type CacheEntry struct {
	FileID           string `gorm:"primaryKey;size:36"`
	StorageFilename  string `gorm:"uniqueIndex;not null;size:255"`
	DataPath         string `gorm:"not null;size:1024"`
	OriginalFilename string `gorm:"size:255"`
	FileSize         int64
	ContentType      string `gorm:"size:255"`
	Checksum         string `gorm:"size:64"`
	Compressed       bool
	CreatedByID      string `gorm:"size:64"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	RetentionPolicy  string `gorm:"size:20"`
	TTLExpiresAt     *time.Time
	Deleted          bool `gorm:"index"`
}

// TableName returns the cache table name.
func (CacheEntry) TableName() string { return "cache_entries" }

// CacheConfig selects and configures the local cache's relational backend.
// A storage-element's cache is almost always SQLite (one file per node);
// Postgres is supported for HA deployments that share the cache database.
type CacheConfig struct {
	UsePostgres bool
	SQLitePath  string
	PostgresDSN string
}

// Cache wraps the local GORM-backed index.
type Cache struct {
	db *gorm.DB
}

// OpenCache opens (and auto-migrates) the local cache database.
func OpenCache(cfg CacheConfig) (*Cache, error) {
	var dialector gorm.Dialector
	if cfg.UsePostgres {
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres DSN is required when UsePostgres is set")
		}
		dialector = postgres.Open(cfg.PostgresDSN)
	} else {
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
		dsn := cfg.SQLitePath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	if err := db.AutoMigrate(&CacheEntry{}); err != nil {
		return nil, fmt.Errorf("migrate cache database: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close releases the underlying database connection.
func (c *Cache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Upsert inserts or replaces the cache row for a file.
func (c *Cache) Upsert(entry *CacheEntry) error {
	return c.db.Save(entry).Error
}

// Get fetches a single cache row by file_id.
func (c *Cache) Get(fileID string) (*CacheEntry, error) {
	var entry CacheEntry
	err := c.db.First(&entry, "file_id = ?", fileID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// MarkDeleted soft-deletes a cache row in place, keeping it for audit and
// reconciliation purposes.
func (c *Cache) MarkDeleted(fileID string) error {
	return c.db.Model(&CacheEntry{}).Where("file_id = ?", fileID).Update("deleted", true).Error
}

// Filter selects cache rows by optional criteria.
type Filter struct {
	RetentionPolicy string
	CreatedByID     string
	IncludeDeleted  bool
}

// List returns cache rows matching filter, newest first.
func (c *Cache) List(filter Filter) ([]*CacheEntry, error) {
	q := c.db.Order("created_at DESC")
	if !filter.IncludeDeleted {
		q = q.Where("deleted = ?", false)
	}
	if filter.RetentionPolicy != "" {
		q = q.Where("retention_policy = ?", filter.RetentionPolicy)
	}
	if filter.CreatedByID != "" {
		q = q.Where("created_by_id = ?", filter.CreatedByID)
	}

	var entries []*CacheEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// AllFileIDs returns the file_id of every non-deleted cache row, used by
// the consistency check to detect orphan cache rows with no attr.json.
func (c *Cache) AllFileIDs() ([]string, error) {
	var ids []string
	if err := c.db.Model(&CacheEntry{}).Where("deleted = ?", false).Pluck("file_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Truncate removes every row, used by full rebuild before re-inserting
// from the attr tree.
func (c *Cache) Truncate() error {
	return c.db.Exec("DELETE FROM cache_entries").Error
}

// ExpiredFileIDs returns file_ids whose TTL has passed, for the low-priority
// expired-cleanup reconciliation pass.
func (c *Cache) ExpiredFileIDs(now time.Time) ([]string, error) {
	var ids []string
	err := c.db.Model(&CacheEntry{}).
		Where("deleted = ? AND ttl_expires_at IS NOT NULL AND ttl_expires_at < ?", false, now).
		Pluck("file_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
