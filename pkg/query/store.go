package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/artstore/artstore/pkg/eventbus"
)

// PostgresConfig holds the query service's database connection settings.
// Unlike the admin-module's registry, the query store has no SQLite
// fallback: full-text search is implemented against Postgres's
// `tsvector`/GIN facilities and has no single-file equivalent.
type PostgresConfig struct {
	Host         string
	Port         int
	Database     string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN returns the PostgreSQL connection string.
func (c *PostgresConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		c.Host, c.Port, c.User, c.Password, c.Database)
	if c.SSLMode != "" {
		dsn += fmt.Sprintf(" sslmode=%s", c.SSLMode)
	}
	return dsn
}

// ApplyDefaults fills in unset fields with sensible defaults.
func (c *PostgresConfig) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
}

// Validate checks that the configuration is complete.
func (c *PostgresConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("postgres host is required")
	}
	if c.Database == "" {
		return fmt.Errorf("postgres database is required")
	}
	if c.User == "" {
		return fmt.Errorf("postgres user is required")
	}
	return nil
}

// searchColumns lists the columns read back on lookups; search_vector is
// never selected since it carries no useful Go representation.
const searchColumns = "file_id, original_filename, content_type, description, uploaded_by, " +
	"file_size, storage_element_id, storage_path, created_at, updated_at, deleted_at"

// Store is the query service's GORM-backed search index.
type Store struct {
	db *gorm.DB
}

// NewStore opens the query search index, applying the embedded schema
// migrations (including the GIN index over the derived tsvector column)
// before serving.
func NewStore(config *PostgresConfig) (*Store, error) {
	if config == nil {
		config = &PostgresConfig{}
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	if err := runMigrations(config); err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.Open(config.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)

	return &Store{db: db}, nil
}

// DB returns the underlying GORM connection, for tests and advanced queries.
func (s *Store) DB() *gorm.DB { return s.db }

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsProcessed reports whether streamID has already been applied,
// guarding against reprocessing a delivery whose XACK never landed.
func (s *Store) IsProcessed(ctx context.Context, streamID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&ProcessedEvent{}).Where("stream_id = ?", streamID).Count(&count).Error
	return count > 0, err
}

// UpsertFile creates or replaces a file's search row and recomputes its
// tsvector from filename, description, and uploader, then records
// streamID as processed, in a single transaction.
func (s *Store) UpsertFile(ctx context.Context, rec *SearchRecord, streamID, eventType string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`
			INSERT INTO search_records
				(file_id, original_filename, content_type, description, uploaded_by,
				 file_size, storage_element_id, storage_path, created_at, updated_at, search_vector)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
				to_tsvector('english', coalesce(?, '') || ' ' || coalesce(?, '') || ' ' || coalesce(?, '')))
			ON CONFLICT (file_id) DO UPDATE SET
				original_filename = EXCLUDED.original_filename,
				content_type = EXCLUDED.content_type,
				description = EXCLUDED.description,
				uploaded_by = EXCLUDED.uploaded_by,
				file_size = EXCLUDED.file_size,
				storage_element_id = EXCLUDED.storage_element_id,
				storage_path = EXCLUDED.storage_path,
				updated_at = EXCLUDED.updated_at,
				deleted_at = NULL,
				search_vector = EXCLUDED.search_vector
		`,
			rec.FileID, rec.OriginalFilename, rec.ContentType, rec.Description, rec.UploadedBy,
			rec.FileSize, rec.StorageElementID, rec.StoragePath, rec.CreatedAt, rec.UpdatedAt,
			rec.OriginalFilename, rec.Description, rec.UploadedBy,
		).Error; err != nil {
			return fmt.Errorf("upsert search record: %w", err)
		}
		return markProcessed(tx, streamID, rec.FileID, eventType)
	})
}

// MarkDeleted soft-deletes a file's search row so it no longer surfaces
// in Search results, without losing its history for audit purposes.
func (s *Store) MarkDeleted(ctx context.Context, fileID string, deletedAt time.Time, streamID, eventType string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&SearchRecord{}).Where("file_id = ?", fileID).
			Update("deleted_at", deletedAt).Error; err != nil {
			return fmt.Errorf("mark search record deleted: %w", err)
		}
		return markProcessed(tx, streamID, fileID, eventType)
	})
}

// markReadOnlyEvent records streamID as processed without touching the
// search index, for event types the search index has no interest in
// (e.g. storage_element:mode_changed) — keeps them out of the PEL
// without pretending they changed a file's search row.
func (s *Store) markReadOnlyEvent(ctx context.Context, event *eventbus.Event) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return markProcessed(tx, event.StreamID, event.FileID, string(event.EventType))
	})
}

func markProcessed(tx *gorm.DB, streamID, fileID, eventType string) error {
	err := tx.Create(&ProcessedEvent{StreamID: streamID, FileID: fileID, EventType: eventType}).Error
	if err != nil && isUniqueConstraintError(err) {
		return nil // already marked by a concurrent/duplicate delivery
	}
	return err
}

// GetByID returns a single, non-deleted search record.
func (s *Store) GetByID(ctx context.Context, fileID string) (*SearchRecord, error) {
	var rec SearchRecord
	err := s.db.WithContext(ctx).Select(searchColumns).
		Where("file_id = ? AND deleted_at IS NULL", fileID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Search runs a plain-language full-text query against the index,
// excluding soft-deleted rows, ordered by relevance.
func (s *Store) Search(ctx context.Context, q string, limit int) ([]*SearchRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var results []*SearchRecord
	err := s.db.WithContext(ctx).
		Select(searchColumns).
		Where("deleted_at IS NULL AND search_vector @@ plainto_tsquery('english', ?)", q).
		Order(gorm.Expr("ts_rank(search_vector, plainto_tsquery('english', ?)) DESC", q)).
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return results, nil
}

// isUniqueConstraintError reports a Postgres unique violation (SQLSTATE
// 23505), the only error markProcessed treats as benign.
func isUniqueConstraintError(err error) bool {
	var pgErr *pgconn.PgError
	// 23505: unique_violation
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
