package query

import "time"

// SearchRecord is the query service's denormalized, full-text-indexed
// view of a file, rebuilt entirely from file-events; it is never the
// system of record (that's the admin-module's File table).
type SearchRecord struct {
	FileID           string     `gorm:"primaryKey;size:36;column:file_id" json:"file_id"`
	OriginalFilename string     `gorm:"not null;size:1024" json:"original_filename"`
	ContentType      string     `gorm:"size:255" json:"content_type,omitempty"`
	Description      string     `gorm:"size:1024" json:"description,omitempty"`
	UploadedBy       string     `gorm:"size:255" json:"uploaded_by,omitempty"`
	FileSize         int64      `json:"file_size"`
	StorageElementID string     `gorm:"not null;size:36;index" json:"storage_element_id"`
	StoragePath      string     `gorm:"not null;size:1024" json:"storage_path"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`

	// SearchVector is maintained by raw SQL (to_tsvector) rather than a
	// gorm field write, since gorm has no tsvector column type; the
	// column itself is created by the embedded migrations.
	SearchVector string `gorm:"type:tsvector" json:"-"`
}

// TableName returns the table name for SearchRecord.
func (SearchRecord) TableName() string { return "search_records" }

// ProcessedEvent is a dedupe ledger entry, guarding against acting twice
// on the same stream entry if a crash lands between the upsert and the
// XACK that would normally prevent redelivery.
type ProcessedEvent struct {
	StreamID    string    `gorm:"primaryKey;size:64;column:stream_id"`
	FileID      string    `gorm:"size:36;index"`
	EventType   string    `gorm:"size:64"`
	ProcessedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for ProcessedEvent.
func (ProcessedEvent) TableName() string { return "processed_events" }
