package adminmodule

import (
	"context"
	"time"
)

func (s *Store) GetFile(ctx context.Context, fileID string) (*File, error) {
	return getByField[File](s.db, ctx, "file_id", fileID, ErrFileNotFound)
}

// FileFilter narrows ListFiles by the fields callers commonly query on.
// Zero values are treated as "don't filter on this field".
type FileFilter struct {
	StorageElementID string
	RetentionPolicy  RetentionPolicy
	UploadedBy       string
	IncludeDeleted   bool
}

func (s *Store) ListFiles(ctx context.Context, filter FileFilter) ([]*File, error) {
	q := s.db.WithContext(ctx)
	if !filter.IncludeDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	if filter.StorageElementID != "" {
		q = q.Where("storage_element_id = ?", filter.StorageElementID)
	}
	if filter.RetentionPolicy != "" {
		q = q.Where("retention_policy = ?", string(filter.RetentionPolicy))
	}
	if filter.UploadedBy != "" {
		q = q.Where("uploaded_by = ?", filter.UploadedBy)
	}

	var results []*File
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// RegisterFile records a newly uploaded file. Called by the ingester
// after the storage-element's atomic write protocol commits.
func (s *Store) RegisterFile(ctx context.Context, file *File) (string, error) {
	file.CreatedAt = time.Now()
	if file.RetentionPolicy == "" {
		file.RetentionPolicy = string(RetentionTemporary)
	}
	return createWithID(s.db, ctx, file, func(f *File, id string) { f.ID = id }, file.ID, ErrDuplicateFile)
}

// FinalizeFile flips TEMPORARY -> PERMANENT and clears TTL fields. The
// reverse transition is forbidden and this method never performs it.
func (s *Store) FinalizeFile(ctx context.Context, fileID string) error {
	file, err := s.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if file.RetentionPolicy == string(RetentionPermanent) {
		return nil // already finalized; idempotent
	}
	now := time.Now()
	return s.db.WithContext(ctx).Model(&File{}).Where("file_id = ?", fileID).Updates(map[string]any{
		"retention_policy": string(RetentionPermanent),
		"ttl_expires_at":   nil,
		"ttl_days":         nil,
		"finalized_at":     now,
	}).Error
}

// UpdateFileMetadata updates the mutable descriptive fields of a file
// record (not its storage location, size, or checksum, which are fixed
// at upload time).
func (s *Store) UpdateFileMetadata(ctx context.Context, fileID, description string, userMetadataJSON string) error {
	file, err := s.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(file).Updates(map[string]any{
		"description":        description,
		"user_metadata_json": userMetadataJSON,
	}).Error
}

// SoftDeleteFile marks the file deleted without touching physical bytes;
// byte cleanup is the garbage collector's concern.
func (s *Store) SoftDeleteFile(ctx context.Context, fileID, reason string) error {
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&File{}).Where("file_id = ? AND deleted_at IS NULL", fileID).Updates(map[string]any{
		"deleted_at":      now,
		"deletion_reason": reason,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFileNotFound
	}
	return nil
}
