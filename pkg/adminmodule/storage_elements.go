package adminmodule

import (
	"context"
	"time"
)

func (s *Store) GetStorageElement(ctx context.Context, id string) (*StorageElement, error) {
	return getByField[StorageElement](s.db, ctx, "id", id, ErrStorageElementNotFound)
}

func (s *Store) GetStorageElementByElementID(ctx context.Context, elementID string) (*StorageElement, error) {
	return getByField[StorageElement](s.db, ctx, "element_id", elementID, ErrStorageElementNotFound)
}

// ListStorageElements returns all non-deleted storage elements ordered by
// priority, matching the sequence the ingester's selector would observe.
func (s *Store) ListStorageElements(ctx context.Context) ([]*StorageElement, error) {
	var results []*StorageElement
	if err := s.db.WithContext(ctx).Where("deleted_at IS NULL").Order("priority ASC, element_id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Store) CreateStorageElement(ctx context.Context, se *StorageElement) (string, error) {
	se.CreatedAt = time.Now()
	return createWithID(s.db, ctx, se, func(e *StorageElement, id string) { e.ID = id }, se.ID, ErrDuplicateStorageElement)
}

// UpdateStorageElement persists mutable configuration fields. Mode
// transitions must go through TransitionMode, not this method.
func (s *Store) UpdateStorageElement(ctx context.Context, se *StorageElement) error {
	existing, err := s.GetStorageElement(ctx, se.ID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(existing).Select(
		"Name", "APIURL", "BasePath", "CapacityBytes", "Priority", "RetentionDays",
	).Updates(se).Error
}

// TransitionMode applies an API-driven mode change if (and only if) it is
// legal per the state machine (RW->RO, RO->AR).
func (s *Store) TransitionMode(ctx context.Context, id string, target StorageMode) (*StorageElement, error) {
	se, err := s.GetStorageElement(ctx, id)
	if err != nil {
		return nil, err
	}
	if !se.CanTransitionTo(target) {
		return nil, ErrInvalidModeTransition
	}
	se.Mode = string(target)
	if err := s.db.WithContext(ctx).Model(&StorageElement{}).Where("id = ?", id).Update("mode", se.Mode).Error; err != nil {
		return nil, err
	}
	return se, nil
}

// ReportHealth updates the capacity/status fields the storage-element's
// own periodic health report carries; mode/identity are untouched.
func (s *Store) ReportHealth(ctx context.Context, id string, usedBytes, fileCount int64, status StorageElementStatus) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&StorageElement{}).Where("id = ?", id).Updates(map[string]any{
		"used_bytes":        usedBytes,
		"file_count":        fileCount,
		"status":            string(status),
		"last_health_check": now,
	}).Error
}

// DeleteStorageElement performs a logical delete: no cascade of file
// bytes, the row is retained for audit/history.
func (s *Store) DeleteStorageElement(ctx context.Context, id string) error {
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&StorageElement{}).Where("id = ? AND deleted_at IS NULL", id).Update("deleted_at", now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStorageElementNotFound
	}
	return nil
}
