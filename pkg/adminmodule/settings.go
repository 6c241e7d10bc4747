package adminmodule

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListSettings returns every setting, ordered by key.
func (s *Store) ListSettings(ctx context.Context) ([]*Setting, error) {
	var settings []*Setting
	if err := s.db.WithContext(ctx).Order("key").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// GetSetting returns one setting by key.
func (s *Store) GetSetting(ctx context.Context, key string) (*Setting, error) {
	var setting Setting
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSettingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// PutSetting creates or replaces a setting's value. Description is only
// overwritten when non-empty, so a bare `settings set key value` doesn't
// erase an operator-supplied description.
func (s *Store) PutSetting(ctx context.Context, key, value, description string) (*Setting, error) {
	setting := &Setting{Key: key, Value: value, Description: description}

	assignments := []string{"value", "updated_at"}
	if description != "" {
		assignments = append(assignments, "description")
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns(assignments),
	}).Create(setting).Error
	if err != nil {
		return nil, err
	}
	return s.GetSetting(ctx, key)
}

// DeleteSetting removes a setting, reverting whatever consumed it to its
// built-in default.
func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	res := s.db.WithContext(ctx).Where("key = ?", key).Delete(&Setting{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSettingNotFound
	}
	return nil
}
