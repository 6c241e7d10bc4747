package adminmodule

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/artstore/artstore/pkg/jwtkeys"
)

// JWTKeyStore adapts Store's JWTKeyRecord table to jwtkeys.Store, so the
// admin-module's key manager and rotator can persist through the same
// GORM connection as the rest of the registry.
type JWTKeyStore struct {
	store *Store
}

// NewJWTKeyStore wraps store for use as a jwtkeys.Store.
func NewJWTKeyStore(store *Store) *JWTKeyStore {
	return &JWTKeyStore{store: store}
}

var _ jwtkeys.Store = (*JWTKeyStore)(nil)

func (j *JWTKeyStore) ActiveKeys(ctx context.Context) ([]*jwtkeys.Key, error) {
	var records []*JWTKeyRecord
	if err := j.store.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	keys := make([]*jwtkeys.Key, 0, len(records))
	for _, r := range records {
		keys = append(keys, recordToKey(r))
	}
	return keys, nil
}

func (j *JWTKeyStore) Insert(ctx context.Context, key *jwtkeys.Key) error {
	record := keyToRecord(key)
	return j.store.db.WithContext(ctx).Create(record).Error
}

func (j *JWTKeyStore) DeactivateExpired(ctx context.Context) error {
	return j.store.db.WithContext(ctx).Model(&JWTKeyRecord{}).
		Where("is_active = ? AND expires_at < ?", true, time.Now()).
		Update("is_active", false).Error
}

func (j *JWTKeyStore) IncrementRotationCount(ctx context.Context) error {
	return j.store.db.WithContext(ctx).Model(&JWTKeyRecord{}).
		Where("is_active = ?", true).
		Update("rotation_count", gorm.Expr("rotation_count + 1")).Error
}

// ListJWTKeys returns every key record, active and historical, newest
// first, for the admin-visible key-status endpoint. Unlike ActiveKeys it
// is not part of the jwtkeys.Store interface: the rotator only ever needs
// the active set, but an operator inspecting rotation health wants the
// retained audit trail too.
func (s *Store) ListJWTKeys(ctx context.Context) ([]*JWTKeyRecord, error) {
	var records []*JWTKeyRecord
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func recordToKey(r *JWTKeyRecord) *jwtkeys.Key {
	return &jwtkeys.Key{
		Version:       r.Version,
		PublicKeyPEM:  r.PublicKeyPEM,
		PrivateKeyPEM: r.PrivateKeyPEM,
		CreatedAt:     r.CreatedAt,
		ExpiresAt:     r.ExpiresAt,
		IsActive:      r.IsActive,
		RotationCount: r.RotationCount,
	}
}

func keyToRecord(k *jwtkeys.Key) *JWTKeyRecord {
	return &JWTKeyRecord{
		Version:       k.Version,
		PublicKeyPEM:  k.PublicKeyPEM,
		PrivateKeyPEM: k.PrivateKeyPEM,
		CreatedAt:     k.CreatedAt,
		ExpiresAt:     k.ExpiresAt,
		IsActive:      k.IsActive,
		RotationCount: k.RotationCount,
	}
}
