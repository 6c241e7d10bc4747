package jwtkeys

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory Store used to exercise rotation without a
// real database.
type memoryStore struct {
	keys []*Key
}

func (s *memoryStore) ActiveKeys(ctx context.Context) ([]*Key, error) {
	active := make([]*Key, 0, len(s.keys))
	for _, k := range s.keys {
		if k.IsActive {
			active = append(active, k)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt.After(active[j].CreatedAt) })
	return active, nil
}

func (s *memoryStore) Insert(ctx context.Context, key *Key) error {
	s.keys = append(s.keys, key)
	return nil
}

func (s *memoryStore) DeactivateExpired(ctx context.Context) error {
	now := time.Now()
	for _, k := range s.keys {
		if k.ExpiresAt.Before(now) {
			k.IsActive = false
		}
	}
	return nil
}

func (s *memoryStore) IncrementRotationCount(ctx context.Context) error {
	for _, k := range s.keys {
		if k.IsActive {
			k.RotationCount++
		}
	}
	return nil
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestGenerateKeyProducesValidPEM(t *testing.T) {
	key, err := GenerateKey(DefaultValidity)
	require.NoError(t, err)
	assert.NotEmpty(t, key.Version)
	assert.True(t, key.IsActive)

	_, err = parsePrivateKey([]byte(key.PrivateKeyPEM))
	require.NoError(t, err)
	_, err = parsePublicKey([]byte(key.PublicKeyPEM))
	require.NoError(t, err)
}

func TestRotatorBootstrapsFirstKey(t *testing.T) {
	store := &memoryStore{}
	manager := &Manager{}
	rotator := NewRotator(store, manager, newTestRedis(t))

	err := rotator.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, store.keys, 1)

	_, priv, err := manager.SigningKey()
	require.NoError(t, err)
	assert.NotNil(t, priv)
}

func TestRotatorSkipsWhenNotDue(t *testing.T) {
	existing, err := GenerateKey(DefaultValidity)
	require.NoError(t, err)
	store := &memoryStore{keys: []*Key{existing}}
	manager := &Manager{}
	rotator := NewRotator(store, manager, newTestRedis(t))

	err = rotator.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, store.keys, 1, "rotation should not fire when the current key is far from expiry")
}

func TestRotatorRotatesWhenDue(t *testing.T) {
	expiringSoon, err := GenerateKey(30 * time.Minute)
	require.NoError(t, err)
	store := &memoryStore{keys: []*Key{expiringSoon}}
	manager := &Manager{}
	rotator := NewRotator(store, manager, newTestRedis(t))

	err = rotator.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, store.keys, 2)
	assert.Equal(t, 1, expiringSoon.RotationCount)
}

func TestForceRotateRotatesImmediately(t *testing.T) {
	existing, err := GenerateKey(DefaultValidity)
	require.NoError(t, err)
	store := &memoryStore{keys: []*Key{existing}}
	manager := &Manager{}
	rotator := NewRotator(store, manager, newTestRedis(t))

	err = rotator.ForceRotate(context.Background())
	require.NoError(t, err)
	assert.Len(t, store.keys, 2, "force rotate should mint a new key regardless of expiry")
	assert.Equal(t, 1, existing.RotationCount)
}

func TestForceRotateFailsWhenLockHeld(t *testing.T) {
	existing, err := GenerateKey(DefaultValidity)
	require.NoError(t, err)
	store := &memoryStore{keys: []*Key{existing}}
	manager := &Manager{}
	client := newTestRedis(t)

	require.NoError(t, client.SetNX(context.Background(), lockKey, "other-instance", lockTTL).Err())

	rotator := &Rotator{store: store, manager: manager, redis: client}

	err = rotator.ForceRotate(context.Background())
	assert.ErrorIs(t, err, ErrRotationInProgress)
	assert.Len(t, store.keys, 1)
}

func TestRotatorSkipsWhenLockHeld(t *testing.T) {
	expiringSoon, err := GenerateKey(30 * time.Minute)
	require.NoError(t, err)
	store := &memoryStore{keys: []*Key{expiringSoon}}
	manager := &Manager{}
	client := newTestRedis(t)

	// Simulate another instance already holding the rotation lock.
	require.NoError(t, client.SetNX(context.Background(), lockKey, "other-instance", lockTTL).Err())

	rotator := &Rotator{store: store, manager: manager, redis: client}

	err = rotator.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, store.keys, 1, "rotation should be skipped while another instance holds the lock")
}
