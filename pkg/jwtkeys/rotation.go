package jwtkeys

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/artstore/artstore/internal/logger"
)

// ErrRotationInProgress is returned by ForceRotate when another replica
// currently holds the rotation lock.
var ErrRotationInProgress = errors.New("jwtkeys: rotation already in progress on another instance")

const (
	lockKey        = "artstore:jwtkeys:rotation_lock"
	lockTTL        = 60 * time.Second
	lockRetries    = 3
	lockRetryDelay = 1 * time.Second

	// rotateWithinWindow triggers a rotation when the newest active key's
	// expiry falls within this window.
	rotateWithinWindow = 1 * time.Hour

	signingKeyBits = 2048
)

// releaseScript is the check-and-del Lua script: only the lock holder that
// set a given value may delete it, preventing one instance from releasing
// a lock it no longer owns (e.g. after its own lock expired and another
// instance acquired it).
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// Rotator runs the admin-module's scheduled key rotation, guarded by a
// Redis distributed lock so that only one replica rotates at a time.
type Rotator struct {
	store   Store
	manager *Manager
	redis   *redis.Client
}

// NewRotator creates a Rotator bound to the given store, manager, and
// Redis client.
func NewRotator(store Store, manager *Manager, redisClient *redis.Client) *Rotator {
	return &Rotator{store: store, manager: manager, redis: redisClient}
}

// Run checks whether the newest active key is due to expire and, if so,
// rotates under a distributed lock. Safe to call on an interval from every
// admin-module replica: at most one replica performs the rotation per
// cycle, and others silently skip if they cannot acquire the lock.
func (r *Rotator) Run(ctx context.Context) error {
	due, err := r.isDue(ctx)
	if err != nil {
		return fmt.Errorf("check rotation due: %w", err)
	}
	if !due {
		return nil
	}

	lockValue := uuid.NewString()
	acquired, err := r.acquireLock(ctx, lockValue)
	if err != nil {
		return fmt.Errorf("acquire rotation lock: %w", err)
	}
	if !acquired {
		logger.Info("jwt key rotation skipped: lock held by another instance")
		return nil
	}
	defer r.releaseLock(ctx, lockValue)

	start := time.Now()
	if err := r.rotate(ctx); err != nil {
		logger.Error("jwt key rotation failed", logger.Err(err))
		return err
	}
	logger.Info("jwt key rotation completed", logger.DurationMs(logger.Duration(start)))
	return nil
}

// ForceRotate rotates unconditionally, bypassing the isDue check that Run
// applies on its schedule. Used by the operator-triggered rotate endpoint:
// an admin calling POST /jwt-keys/rotate wants a new key now, not a report
// that the current one isn't due yet. Still serializes against concurrent
// Run/ForceRotate calls via the same distributed lock, so a manual trigger
// racing the background scheduler cannot double-rotate.
func (r *Rotator) ForceRotate(ctx context.Context) error {
	lockValue := uuid.NewString()
	acquired, err := r.acquireLock(ctx, lockValue)
	if err != nil {
		return fmt.Errorf("acquire rotation lock: %w", err)
	}
	if !acquired {
		return ErrRotationInProgress
	}
	defer r.releaseLock(ctx, lockValue)

	return r.rotate(ctx)
}

func (r *Rotator) isDue(ctx context.Context) (bool, error) {
	active, err := r.store.ActiveKeys(ctx)
	if err != nil {
		return false, err
	}
	if len(active) == 0 {
		return true, nil // bootstrap: no key exists yet
	}
	newest := active[0]
	return time.Until(newest.ExpiresAt) <= rotateWithinWindow, nil
}

func (r *Rotator) rotate(ctx context.Context) error {
	key, err := GenerateKey(RotationValidity)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	if err := r.store.Insert(ctx, key); err != nil {
		return fmt.Errorf("insert new key: %w", err)
	}
	if err := r.store.IncrementRotationCount(ctx); err != nil {
		return fmt.Errorf("increment rotation count: %w", err)
	}
	if err := r.store.DeactivateExpired(ctx); err != nil {
		return fmt.Errorf("deactivate expired keys: %w", err)
	}

	active, err := r.store.ActiveKeys(ctx)
	if err != nil {
		return fmt.Errorf("reload active keys: %w", err)
	}
	if len(active) > MaxActiveKeys {
		active = active[:MaxActiveKeys]
	}
	return r.manager.LoadActive(active)
}

func (r *Rotator) acquireLock(ctx context.Context, value string) (bool, error) {
	for attempt := 0; attempt < lockRetries; attempt++ {
		ok, err := r.redis.SetNX(ctx, lockKey, value, lockTTL).Result()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return false, nil
}

func (r *Rotator) releaseLock(ctx context.Context, value string) {
	if err := r.redis.Eval(ctx, releaseScript, []string{lockKey}, value).Err(); err != nil {
		logger.Error("jwt rotation lock release failed", logger.Err(err))
	}
}

// GenerateKey creates a new RSA-2048 key pair with the given validity,
// PEM-encoding both halves for storage.
func GenerateKey(validity time.Duration) (*Key, error) {
	priv, err := rsa.GenerateKey(rand.Reader, signingKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}

	privDER := x509.MarshalPKCS1PrivateKey(priv)
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: privDER})

	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	now := time.Now()
	return &Key{
		Version:       uuid.NewString(),
		PublicKeyPEM:  string(pubPEM),
		PrivateKeyPEM: string(privPEM),
		CreatedAt:     now,
		ExpiresAt:     now.Add(validity),
		IsActive:      true,
	}, nil
}
