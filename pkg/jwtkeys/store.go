package jwtkeys

import "context"

// Store persists the JWT key lifecycle. The admin-module implements this
// against its GORM-backed database; jwtkeys itself is storage-agnostic.
type Store interface {
	// ActiveKeys returns all currently active keys, newest first.
	ActiveKeys(ctx context.Context) ([]*Key, error)

	// Insert persists a newly minted key.
	Insert(ctx context.Context, key *Key) error

	// DeactivateExpired flips IsActive=false on keys whose ExpiresAt has
	// passed, retaining the rows for audit history.
	DeactivateExpired(ctx context.Context) error

	// IncrementRotationCount bumps RotationCount on all currently active
	// keys, called once per rotation cycle.
	IncrementRotationCount(ctx context.Context) error
}
