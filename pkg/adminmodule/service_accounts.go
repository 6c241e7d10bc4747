package adminmodule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultSecretValidity is how long a newly issued or rotated client
// secret remains valid before SecretExpiresAt.
const DefaultSecretValidity = 90 * 24 * time.Hour

func (s *Store) GetServiceAccount(ctx context.Context, id string) (*ServiceAccount, error) {
	return getByField[ServiceAccount](s.db, ctx, "id", id, ErrServiceAccountNotFound)
}

func (s *Store) GetServiceAccountByClientID(ctx context.Context, clientID string) (*ServiceAccount, error) {
	return getByField[ServiceAccount](s.db, ctx, "client_id", clientID, ErrServiceAccountNotFound)
}

func (s *Store) ListServiceAccounts(ctx context.Context) ([]*ServiceAccount, error) {
	return listAll[ServiceAccount](s.db, ctx, "name")
}

// CreateServiceAccountResult carries the one-time plaintext secret, which
// is returned exactly at creation and never again.
type CreateServiceAccountResult struct {
	Account         *ServiceAccount
	PlaintextSecret string
}

// CreateServiceAccount mints a new client_id/client_secret pair. The
// plaintext secret is returned only in this call's result.
func (s *Store) CreateServiceAccount(ctx context.Context, name, role string, rateLimit int, environment string) (*CreateServiceAccountResult, error) {
	if !AdminUserRole(role).IsValid() && role != "" {
		return nil, ErrInvalidRole
	}

	plaintext, err := GeneratePassword()
	if err != nil {
		return nil, err
	}
	hash, err := HashSecret(plaintext, MinSystemSecretLength)
	if err != nil {
		return nil, err
	}

	expires := time.Now().Add(DefaultSecretValidity)
	account := &ServiceAccount{
		Name:             name,
		ClientID:         fmt.Sprintf("sa_%s", uuid.NewString()),
		ClientSecretHash: hash,
		Role:             role,
		Status:           string(ServiceAccountActive),
		RateLimit:        rateLimit,
		Environment:      environment,
		SecretExpiresAt:  &expires,
	}

	if _, err := createWithID(s.db, ctx, account, func(a *ServiceAccount, id string) { a.ID = id }, account.ID, ErrDuplicateServiceAccount); err != nil {
		return nil, err
	}

	return &CreateServiceAccountResult{Account: account, PlaintextSecret: plaintext}, nil
}

// AuthenticateServiceAccount verifies a client_id/client_secret pair for
// the OAuth2 client-credentials grant.
func (s *Store) AuthenticateServiceAccount(ctx context.Context, clientID, clientSecret string) (*ServiceAccount, error) {
	account, err := s.GetServiceAccountByClientID(ctx, clientID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !account.IsUsable(time.Now()) {
		return nil, ErrServiceAccountUnusable
	}
	if !VerifySecret(clientSecret, account.ClientSecretHash) {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// RotateServiceAccountSecret issues a new client secret, rejecting reuse
// of any of the last five, and advances SecretExpiresAt.
func (s *Store) RotateServiceAccountSecret(ctx context.Context, id string) (string, error) {
	account, err := s.GetServiceAccount(ctx, id)
	if err != nil {
		return "", err
	}

	history, err := DecodeSecretHistory(account.SecretHashHistory)
	if err != nil {
		return "", err
	}

	plaintext, err := GeneratePassword()
	if err != nil {
		return "", err
	}
	if history.Contains(plaintext) {
		return "", ErrSecretReused
	}

	newHash, err := HashSecret(plaintext, MinSystemSecretLength)
	if err != nil {
		return "", err
	}

	updatedHistory := history.Push(account.ClientSecretHash)
	encodedHistory, err := updatedHistory.Encode()
	if err != nil {
		return "", err
	}

	expires := time.Now().Add(DefaultSecretValidity)
	if err := s.db.WithContext(ctx).Model(&ServiceAccount{}).Where("id = ?", id).Updates(map[string]any{
		"client_secret_hash":  newHash,
		"secret_hash_history": encodedHistory,
		"secret_expires_at":   expires,
	}).Error; err != nil {
		return "", err
	}

	return plaintext, nil
}

// UpdateServiceAccountStatus transitions a service account's lifecycle
// status. is_system accounts cannot be suspended, expired, or deleted.
func (s *Store) UpdateServiceAccountStatus(ctx context.Context, id string, status ServiceAccountStatus) error {
	account, err := s.GetServiceAccount(ctx, id)
	if err != nil {
		return err
	}
	if account.IsSystem {
		return ErrSystemAccountProtected
	}
	return s.db.WithContext(ctx).Model(&ServiceAccount{}).Where("id = ?", id).Update("status", string(status)).Error
}

func (s *Store) DeleteServiceAccount(ctx context.Context, id string) error {
	account, err := s.GetServiceAccount(ctx, id)
	if err != nil {
		return err
	}
	if account.IsSystem {
		return ErrSystemAccountProtected
	}
	return s.db.WithContext(ctx).Delete(&ServiceAccount{}, "id = ?", id).Error
}
