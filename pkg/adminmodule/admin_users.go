package adminmodule

import (
	"context"
	"time"
)

// DefaultLockoutThreshold is the number of consecutive failed logins
// before an account is locked.
const DefaultLockoutThreshold = 5

// DefaultLockoutDuration is how long an account stays locked after
// crossing DefaultLockoutThreshold.
const DefaultLockoutDuration = 15 * time.Minute

func (s *Store) GetAdminUser(ctx context.Context, username string) (*AdminUser, error) {
	return getByField[AdminUser](s.db, ctx, "username", username, ErrAdminUserNotFound)
}

func (s *Store) GetAdminUserByID(ctx context.Context, id string) (*AdminUser, error) {
	return getByField[AdminUser](s.db, ctx, "id", id, ErrAdminUserNotFound)
}

func (s *Store) ListAdminUsers(ctx context.Context) ([]*AdminUser, error) {
	return listAll[AdminUser](s.db, ctx, "username")
}

func (s *Store) CreateAdminUser(ctx context.Context, user *AdminUser) (string, error) {
	user.CreatedAt = time.Now()
	return createWithID(s.db, ctx, user, func(u *AdminUser, id string) { u.ID = id }, user.ID, ErrDuplicateAdminUser)
}

// CreateAdminUserResult carries the one-time plaintext password, in the
// same spirit as CreateServiceAccountResult: it is returned only from
// this call's result and never persisted in plaintext.
type CreateAdminUserResult struct {
	User              *AdminUser
	PlaintextPassword string
}

// CreateAdminUserWithPassword validates role and password policy, hashes
// the password, and creates the user. If password is empty, one is
// generated and the new account is flagged MustChangePassword.
func (s *Store) CreateAdminUserWithPassword(ctx context.Context, username, password, role string) (*CreateAdminUserResult, error) {
	if !AdminUserRole(role).IsValid() {
		return nil, ErrInvalidRole
	}

	mustChange := false
	if password == "" {
		generated, err := GeneratePassword()
		if err != nil {
			return nil, err
		}
		password = generated
		mustChange = true
	}

	hash, err := HashSecret(password, MinAdminPasswordLength)
	if err != nil {
		return nil, err
	}

	user := &AdminUser{
		Username:           username,
		PasswordHash:       hash,
		Role:               role,
		MustChangePassword: mustChange,
	}
	if _, err := s.CreateAdminUser(ctx, user); err != nil {
		return nil, err
	}
	return &CreateAdminUserResult{User: user, PlaintextPassword: password}, nil
}

// ResetAdminPassword generates a fresh random password for an operator
// resetting another user's credentials (no knowledge of the old password
// required, unlike ChangeAdminPassword's self-service flow), pushes the
// old hash into history, and flags the account MustChangePassword.
func (s *Store) ResetAdminPassword(ctx context.Context, id string) (string, error) {
	user, err := s.GetAdminUserByID(ctx, id)
	if err != nil {
		return "", err
	}

	password, err := GeneratePassword()
	if err != nil {
		return "", err
	}
	newHash, err := HashSecret(password, MinAdminPasswordLength)
	if err != nil {
		return "", err
	}

	history, err := DecodeSecretHistory(user.PasswordHashHistory)
	if err != nil {
		return "", err
	}
	updatedHistory := history.Push(user.PasswordHash)
	encodedHistory, err := updatedHistory.Encode()
	if err != nil {
		return "", err
	}

	if err := s.db.WithContext(ctx).Model(&AdminUser{}).Where("id = ?", id).Updates(map[string]any{
		"password_hash":         newHash,
		"password_hash_history": encodedHistory,
		"must_change_password":  true,
		"failed_login_count":    0,
		"locked_until":          nil,
	}).Error; err != nil {
		return "", err
	}
	return password, nil
}

func (s *Store) DeleteAdminUser(ctx context.Context, id string) error {
	user, err := s.GetAdminUserByID(ctx, id)
	if err != nil {
		return err
	}
	if user.IsSystem {
		return ErrSystemAccountProtected
	}
	return s.db.WithContext(ctx).Delete(&AdminUser{}, "id = ?", id).Error
}

// AuthenticateAdminUser verifies username/password, enforcing lockout
// ahead of the password check and updating failure/success counters.
// Lockout is enforced before the bcrypt compare so a locked account never
// pays (or leaks timing for) a password check.
func (s *Store) AuthenticateAdminUser(ctx context.Context, username, password string) (*AdminUser, error) {
	user, err := s.GetAdminUser(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if user.IsLocked(now) {
		return nil, ErrAccountLocked
	}

	if !VerifySecret(password, user.PasswordHash) {
		user.FailedLoginCount++
		if user.FailedLoginCount >= DefaultLockoutThreshold {
			lockedUntil := now.Add(DefaultLockoutDuration)
			user.LockedUntil = &lockedUntil
		}
		_ = s.db.WithContext(ctx).Model(&AdminUser{}).Where("id = ?", user.ID).
			Updates(map[string]any{"failed_login_count": user.FailedLoginCount, "locked_until": user.LockedUntil}).Error
		return nil, ErrInvalidCredentials
	}

	user.FailedLoginCount = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	if err := s.db.WithContext(ctx).Model(&AdminUser{}).Where("id = ?", user.ID).
		Updates(map[string]any{"failed_login_count": 0, "locked_until": nil, "last_login_at": now}).Error; err != nil {
		return nil, err
	}

	return user, nil
}

// ChangeAdminPassword re-validates policy, rejects reuse of the last five
// password hashes, and pushes the old hash into history.
func (s *Store) ChangeAdminPassword(ctx context.Context, id, newPassword string) error {
	user, err := s.GetAdminUserByID(ctx, id)
	if err != nil {
		return err
	}

	history, err := DecodeSecretHistory(user.PasswordHashHistory)
	if err != nil {
		return err
	}
	if history.Contains(newPassword) {
		return ErrPasswordReused
	}

	newHash, err := HashSecret(newPassword, MinAdminPasswordLength)
	if err != nil {
		return err
	}

	updatedHistory := history.Push(user.PasswordHash)
	encodedHistory, err := updatedHistory.Encode()
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(&AdminUser{}).Where("id = ?", id).Updates(map[string]any{
		"password_hash":         newHash,
		"password_hash_history": encodedHistory,
		"must_change_password":  false,
	}).Error
}

// EnsureBootstrapAdmin creates the built-in super-admin account on first
// boot if no admin users exist yet. Returns the generated password, or an
// empty string if an admin already existed.
func (s *Store) EnsureBootstrapAdmin(ctx context.Context) (string, error) {
	users, err := s.ListAdminUsers(ctx)
	if err != nil {
		return "", err
	}
	if len(users) > 0 {
		return "", nil
	}

	password, err := GeneratePassword()
	if err != nil {
		return "", err
	}
	hash, err := HashSecret(password, MinAdminPasswordLength)
	if err != nil {
		return "", err
	}

	admin := &AdminUser{
		Username:           "admin",
		PasswordHash:       hash,
		Role:               string(RoleSuperAdmin),
		IsSystem:           true,
		MustChangePassword: true,
	}
	if _, err := s.CreateAdminUser(ctx, admin); err != nil {
		return "", err
	}
	return password, nil
}
