package adminmodule

import "errors"

// Domain errors returned by the admin-module store and service layer.
var (
	ErrAdminUserNotFound  = errors.New("admin user not found")
	ErrDuplicateAdminUser = errors.New("admin user already exists")
	ErrAccountLocked      = errors.New("account is locked")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordReused     = errors.New("password matches a recently used password")

	ErrServiceAccountNotFound  = errors.New("service account not found")
	ErrDuplicateServiceAccount = errors.New("service account already exists")
	ErrSecretReused            = errors.New("secret matches a recently used secret")
	ErrServiceAccountUnusable  = errors.New("service account is suspended, expired, or deleted")
	ErrSystemAccountProtected  = errors.New("system accounts cannot be modified or deleted")

	ErrStorageElementNotFound  = errors.New("storage element not found")
	ErrDuplicateStorageElement = errors.New("storage element already exists")
	ErrInvalidModeTransition   = errors.New("mode transition is not permitted")

	ErrFileNotFound     = errors.New("file not found")
	ErrDuplicateFile    = errors.New("a file with this storage_filename already exists on this storage element")
	ErrInvalidFileState = errors.New("operation not permitted in the file's current state")

	ErrInvalidRole = errors.New("invalid role")

	ErrSettingNotFound = errors.New("setting not found")
)
