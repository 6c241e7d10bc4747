// Package adminmodule implements the admin-module service: the registry of
// storage-elements, service-accounts, admin-users and file records, the
// UnifiedJWT issuance flows, and publication of cluster topology.
package adminmodule

import (
	"encoding/json"
	"time"

	"github.com/artstore/artstore/pkg/redisdiscovery"
)

// AllModels returns all GORM models for auto-migration.
func AllModels() []any {
	return []any{
		&AdminUser{},
		&ServiceAccount{},
		&StorageElement{},
		&File{},
		&JWTKeyRecord{},
		&AuditLogEntry{},
		&Setting{},
	}
}

// Setting is a runtime-tunable key/value pair operators manage through
// the settings API, for knobs that shouldn't require a redeploy.
type Setting struct {
	Key         string    `gorm:"primaryKey;size:255" json:"key"`
	Value       string    `gorm:"not null;size:1024" json:"value"`
	Description string    `gorm:"size:1024" json:"description,omitempty"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Setting.
func (Setting) TableName() string { return "settings" }

// AdminUserRole is the closed set of roles an admin user may hold.
type AdminUserRole string

const (
	RoleSuperAdmin AdminUserRole = "SUPER_ADMIN"
	RoleAdmin      AdminUserRole = "ADMIN"
	RoleReadonly   AdminUserRole = "READONLY"
)

// IsValid reports whether the role is one of the closed set.
func (r AdminUserRole) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleReadonly:
		return true
	default:
		return false
	}
}

// AdminUser is a human operator account authenticated by username/password.
type AdminUser struct {
	ID                  string     `gorm:"primaryKey;size:36" json:"id"`
	Username            string     `gorm:"uniqueIndex;not null;size:255" json:"username"`
	PasswordHash        string     `gorm:"not null" json:"-"`
	PasswordHashHistory string     `gorm:"type:text" json:"-"` // JSON-encoded []string, newest first, capped at 5
	Role                string     `gorm:"not null;size:50" json:"role"`
	IsSystem            bool       `gorm:"default:false" json:"is_system"`
	FailedLoginCount    int        `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time `json:"locked_until,omitempty"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	MustChangePassword  bool       `gorm:"default:false" json:"must_change_password"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for AdminUser.
func (AdminUser) TableName() string { return "admin_users" }

// IsLocked reports whether the account is currently in lockout.
func (u *AdminUser) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// ServiceAccountStatus is the closed set of lifecycle states for a
// service account.
type ServiceAccountStatus string

const (
	ServiceAccountActive    ServiceAccountStatus = "ACTIVE"
	ServiceAccountSuspended ServiceAccountStatus = "SUSPENDED"
	ServiceAccountExpired   ServiceAccountStatus = "EXPIRED"
	ServiceAccountDeleted   ServiceAccountStatus = "DELETED"
)

// ServiceAccount is an OAuth2 client-credentials principal used by the
// ingester/query services (and any other automated caller).
type ServiceAccount struct {
	ID                  string     `gorm:"primaryKey;size:36" json:"id"`
	Name                string     `gorm:"uniqueIndex;not null;size:255" json:"name"`
	ClientID            string     `gorm:"uniqueIndex;not null;size:255" json:"client_id"`
	ClientSecretHash    string     `gorm:"not null" json:"-"`
	SecretHashHistory   string     `gorm:"type:text" json:"-"` // JSON-encoded []string
	Role                string     `gorm:"not null;size:50" json:"role"`
	Status              string     `gorm:"not null;size:50;default:ACTIVE" json:"status"`
	RateLimit           int        `gorm:"not null;default:60" json:"rate_limit"`
	Environment         string     `gorm:"size:50" json:"environment,omitempty"`
	IsSystem            bool       `gorm:"default:false" json:"is_system"`
	SecretExpiresAt     *time.Time `json:"secret_expires_at,omitempty"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for ServiceAccount.
func (ServiceAccount) TableName() string { return "service_accounts" }

// IsUsable reports whether the account may currently authenticate.
func (sa *ServiceAccount) IsUsable(now time.Time) bool {
	if sa.Status != string(ServiceAccountActive) {
		return false
	}
	if sa.SecretExpiresAt != nil && now.After(*sa.SecretExpiresAt) {
		return false
	}
	return true
}

// StorageMode is the closed enum governing which write operations a
// storage-element currently accepts.
type StorageMode string

const (
	ModeEdit StorageMode = "EDIT"
	ModeRW   StorageMode = "RW"
	ModeRO   StorageMode = "RO"
	ModeAR   StorageMode = "AR"
)

// StorageElementStatus mirrors redisdiscovery.StorageElementStatus for the
// admin-owned source-of-truth record.
type StorageElementStatus string

const (
	StatusOnline      StorageElementStatus = "ONLINE"
	StatusDegraded    StorageElementStatus = "DEGRADED"
	StatusMaintenance StorageElementStatus = "MAINTENANCE"
	StatusOffline     StorageElementStatus = "OFFLINE"
)

// StorageType selects the byte-storage backend a storage-element uses.
type StorageType string

const (
	StorageTypeLocal StorageType = "LOCAL"
	StorageTypeS3    StorageType = "S3"
)

// StorageElement is the admin-owned source of truth for a storage domain.
// Capacity/status fields are refreshed from the storage-element's own
// periodic health reports; admin only owns identity/mode/configuration.
type StorageElement struct {
	ID               string     `gorm:"primaryKey;size:36" json:"id"`
	ElementID        string     `gorm:"uniqueIndex;not null;size:64" json:"element_id"`
	Name             string     `gorm:"uniqueIndex;not null;size:255" json:"name"`
	Mode             string     `gorm:"not null;size:10" json:"mode"`
	StorageType      string     `gorm:"not null;size:10" json:"storage_type"`
	APIURL           string     `gorm:"not null;size:512" json:"api_url"`
	BasePath         string     `gorm:"size:1024" json:"base_path,omitempty"`
	CapacityBytes    int64      `json:"capacity_bytes"`
	UsedBytes        int64      `json:"used_bytes"`
	FileCount        int64      `json:"file_count"`
	Priority         uint16     `gorm:"not null;default:100" json:"priority"`
	RetentionDays    int        `json:"retention_days,omitempty"`
	Status           string     `gorm:"not null;size:20;default:ONLINE" json:"status"`
	LastHealthCheck  *time.Time `json:"last_health_check,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
}

// TableName returns the table name for StorageElement.
func (StorageElement) TableName() string { return "storage_elements" }

// allowedModeTransitions enumerates the only legal API-driven mode
// transitions. EDIT is only reachable via operator restart + config
// change, never via this table; AR is terminal.
var allowedModeTransitions = map[StorageMode]StorageMode{
	ModeRW: ModeRO,
	ModeRO: ModeAR,
}

// CanTransitionTo reports whether an API-driven transition from the
// element's current mode to target is legal.
func (se *StorageElement) CanTransitionTo(target StorageMode) bool {
	allowed, ok := allowedModeTransitions[StorageMode(se.Mode)]
	return ok && allowed == target
}

// ToRegistryElement projects the admin record into the shape published to
// Redis via pkg/redisdiscovery. CapacityStatus is supplied by the caller,
// computed via pkg/capacitystatus so the threshold table lives in one
// place shared with the ingester's selector and the storage-element's own
// health reporter.
func (se *StorageElement) ToRegistryElement(capacityStatus redisdiscovery.CapacityStatus) *redisdiscovery.StorageElement {
	return &redisdiscovery.StorageElement{
		ID:             se.ElementID,
		Name:           se.Name,
		APIURL:         se.APIURL,
		Mode:           redisdiscovery.StorageMode(se.Mode),
		Status:         redisdiscovery.StorageElementStatus(se.Status),
		CapacityBytes:  se.CapacityBytes,
		UsedBytes:      se.UsedBytes,
		FileCount:      se.FileCount,
		Priority:       se.Priority,
		CapacityStatus: capacityStatus,
	}
}

// RetentionPolicy is the closed set of retention classes a File may have.
type RetentionPolicy string

const (
	RetentionTemporary RetentionPolicy = "TEMPORARY"
	RetentionPermanent RetentionPolicy = "PERMANENT"
)

// File is the admin-owned registry record for a single uploaded object.
// The storage-element that actually holds the bytes keeps its own
// convenience cache row derived from the attr.json sidecar; this record
// is the cross-service source of truth.
type File struct {
	ID                    string     `gorm:"primaryKey;size:36;column:file_id" json:"file_id"`
	OriginalFilename      string     `gorm:"not null;size:1024" json:"original_filename" validate:"required"`
	StorageFilename       string     `gorm:"not null;size:1024" json:"storage_filename" validate:"required"`
	FileSize              int64      `gorm:"not null" json:"file_size" validate:"required,gt=0"`
	ChecksumSHA256        string     `gorm:"not null;size:64" json:"checksum_sha256" validate:"required,len=64,hexadecimal"`
	ContentType           string     `gorm:"size:255" json:"content_type,omitempty"`
	Description           string     `gorm:"size:1024" json:"description,omitempty"`
	RetentionPolicy       string     `gorm:"not null;size:20" json:"retention_policy" validate:"omitempty,oneof=TEMPORARY PERMANENT"`
	TTLExpiresAt          *time.Time `json:"ttl_expires_at,omitempty"`
	TTLDays               *int       `json:"ttl_days,omitempty"`
	FinalizedAt           *time.Time `json:"finalized_at,omitempty"`
	StorageElementID      string     `gorm:"not null;size:36;index" json:"storage_element_id"`
	StoragePath           string     `gorm:"not null;size:1024" json:"storage_path"`
	Compressed            bool       `gorm:"default:false" json:"compressed"`
	CompressionAlgorithm  string     `gorm:"size:50" json:"compression_algorithm,omitempty"`
	OriginalSize          *int64     `json:"original_size,omitempty"`
	UploadedBy            string     `gorm:"size:255" json:"uploaded_by,omitempty"`
	UploadSourceIP        string     `gorm:"size:64" json:"upload_source_ip,omitempty"`
	UserMetadataJSON      string     `gorm:"type:text" json:"-"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt             *time.Time `json:"deleted_at,omitempty"`
	DeletionReason        string     `gorm:"size:255" json:"deletion_reason,omitempty"`
}

// TableName returns the table name for File.
func (File) TableName() string { return "files" }

// UserMetadata decodes the free-form JSON metadata map.
func (f *File) UserMetadata() (map[string]any, error) {
	if f.UserMetadataJSON == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(f.UserMetadataJSON), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// SetUserMetadata encodes a free-form metadata map for storage.
func (f *File) SetUserMetadata(m map[string]any) error {
	if m == nil {
		f.UserMetadataJSON = ""
		return nil
	}
	encoded, err := json.Marshal(m)
	if err != nil {
		return err
	}
	f.UserMetadataJSON = string(encoded)
	return nil
}

// Finalize flips a TEMPORARY file to PERMANENT and clears its TTL.
// PERMANENT -> TEMPORARY is forbidden and the caller must not attempt it.
func (f *File) Finalize(now time.Time) {
	f.RetentionPolicy = string(RetentionPermanent)
	f.TTLExpiresAt = nil
	f.TTLDays = nil
	f.FinalizedAt = &now
}

// JWTKeyRecord is the GORM-persisted form of jwtkeys.Key.
type JWTKeyRecord struct {
	Version       string    `gorm:"primaryKey;size:36" json:"version"`
	PublicKeyPEM  string    `gorm:"type:text;not null" json:"public_key_pem"`
	PrivateKeyPEM string    `gorm:"type:text;not null" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	IsActive      bool      `gorm:"default:true" json:"is_active"`
	RotationCount int       `gorm:"default:0" json:"rotation_count"`
}

// TableName returns the table name for JWTKeyRecord.
func (JWTKeyRecord) TableName() string { return "jwt_keys" }

// AuditLogEntry records one administrative mutation. Writes are
// fire-and-forget (see audit.go); entries are append-only.
type AuditLogEntry struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Actor      string    `gorm:"size:255;index" json:"actor"`
	ActorType  string    `gorm:"size:20" json:"actor_type"` // admin_user | service_account | system
	Action     string    `gorm:"size:100;index" json:"action"`
	Resource   string    `gorm:"size:100" json:"resource"`
	ResourceID string    `gorm:"size:36;index" json:"resource_id,omitempty"`
	DetailJSON string    `gorm:"type:text" json:"-"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName returns the table name for AuditLogEntry.
func (AuditLogEntry) TableName() string { return "audit_log" }
