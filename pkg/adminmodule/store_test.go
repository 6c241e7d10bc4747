//go:build integration

package adminmodule

import (
	"context"
	"errors"
	"testing"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(&StoreConfig{
		Type:   DatabaseTypeSQLite,
		SQLite: SQLiteConfig{Path: ":memory:"},
	})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	return store
}

func TestNewStore(t *testing.T) {
	t.Run("default config uses sqlite", func(t *testing.T) {
		config := &StoreConfig{}
		config.ApplyDefaults()
		if config.Type != DatabaseTypeSQLite {
			t.Errorf("expected sqlite, got %s", config.Type)
		}
	})

	t.Run("invalid config returns error", func(t *testing.T) {
		_, err := NewStore(&StoreConfig{Type: "invalid"})
		if err == nil {
			t.Error("expected error for invalid database type")
		}
	})

	t.Run("creates in-memory store", func(t *testing.T) {
		store := createTestStore(t)
		defer store.Close()
		if store == nil {
			t.Error("expected non-nil store")
		}
	})
}

func TestAdminUserOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	t.Run("bootstrap admin is created once", func(t *testing.T) {
		password, err := store.EnsureBootstrapAdmin(ctx)
		if err != nil {
			t.Fatalf("failed to bootstrap admin: %v", err)
		}
		if password == "" {
			t.Error("expected non-empty bootstrap password")
		}

		user, err := store.GetAdminUser(ctx, "admin")
		if err != nil {
			t.Fatalf("admin user should exist: %v", err)
		}
		if user.Role != string(RoleSuperAdmin) {
			t.Errorf("expected SUPER_ADMIN role, got %q", user.Role)
		}
		if !user.IsSystem {
			t.Error("bootstrap admin should be marked is_system")
		}

		second, err := store.EnsureBootstrapAdmin(ctx)
		if err != nil {
			t.Fatalf("unexpected error on second bootstrap: %v", err)
		}
		if second != "" {
			t.Error("second bootstrap call should return empty password")
		}
	})

	t.Run("create and get admin user", func(t *testing.T) {
		hash, err := HashSecret("password123!", MinAdminPasswordLength)
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}
		user := &AdminUser{Username: "operator", PasswordHash: hash, Role: string(RoleAdmin)}
		if _, err := store.CreateAdminUser(ctx, user); err != nil {
			t.Fatalf("failed to create admin user: %v", err)
		}

		fetched, err := store.GetAdminUser(ctx, "operator")
		if err != nil {
			t.Fatalf("failed to get admin user: %v", err)
		}
		if fetched.Username != "operator" {
			t.Errorf("expected username 'operator', got %q", fetched.Username)
		}
	})

	t.Run("duplicate admin user fails", func(t *testing.T) {
		hash, _ := HashSecret("password123!", MinAdminPasswordLength)
		user := &AdminUser{Username: "operator", PasswordHash: hash, Role: string(RoleAdmin)}
		if _, err := store.CreateAdminUser(ctx, user); !errors.Is(err, ErrDuplicateAdminUser) {
			t.Errorf("expected ErrDuplicateAdminUser, got %v", err)
		}
	})

	t.Run("authenticate locks out after repeated failures", func(t *testing.T) {
		hash, _ := HashSecret("correct-password1", MinAdminPasswordLength)
		user := &AdminUser{Username: "locktest", PasswordHash: hash, Role: string(RoleReadonly)}
		store.CreateAdminUser(ctx, user)

		for i := 0; i < DefaultLockoutThreshold; i++ {
			if _, err := store.AuthenticateAdminUser(ctx, "locktest", "wrong-password"); err == nil {
				t.Fatalf("expected authentication failure on attempt %d", i)
			}
		}

		if _, err := store.AuthenticateAdminUser(ctx, "locktest", "correct-password1"); !errors.Is(err, ErrAccountLocked) {
			t.Errorf("expected ErrAccountLocked once threshold is reached, got %v", err)
		}
	})

	t.Run("change password rejects reuse", func(t *testing.T) {
		hash, _ := HashSecret("first-password1", MinAdminPasswordLength)
		user := &AdminUser{Username: "rotator", PasswordHash: hash, Role: string(RoleAdmin)}
		id, err := store.CreateAdminUser(ctx, user)
		if err != nil {
			t.Fatalf("failed to create admin user: %v", err)
		}

		if err := store.ChangeAdminPassword(ctx, id, "second-password1"); err != nil {
			t.Fatalf("failed to change password: %v", err)
		}
		if err := store.ChangeAdminPassword(ctx, id, "first-password1"); !errors.Is(err, ErrPasswordReused) {
			t.Errorf("expected ErrPasswordReused, got %v", err)
		}
	})

	t.Run("create with password generates one when omitted and requires change", func(t *testing.T) {
		result, err := store.CreateAdminUserWithPassword(ctx, "generated-pw-user", "", string(RoleReadonly))
		if err != nil {
			t.Fatalf("failed to create admin user: %v", err)
		}
		if result.PlaintextPassword == "" {
			t.Error("expected a generated password")
		}
		if !result.User.MustChangePassword {
			t.Error("expected MustChangePassword to be set when password is auto-generated")
		}

		if _, err := store.AuthenticateAdminUser(ctx, "generated-pw-user", result.PlaintextPassword); err != nil {
			t.Errorf("generated password should authenticate: %v", err)
		}
	})

	t.Run("create with password rejects invalid role", func(t *testing.T) {
		if _, err := store.CreateAdminUserWithPassword(ctx, "bad-role-user", "somepassword1", "NOT_A_ROLE"); !errors.Is(err, ErrInvalidRole) {
			t.Errorf("expected ErrInvalidRole, got %v", err)
		}
	})

	t.Run("reset password invalidates old password and forces change", func(t *testing.T) {
		hash, _ := HashSecret("old-password1", MinAdminPasswordLength)
		user := &AdminUser{Username: "reset-me", PasswordHash: hash, Role: string(RoleAdmin)}
		id, err := store.CreateAdminUser(ctx, user)
		if err != nil {
			t.Fatalf("failed to create admin user: %v", err)
		}

		newPassword, err := store.ResetAdminPassword(ctx, id)
		if err != nil {
			t.Fatalf("failed to reset password: %v", err)
		}
		if newPassword == "" {
			t.Error("expected a generated password")
		}

		if _, err := store.AuthenticateAdminUser(ctx, "reset-me", "old-password1"); err == nil {
			t.Error("old password should no longer authenticate")
		}
		authenticated, err := store.AuthenticateAdminUser(ctx, "reset-me", newPassword)
		if err != nil {
			t.Fatalf("new password should authenticate: %v", err)
		}
		if !authenticated.MustChangePassword {
			t.Error("expected MustChangePassword to be set after a reset")
		}
	})
}

func TestServiceAccountOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	t.Run("create service account returns plaintext secret once", func(t *testing.T) {
		result, err := store.CreateServiceAccount(ctx, "ingester-prod", string(RoleAdmin), 120, "production")
		if err != nil {
			t.Fatalf("failed to create service account: %v", err)
		}
		if result.PlaintextSecret == "" {
			t.Error("expected non-empty plaintext secret")
		}
		if result.Account.ClientID == "" {
			t.Error("expected non-empty client_id")
		}
	})

	t.Run("duplicate name fails", func(t *testing.T) {
		_, err := store.CreateServiceAccount(ctx, "ingester-prod", string(RoleAdmin), 60, "")
		if !errors.Is(err, ErrDuplicateServiceAccount) {
			t.Errorf("expected ErrDuplicateServiceAccount, got %v", err)
		}
	})

	t.Run("authenticate with correct secret", func(t *testing.T) {
		result, err := store.CreateServiceAccount(ctx, "query-prod", string(RoleReadonly), 60, "production")
		if err != nil {
			t.Fatalf("failed to create service account: %v", err)
		}

		account, err := store.AuthenticateServiceAccount(ctx, result.Account.ClientID, result.PlaintextSecret)
		if err != nil {
			t.Fatalf("failed to authenticate: %v", err)
		}
		if account.Name != "query-prod" {
			t.Errorf("expected name 'query-prod', got %q", account.Name)
		}
	})

	t.Run("rotate secret invalidates the old one", func(t *testing.T) {
		result, _ := store.CreateServiceAccount(ctx, "rotate-target", string(RoleAdmin), 60, "")

		newSecret, err := store.RotateServiceAccountSecret(ctx, result.Account.ID)
		if err != nil {
			t.Fatalf("failed to rotate secret: %v", err)
		}

		if _, err := store.AuthenticateServiceAccount(ctx, result.Account.ClientID, result.PlaintextSecret); err == nil {
			t.Error("old secret should no longer authenticate")
		}
		if _, err := store.AuthenticateServiceAccount(ctx, result.Account.ClientID, newSecret); err != nil {
			t.Errorf("new secret should authenticate: %v", err)
		}
	})
}

func TestStorageElementOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		se := &StorageElement{
			ElementID:     "se-01",
			Name:          "primary",
			Mode:          string(ModeEdit),
			StorageType:   string(StorageTypeLocal),
			APIURL:        "https://se-01.internal:9000",
			CapacityBytes: 1 << 40,
			Priority:      100,
			Status:        string(StatusOnline),
		}
		if _, err := store.CreateStorageElement(ctx, se); err != nil {
			t.Fatalf("failed to create storage element: %v", err)
		}

		fetched, err := store.GetStorageElementByElementID(ctx, "se-01")
		if err != nil {
			t.Fatalf("failed to get storage element: %v", err)
		}
		if fetched.Name != "primary" {
			t.Errorf("expected name 'primary', got %q", fetched.Name)
		}
	})

	t.Run("mode transition follows the state machine", func(t *testing.T) {
		se, _ := store.GetStorageElementByElementID(ctx, "se-01")

		// EDIT -> RO is not an allowed API-driven transition.
		if _, err := store.TransitionMode(ctx, se.ID, ModeRO); !errors.Is(err, ErrInvalidModeTransition) {
			t.Errorf("expected ErrInvalidModeTransition, got %v", err)
		}
	})

	t.Run("mode transition RW to RO succeeds", func(t *testing.T) {
		se := &StorageElement{
			ElementID: "se-02", Name: "secondary", Mode: string(ModeRW),
			StorageType: string(StorageTypeLocal), APIURL: "https://se-02.internal:9000",
			CapacityBytes: 1 << 40, Priority: 200, Status: string(StatusOnline),
		}
		store.CreateStorageElement(ctx, se)

		updated, err := store.TransitionMode(ctx, se.ID, ModeRO)
		if err != nil {
			t.Fatalf("failed to transition mode: %v", err)
		}
		if updated.Mode != string(ModeRO) {
			t.Errorf("expected mode RO, got %q", updated.Mode)
		}

		if _, err := store.TransitionMode(ctx, se.ID, ModeRW); !errors.Is(err, ErrInvalidModeTransition) {
			t.Error("RO should never transition back to RW")
		}
	})

	t.Run("list orders by priority then element_id", func(t *testing.T) {
		elements, err := store.ListStorageElements(ctx)
		if err != nil {
			t.Fatalf("failed to list storage elements: %v", err)
		}
		if len(elements) < 2 {
			t.Fatalf("expected at least 2 storage elements, got %d", len(elements))
		}
		if elements[0].Priority > elements[1].Priority {
			t.Error("expected elements ordered by ascending priority")
		}
	})
}

func TestFileRegistryOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	se := &StorageElement{
		ElementID: "se-files", Name: "files-element", Mode: string(ModeRW),
		StorageType: string(StorageTypeLocal), APIURL: "https://se-files.internal:9000",
		CapacityBytes: 1 << 40, Priority: 100, Status: string(StatusOnline),
	}
	store.CreateStorageElement(ctx, se)

	t.Run("register defaults to temporary retention", func(t *testing.T) {
		file := &File{
			OriginalFilename: "photo.jpg",
			StorageFilename:  "a1b2c3.jpg",
			FileSize:         2048,
			ChecksumSHA256:   "deadbeef",
			StorageElementID: se.ID,
			StoragePath:      "/data/a1/b2/a1b2c3.jpg",
		}
		if _, err := store.RegisterFile(ctx, file); err != nil {
			t.Fatalf("failed to register file: %v", err)
		}
		if file.RetentionPolicy != string(RetentionTemporary) {
			t.Errorf("expected TEMPORARY retention, got %q", file.RetentionPolicy)
		}
	})

	t.Run("finalize is idempotent", func(t *testing.T) {
		file := &File{
			OriginalFilename: "doc.pdf", StorageFilename: "f00d.pdf",
			FileSize: 512, ChecksumSHA256: "cafebabe",
			StorageElementID: se.ID, StoragePath: "/data/f0/0d/f00d.pdf",
		}
		store.RegisterFile(ctx, file)

		if err := store.FinalizeFile(ctx, file.ID); err != nil {
			t.Fatalf("failed to finalize file: %v", err)
		}
		if err := store.FinalizeFile(ctx, file.ID); err != nil {
			t.Errorf("second finalize call should be a no-op, got error: %v", err)
		}

		fetched, _ := store.GetFile(ctx, file.ID)
		if fetched.RetentionPolicy != string(RetentionPermanent) {
			t.Errorf("expected PERMANENT retention, got %q", fetched.RetentionPolicy)
		}
	})

	t.Run("soft delete hides the file from default listing", func(t *testing.T) {
		file := &File{
			OriginalFilename: "temp.tmp", StorageFilename: "t3mp.tmp",
			FileSize: 10, ChecksumSHA256: "abc123",
			StorageElementID: se.ID, StoragePath: "/data/t3/mp/t3mp.tmp",
		}
		store.RegisterFile(ctx, file)

		if err := store.SoftDeleteFile(ctx, file.ID, "requested by owner"); err != nil {
			t.Fatalf("failed to soft delete file: %v", err)
		}

		files, err := store.ListFiles(ctx, FileFilter{StorageElementID: se.ID})
		if err != nil {
			t.Fatalf("failed to list files: %v", err)
		}
		for _, f := range files {
			if f.ID == file.ID {
				t.Error("soft-deleted file should not appear in default listing")
			}
		}
	})

	t.Run("soft delete unknown file fails", func(t *testing.T) {
		if err := store.SoftDeleteFile(ctx, "does-not-exist", ""); !errors.Is(err, ErrFileNotFound) {
			t.Errorf("expected ErrFileNotFound, got %v", err)
		}
	})
}

func TestSettingOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	t.Run("put and get", func(t *testing.T) {
		setting, err := store.PutSetting(ctx, "rotation.interval_days", "30", "how often keys rotate")
		if err != nil {
			t.Fatalf("failed to put setting: %v", err)
		}
		if setting.Value != "30" {
			t.Errorf("expected value 30, got %q", setting.Value)
		}

		got, err := store.GetSetting(ctx, "rotation.interval_days")
		if err != nil {
			t.Fatalf("failed to get setting: %v", err)
		}
		if got.Description != "how often keys rotate" {
			t.Errorf("unexpected description %q", got.Description)
		}
	})

	t.Run("put overwrites value but keeps description", func(t *testing.T) {
		if _, err := store.PutSetting(ctx, "rotation.interval_days", "60", ""); err != nil {
			t.Fatalf("failed to overwrite setting: %v", err)
		}
		got, err := store.GetSetting(ctx, "rotation.interval_days")
		if err != nil {
			t.Fatalf("failed to get setting: %v", err)
		}
		if got.Value != "60" {
			t.Errorf("expected value 60, got %q", got.Value)
		}
		if got.Description != "how often keys rotate" {
			t.Errorf("bare value update should not erase description, got %q", got.Description)
		}
	})

	t.Run("list is ordered by key", func(t *testing.T) {
		if _, err := store.PutSetting(ctx, "alpha.flag", "on", ""); err != nil {
			t.Fatalf("failed to put setting: %v", err)
		}
		settings, err := store.ListSettings(ctx)
		if err != nil {
			t.Fatalf("failed to list settings: %v", err)
		}
		if len(settings) != 2 {
			t.Fatalf("expected 2 settings, got %d", len(settings))
		}
		if settings[0].Key != "alpha.flag" {
			t.Errorf("expected alpha.flag first, got %q", settings[0].Key)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := store.DeleteSetting(ctx, "alpha.flag"); err != nil {
			t.Fatalf("failed to delete setting: %v", err)
		}
		if _, err := store.GetSetting(ctx, "alpha.flag"); !errors.Is(err, ErrSettingNotFound) {
			t.Errorf("expected ErrSettingNotFound, got %v", err)
		}
	})

	t.Run("delete unknown key fails", func(t *testing.T) {
		if err := store.DeleteSetting(ctx, "never.existed"); !errors.Is(err, ErrSettingNotFound) {
			t.Errorf("expected ErrSettingNotFound, got %v", err)
		}
	})
}
