package jwtkeys

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromPEM(t *testing.T) {
	key, err := GenerateKey(DefaultValidity)
	require.NoError(t, err)

	manager, err := NewFromPEM(key.Version, []byte(key.PublicKeyPEM))
	require.NoError(t, err)

	pub, err := manager.PublicKey(key.Version)
	require.NoError(t, err)
	assert.NotNil(t, pub)
}

func TestNewFromPEMRejectsInvalidData(t *testing.T) {
	_, err := NewFromPEM("v1", []byte("not a pem file"))
	assert.Error(t, err)
}

func TestNewFromFileAndHotReload(t *testing.T) {
	key, err := GenerateKey(DefaultValidity)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "public.pem")
	require.NoError(t, os.WriteFile(path, []byte(key.PublicKeyPEM), 0o644))

	manager, err := NewFromFile(key.Version, path)
	require.NoError(t, err)
	require.NoError(t, manager.Watch())
	defer manager.Stop()

	originalPub, err := manager.PublicKey(key.Version)
	require.NoError(t, err)

	next, err := GenerateKey(DefaultValidity)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(next.PublicKeyPEM), 0o644))

	require.Eventually(t, func() bool {
		pub, err := manager.PublicKey(key.Version)
		if err != nil || pub == nil {
			return false
		}
		return !pub.Equal(originalPub)
	}, 2*time.Second, 20*time.Millisecond, "expected hot-reloaded key to replace the original")
}

func TestWatchInvalidContentRetainsOldKey(t *testing.T) {
	key, err := GenerateKey(DefaultValidity)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "public.pem")
	require.NoError(t, os.WriteFile(path, []byte(key.PublicKeyPEM), 0o644))

	manager, err := NewFromFile(key.Version, path)
	require.NoError(t, err)
	require.NoError(t, manager.Watch())
	defer manager.Stop()

	originalPub, err := manager.PublicKey(key.Version)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("garbage, not pem"), 0o644))
	time.Sleep(100 * time.Millisecond)

	pub, err := manager.PublicKey(key.Version)
	require.NoError(t, err)
	assert.True(t, pub.Equal(originalPub), "old key must be retained when new content fails PEM validation")
}
