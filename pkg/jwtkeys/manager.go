package jwtkeys

import (
	"crypto/rsa"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/artstore/artstore/internal/logger"
)

// Manager holds the in-memory set of public keys used to verify
// UnifiedJWT tokens, plus (on the admin-module) the private key used to
// sign new ones. It implements unifiedjwt.KeyProvider.
//
// Two key-loading modes are supported:
//   - File mode: a verifier-only service (storage-element, ingester, query)
//     watches a mounted public-key file for changes.
//   - Store mode: the admin-module loads active keys from its database and
//     additionally owns the current private key for signing.
type Manager struct {
	mu      sync.RWMutex
	public  map[string]*rsa.PublicKey // version -> public key
	private *rsa.PrivateKey
	current string // version used for new signatures; empty in verifier-only mode

	publicKeyPath string // non-empty when hot-reload-from-file is active
	watcher       *fsnotify.Watcher
	stopCh        chan struct{}
}

// NewFromPEM builds a verifier-only Manager from in-memory PEM bytes, e.g.
// sourced from a PEM-encoded environment variable.
func NewFromPEM(version string, publicKeyPEM []byte) (*Manager, error) {
	key, err := parsePublicKey(publicKeyPEM)
	if err != nil {
		return nil, err
	}
	return &Manager{
		public: map[string]*rsa.PublicKey{version: key},
	}, nil
}

// NewFromFile builds a verifier-only Manager that loads its initial public
// key from disk. Call Watch to start hot-reload.
func NewFromFile(version, publicKeyPath string) (*Manager, error) {
	data, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key file: %w", err)
	}
	key, err := parsePublicKey(data)
	if err != nil {
		return nil, err
	}
	return &Manager{
		public:        map[string]*rsa.PublicKey{version: key},
		publicKeyPath: publicKeyPath,
		current:       version,
	}, nil
}

// LoadActive populates the manager from a store's active key rows,
// including the private key for the newest one so the admin-module can
// sign new tokens. Keys are expected newest-first.
func (m *Manager) LoadActive(keys []*Key) error {
	if len(keys) == 0 {
		return fmt.Errorf("jwtkeys: no active keys to load")
	}

	public := make(map[string]*rsa.PublicKey, len(keys))
	for _, k := range keys {
		pub, err := parsePublicKey([]byte(k.PublicKeyPEM))
		if err != nil {
			return fmt.Errorf("load key %s: %w", k.Version, err)
		}
		public[k.Version] = pub
	}

	newest := keys[0]
	priv, err := parsePrivateKey([]byte(newest.PrivateKeyPEM))
	if err != nil {
		return fmt.Errorf("load signing key %s: %w", newest.Version, err)
	}

	m.mu.Lock()
	m.public = public
	m.private = priv
	m.current = newest.Version
	m.mu.Unlock()

	return nil
}

// SigningKey implements unifiedjwt.KeyProvider.
func (m *Manager) SigningKey() (string, *rsa.PrivateKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.private == nil {
		return "", nil, fmt.Errorf("jwtkeys: no private key loaded (verifier-only manager)")
	}
	return m.current, m.private, nil
}

// PublicKey implements unifiedjwt.KeyProvider.
func (m *Manager) PublicKey(version string) (*rsa.PublicKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key, ok := m.public[version]
	if !ok {
		return nil, fmt.Errorf("jwtkeys: unknown key version %q", version)
	}
	return key, nil
}

// Watch starts an fsnotify watcher on the manager's public key file and
// hot-swaps the in-memory key whenever the file changes and the new
// content validates as PEM. Must be called only after an event loop
// exists, not at construction — the manager can be used for verification
// immediately, but the watcher goroutine needs somewhere to run.
func (m *Manager) Watch() error {
	if m.publicKeyPath == "" {
		return nil // in-memory/store mode: nothing to watch
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create key watcher: %w", err)
	}
	if err := watcher.Add(m.publicKeyPath); err != nil {
		watcher.Close()
		return fmt.Errorf("watch public key file: %w", err)
	}

	m.watcher = watcher
	m.stopCh = make(chan struct{})
	go m.watchLoop()

	logger.Info("jwt public key hot-reload started", "path", m.publicKeyPath)
	return nil
}

// Stop stops the hot-reload watcher, if running.
func (m *Manager) Stop() {
	if m.watcher == nil {
		return
	}
	close(m.stopCh)
	m.watcher.Close()
}

func (m *Manager) watchLoop() {
	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				m.reloadFromFile()
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("jwt key watcher error", logger.Err(err))
		case <-m.stopCh:
			return
		}
	}
}

func (m *Manager) reloadFromFile() {
	data, err := os.ReadFile(m.publicKeyPath)
	if err != nil {
		logger.Error("jwt public key reload failed", "path", m.publicKeyPath, logger.Err(err))
		return
	}
	if !looksLikePEM(data) {
		logger.Error("jwt public key reload rejected: not valid PEM", "path", m.publicKeyPath)
		return
	}
	key, err := parsePublicKey(data)
	if err != nil {
		logger.Error("jwt public key reload rejected", "path", m.publicKeyPath, logger.Err(err))
		return
	}

	m.mu.Lock()
	m.public[m.current] = key
	m.mu.Unlock()

	logger.Info("jwt public key reloaded", "path", m.publicKeyPath, "version", m.current)
}
