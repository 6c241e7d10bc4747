package adminmodule

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/artstore/artstore/internal/logger"
	"github.com/artstore/artstore/pkg/capacitystatus"
	"github.com/artstore/artstore/pkg/eventbus"
	"github.com/artstore/artstore/pkg/jwtkeys"
	"github.com/artstore/artstore/pkg/redisdiscovery"
	"github.com/artstore/artstore/pkg/unifiedjwt"
)

// Config wires together everything the admin-module service needs: its
// own registry database, the Redis connection shared with the topology
// bus/event plane/rotation lock, and JWT key material.
type Config struct {
	Store StoreConfig
	Redis redis.Options
	JWT   unifiedjwt.Config
}

// Service is the admin-module's composition root: every handler and
// background task is built once here and passed down by reference
// rather than through package-level state.
type Service struct {
	Store      *Store
	Redis      *redis.Client
	JWT        *unifiedjwt.Service
	KeyManager *jwtkeys.Manager
	Rotator    *jwtkeys.Rotator
	Topology   *redisdiscovery.Publisher
	Events     *eventbus.Producer
	Audit      *AuditLog

	// BootstrapAdminPassword holds the freshly generated "admin" password
	// when New created it on first boot (registry had no admin users
	// yet); empty on every subsequent start. Callers print it once; it
	// is never recoverable afterward.
	BootstrapAdminPassword string

	stopRotation chan struct{}
}

// New builds the admin-module's full dependency graph: registry store,
// Redis client, JWT key manager bootstrapped from the registry's active
// keys, topology publisher, file-event producer, and the audit log.
func New(ctx context.Context, cfg Config) (*Service, error) {
	store, err := NewStore(&cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open admin-module store: %w", err)
	}

	redisClient := redis.NewClient(&cfg.Redis)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	keyStore := NewJWTKeyStore(store)
	manager, err := bootstrapKeyManager(ctx, keyStore)
	if err != nil {
		return nil, fmt.Errorf("bootstrap jwt key manager: %w", err)
	}

	jwtService := unifiedjwt.NewService(cfg.JWT, manager)
	rotator := jwtkeys.NewRotator(keyStore, manager, redisClient)

	svc := &Service{
		Store:        store,
		Redis:        redisClient,
		JWT:          jwtService,
		KeyManager:   manager,
		Rotator:      rotator,
		Topology:     redisdiscovery.NewPublisher(redisClient),
		Events:       eventbus.NewProducer(redisClient),
		Audit:        NewAuditLog(store),
		stopRotation: make(chan struct{}),
	}

	bootstrapPassword, err := store.EnsureBootstrapAdmin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ensure bootstrap admin: %w", err)
	}
	svc.BootstrapAdminPassword = bootstrapPassword

	go svc.runRotationLoop()

	return svc, nil
}

// bootstrapKeyManager loads whatever active keys already exist, or mints
// the very first signing key if the registry is empty (first boot).
func bootstrapKeyManager(ctx context.Context, keyStore *JWTKeyStore) (*jwtkeys.Manager, error) {
	active, err := keyStore.ActiveKeys(ctx)
	if err != nil {
		return nil, err
	}

	if len(active) == 0 {
		key, err := jwtkeys.GenerateKey(jwtkeys.DefaultValidity)
		if err != nil {
			return nil, fmt.Errorf("generate initial signing key: %w", err)
		}
		if err := keyStore.Insert(ctx, key); err != nil {
			return nil, fmt.Errorf("persist initial signing key: %w", err)
		}
		active = []*jwtkeys.Key{key}
	}

	manager, err := jwtkeys.NewFromPEM(active[0].Version, []byte(active[0].PublicKeyPEM))
	if err != nil {
		return nil, err
	}
	if err := manager.LoadActive(active); err != nil {
		return nil, err
	}
	return manager, nil
}

// rotationCheckInterval is how often the rotation loop checks whether the
// newest active key is due for rotation. Actual rotation only happens
// when Rotator.Run decides the key is within its rotateWithinWindow.
const rotationCheckInterval = 10 * time.Minute

func (s *Service) runRotationLoop() {
	ticker := time.NewTicker(rotationCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := s.Rotator.Run(ctx); err != nil {
				logger.Error("jwt key rotation cycle failed", logger.Err(err))
			}
			cancel()
		case <-s.stopRotation:
			return
		}
	}
}

// PublishTopology publishes an already-projected registry snapshot.
func (s *Service) PublishTopology(ctx context.Context, elements []*redisdiscovery.StorageElement) error {
	return s.Topology.PublishSnapshot(ctx, elements)
}

// publishSnapshotBestEffort projects the given admin storage-element rows
// into the Redis wire shape, computing each element's adaptive capacity
// status via pkg/capacitystatus, and publishes the result. It is always
// called from a detached goroutine after a storage-element CRUD: a
// publish failure is logged but must never fail the request that
// triggered it.
func (s *Service) publishSnapshotBestEffort(elements []*StorageElement) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	projected := make([]*redisdiscovery.StorageElement, 0, len(elements))
	for _, se := range elements {
		status := capacitystatus.Compute(redisdiscovery.StorageMode(se.Mode), se.CapacityBytes, se.UsedBytes)
		projected = append(projected, se.ToRegistryElement(status))
	}

	if err := s.Topology.PublishSnapshot(ctx, projected); err != nil {
		logger.Error("failed to publish topology snapshot", logger.Err(err))
	}
}

// Close releases background goroutines and connections. Safe to call
// once during service shutdown.
func (s *Service) Close() error {
	close(s.stopRotation)
	s.KeyManager.Stop()
	s.Audit.Close()
	return s.Redis.Close()
}
