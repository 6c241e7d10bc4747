package storageelement

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/artstore/artstore/pkg/jwtkeys"
	"github.com/artstore/artstore/pkg/redisdiscovery"
	"github.com/artstore/artstore/pkg/unifiedjwt"
)

// ServiceConfig wires together everything a storage-element process
// needs: its local write path (Config, defined in element.go), the Redis
// connection it reports liveness through, and the public key material it
// verifies inbound tokens with.
type ServiceConfig struct {
	Element Config
	Redis   redis.Options
	JWT     unifiedjwt.Config

	// PublicKeyPath is a mounted PEM file containing the admin-module's
	// current signing public key; watched for hot-reload across rotations.
	PublicKeyPath string
	KeyVersion    string

	Health HealthReporterConfig
}

// Service is the storage-element's composition root: the write path, the
// token verifier, the topology reporter, and the Redis connection backing
// both, mirroring the admin-module's own Service.
type Service struct {
	Element  *Element
	Redis    *redis.Client
	JWT      *unifiedjwt.Service
	Keys     *jwtkeys.Manager
	Registry *redisdiscovery.Registry
	Health   *HealthReporter

	cancelHealth context.CancelFunc
}

// New opens the write path, connects to Redis, loads the verifier key,
// and starts the health reporter loop. The returned Service is ready to
// be handed to NewRouter.
func New(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	el, err := Open(cfg.Element)
	if err != nil {
		return nil, fmt.Errorf("open storage element: %w", err)
	}

	redisClient := redis.NewClient(&cfg.Redis)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		el.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	keys, err := jwtkeys.NewFromFile(cfg.KeyVersion, cfg.PublicKeyPath)
	if err != nil {
		el.Close()
		redisClient.Close()
		return nil, fmt.Errorf("load jwt verifier key: %w", err)
	}
	if err := keys.Watch(); err != nil {
		el.Close()
		redisClient.Close()
		return nil, fmt.Errorf("watch jwt verifier key for rotation: %w", err)
	}

	registry := redisdiscovery.NewRegistry(redisClient)
	health := NewHealthReporter(el, registry, cfg.Health)

	healthCtx, cancel := context.WithCancel(context.Background())
	go health.Run(healthCtx)

	return &Service{
		Element:      el,
		Redis:        redisClient,
		JWT:          unifiedjwt.NewService(cfg.JWT, keys),
		Keys:         keys,
		Registry:     registry,
		Health:       health,
		cancelHealth: cancel,
	}, nil
}

// Close stops the health reporter (deregistering the element), releases
// the JWT key watcher, and closes the write path and Redis connection.
func (s *Service) Close() error {
	s.Health.Stop()
	s.cancelHealth()
	s.Keys.Stop()

	if err := s.Element.Close(); err != nil {
		s.Redis.Close()
		return err
	}
	return s.Redis.Close()
}
