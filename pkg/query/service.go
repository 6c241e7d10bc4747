package query

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/artstore/artstore/pkg/apiclient"
	"github.com/artstore/artstore/pkg/eventbus"
	"github.com/artstore/artstore/pkg/jwtkeys"
	"github.com/artstore/artstore/pkg/redisdiscovery"
	"github.com/artstore/artstore/pkg/unifiedjwt"
)

// ServiceConfig wires together everything the query service needs: its
// Postgres search index, its Redis connection to both the topology
// registry and the file-events stream, the public key it verifies
// inbound tokens with, and the admin-module it hydrates search rows
// from.
type ServiceConfig struct {
	Postgres PostgresConfig
	Redis    redis.Options
	JWT      unifiedjwt.Config

	PublicKeyPath string
	KeyVersion    string

	AdminModuleURL string
	ClientID       string
	ClientSecret   string

	ConsumerGroup string
	ConsumerName  string
}

// Service is the query service's composition root.
type Service struct {
	Store    *Store
	Registry *redisdiscovery.Registry
	Indexer  *Indexer
	Redis    *redis.Client
	JWT      *unifiedjwt.Service
	Keys     *jwtkeys.Manager
	Admin    *apiclient.Client

	cancelIndex context.CancelFunc
}

// New connects to Postgres and Redis, loads the inbound token verifier,
// authenticates to the admin-module, and starts the background indexer
// loop that drains file-events into the search store.
func New(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	store, err := NewStore(&cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("open search store: %w", err)
	}

	redisClient := redis.NewClient(&cfg.Redis)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		store.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	keys, err := jwtkeys.NewFromFile(cfg.KeyVersion, cfg.PublicKeyPath)
	if err != nil {
		store.Close()
		redisClient.Close()
		return nil, fmt.Errorf("load jwt verifier key: %w", err)
	}
	if err := keys.Watch(); err != nil {
		store.Close()
		redisClient.Close()
		return nil, fmt.Errorf("watch jwt verifier key for rotation: %w", err)
	}

	registry := redisdiscovery.NewRegistry(redisClient)
	admin := apiclient.New(cfg.AdminModuleURL)

	pair, err := admin.ClientCredentialsToken(cfg.ClientID, cfg.ClientSecret)
	if err != nil {
		keys.Stop()
		store.Close()
		redisClient.Close()
		return nil, fmt.Errorf("mint service token: %w", err)
	}
	admin.SetToken(pair.AccessToken)

	consumerGroup := cfg.ConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "query"
	}
	consumer := eventbus.NewConsumer(redisClient, consumerGroup, cfg.ConsumerName)
	if err := consumer.EnsureGroup(ctx); err != nil {
		keys.Stop()
		store.Close()
		redisClient.Close()
		return nil, fmt.Errorf("ensure file-events consumer group: %w", err)
	}

	indexer := NewIndexer(consumer, store, admin)
	indexCtx, cancel := context.WithCancel(context.Background())
	go indexer.Run(indexCtx, 2*time.Second)

	return &Service{
		Store:       store,
		Registry:    registry,
		Indexer:     indexer,
		Redis:       redisClient,
		JWT:         unifiedjwt.NewService(cfg.JWT, keys),
		Keys:        keys,
		Admin:       admin,
		cancelIndex: cancel,
	}, nil
}

// Close stops the indexer loop, releases the JWT key watcher, and closes
// the database and Redis connections.
func (s *Service) Close() error {
	s.cancelIndex()
	s.Keys.Stop()
	if err := s.Store.Close(); err != nil {
		s.Redis.Close()
		return err
	}
	return s.Redis.Close()
}
