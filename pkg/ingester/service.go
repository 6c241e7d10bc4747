package ingester

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/artstore/artstore/internal/logger"
	"github.com/artstore/artstore/pkg/apiclient"
	"github.com/artstore/artstore/pkg/jwtkeys"
	"github.com/artstore/artstore/pkg/redisdiscovery"
	"github.com/artstore/artstore/pkg/unifiedjwt"
)

// ServiceConfig wires together everything the ingester needs: its Redis
// connection to the topology registry, the public key it verifies
// inbound tokens with, the admin-module base URL it registers files
// against, and the service-account credentials it authenticates its own
// outbound calls with.
type ServiceConfig struct {
	Redis redis.Options
	JWT   unifiedjwt.Config

	PublicKeyPath string
	KeyVersion    string

	AdminModuleURL string
	ClientID       string
	ClientSecret   string
}

// Service is the ingester's composition root: the selector, the
// streaming proxy, the admin-module client (kept authenticated via its
// own service-account credentials), and the inbound token verifier.
type Service struct {
	Selector *Selector
	Proxy    *Proxy
	Redis    *redis.Client
	JWT      *unifiedjwt.Service
	Keys     *jwtkeys.Manager
	Registry *redisdiscovery.Registry
	Admin    *apiclient.Client

	clientID     string
	clientSecret string

	tokenMu    sync.RWMutex
	token      string
	tokenExpAt time.Time

	cancelRefresh context.CancelFunc
}

// New connects to Redis, loads the inbound token verifier, mints the
// ingester's own outbound service-account token, and starts a background
// loop that refreshes it before expiry.
func New(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	redisClient := redis.NewClient(&cfg.Redis)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	keys, err := jwtkeys.NewFromFile(cfg.KeyVersion, cfg.PublicKeyPath)
	if err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("load jwt verifier key: %w", err)
	}
	if err := keys.Watch(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("watch jwt verifier key for rotation: %w", err)
	}

	registry := redisdiscovery.NewRegistry(redisClient)
	admin := apiclient.New(cfg.AdminModuleURL)

	svc := &Service{
		Selector:     NewSelector(registry),
		Proxy:        NewProxy(),
		Redis:        redisClient,
		JWT:          unifiedjwt.NewService(cfg.JWT, keys),
		Keys:         keys,
		Registry:     registry,
		Admin:        admin,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
	}

	if err := svc.refreshToken(); err != nil {
		keys.Stop()
		redisClient.Close()
		return nil, fmt.Errorf("mint initial service token: %w", err)
	}

	refreshCtx, cancel := context.WithCancel(context.Background())
	svc.cancelRefresh = cancel
	go svc.runTokenRefresh(refreshCtx)

	return svc, nil
}

// ServiceToken returns the ingester's current bearer token for calling
// other ArtStore services, minted via its own client-credentials grant.
func (s *Service) ServiceToken() string {
	s.tokenMu.RLock()
	defer s.tokenMu.RUnlock()
	return s.token
}

func (s *Service) refreshToken() error {
	pair, err := s.Admin.ClientCredentialsToken(s.clientID, s.clientSecret)
	if err != nil {
		return fmt.Errorf("client credentials grant: %w", err)
	}

	s.tokenMu.Lock()
	s.token = pair.AccessToken
	s.tokenExpAt = pair.ExpiresAt
	s.tokenMu.Unlock()

	s.Admin.SetToken(pair.AccessToken)
	return nil
}

// runTokenRefresh renews the outbound service token a minute before it
// expires, retrying on a short interval if the admin-module is briefly
// unreachable.
func (s *Service) runTokenRefresh(ctx context.Context) {
	const retryInterval = 30 * time.Second

	for {
		s.tokenMu.RLock()
		wait := time.Until(s.tokenExpAt.Add(-time.Minute))
		s.tokenMu.RUnlock()
		if wait < retryInterval {
			wait = retryInterval
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := s.refreshToken(); err != nil {
				logger.Error("failed to refresh ingester service token", logger.Err(err))
			}
		}
	}
}

// Close stops the token refresh loop, releases the JWT key watcher, and
// closes the Redis connection.
func (s *Service) Close() error {
	s.cancelRefresh()
	s.Keys.Stop()
	return s.Redis.Close()
}
