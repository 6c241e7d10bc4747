// Package ratelimit implements the sliding-window rate limiter applied to
// every request carrying a service-account token. Each client_id gets its
// own Redis sorted set keyed by request timestamp; on any Redis error the
// limiter fails open, since a cache outage must never block legitimate
// traffic.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/artstore/artstore/internal/logger"
)

const keyPrefix = "rate_limit:"

// Window is the sliding window over which requests are counted. Rate
// limits are expressed as requests-per-minute, so the window is fixed
// at one minute.
const Window = 1 * time.Minute

// Result describes the outcome of a rate-limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration // only meaningful when !Allowed
}

// Limiter enforces a per-client_id sliding window over Redis.
type Limiter struct {
	client *redis.Client
}

// New creates a Limiter bound to the given Redis client.
func New(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// Allow checks and records one request for clientID against limit
// requests per Window. On any Redis error it fails open (returns
// Allowed=true) and logs the failure: legitimate traffic is never
// blocked on a cache failure.
func (l *Limiter) Allow(ctx context.Context, clientID string, limit int) Result {
	key := keyPrefix + clientID
	now := time.Now()
	windowStart := now.Add(-Window)

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, key)
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("rate limiter failing open on redis error", logger.Err(err))
		return Result{Allowed: true, Limit: limit}
	}

	count := int(countCmd.Val())
	if count >= limit {
		retryAfter := Window
		if oldest := oldestCmd.Val(); len(oldest) > 0 {
			oldestAt := time.Unix(0, int64(oldest[0].Score))
			retryAfter = Window - now.Sub(oldestAt)
			if retryAfter < 0 {
				retryAfter = 0
			}
		}
		return Result{Allowed: false, Limit: limit, Remaining: 0, RetryAfter: retryAfter}
	}

	member := fmt.Sprintf("%d", now.UnixNano())
	addPipe := l.client.Pipeline()
	addPipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: member})
	addPipe.Expire(ctx, key, Window*2)
	if _, err := addPipe.Exec(ctx); err != nil {
		logger.Error("rate limiter failing open on redis error", logger.Err(err))
		return Result{Allowed: true, Limit: limit}
	}

	return Result{Allowed: true, Limit: limit, Remaining: limit - count - 1}
}
