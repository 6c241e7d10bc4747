package ratelimit

import (
	"context"
	"net/http"
	"strconv"

	"github.com/artstore/artstore/pkg/httpapi"
)

// ClaimsFromContext is supplied by the caller's auth middleware so this
// package need not import unifiedjwt directly; it only needs the two
// fields relevant to rate limiting.
type ClaimsFromContext func(ctx context.Context) (clientID string, rateLimit int, ok bool)

// Middleware builds a chi-compatible middleware that rate-limits requests
// carrying a service-account token. Requests without service-account
// claims (e.g. admin-user tokens) pass through unlimited.
func Middleware(limiter *Limiter, claimsFn ClaimsFromContext) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID, limit, ok := claimsFn(r.Context())
			if !ok || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			result := limiter.Allow(r.Context(), clientID, limit)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			if !result.Allowed {
				retrySeconds := int(result.RetryAfter.Seconds())
				if retrySeconds < 1 {
					retrySeconds = 1
				}
				httpapi.TooManyRequests(w, "rate_limit_exceeded",
					"request rate limit exceeded for this client", retrySeconds)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}
