package api

import (
	"net"
	"net/http"

	"github.com/storefrontapp/storefront-server/internal/http/response"
	"github.com/storefrontapp/storefront-server/internal/ratelimit"
)

// NewRateLimiter converts a per-minute budget to a keyed limiter. A
// non-positive budget disables limiting and returns nil.
func NewRateLimiter(requestsPerMinute, burst int) *ratelimit.KeyedRateLimiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = requestsPerMinute
	}
	return ratelimit.New(float64(requestsPerMinute)/60, burst)
}

// RateLimitMiddleware creates a middleware that rate limits requests by IP.
// Returns 429 Too Many Requests when limit is exceeded.
func RateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter, logger interface{ Warn(msg string, args ...any) }) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := getClientIP(r)

			if !limiter.Allow(key) {
				logger.Warn("Rate limit exceeded",
					"ip", key,
					"path", r.URL.Path,
				)
				response.TooManyRequests(w, "Too many requests. Please try again later.", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request. RealIP has already
// copied X-Forwarded-For or X-Real-IP into RemoteAddr when present.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
