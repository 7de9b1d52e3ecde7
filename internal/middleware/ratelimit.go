package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fanpost/kanva/internal/auth"
	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/handler"
	"github.com/redis/go-redis/v9"
)

// =============================================================================
// Limiters
// =============================================================================

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed bool
	// ResetAfter is how long until the current window ends.
	ResetAfter time.Duration
}

// Limiter counts requests per key in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, key string) Decision
}

// RateLimiter is an in-process Limiter. Counts are per instance, so it
// only limits precisely when one API instance runs.
type RateLimiter struct {
	maxAttempts int
	window      time.Duration
	now         func() time.Time

	mu      sync.Mutex
	entries map[string]*rateLimitEntry
	stop    chan struct{}
	once    sync.Once
}

type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a new in-process rate limiter. Call Close to stop
// its cleanup goroutine.
func NewRateLimiter(maxAttempts int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
		entries:     make(map[string]*rateLimitEntry),
		stop:        make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow counts a request for key.
func (rl *RateLimiter) Allow(_ context.Context, key string) Decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, exists := rl.entries[key]
	if !exists || now.Sub(entry.windowStart) >= rl.window {
		rl.entries[key] = &rateLimitEntry{count: 1, windowStart: now}
		return Decision{Allowed: true, ResetAfter: rl.window}
	}

	resetAfter := rl.window - now.Sub(entry.windowStart)
	if entry.count < rl.maxAttempts {
		entry.count++
		return Decision{Allowed: true, ResetAfter: resetAfter}
	}
	return Decision{Allowed: false, ResetAfter: resetAfter}
}

// Close stops the cleanup goroutine.
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

// cleanup periodically removes expired entries to prevent memory leaks.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, entry := range rl.entries {
				if now.Sub(entry.windowStart) >= rl.window {
					delete(rl.entries, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// RedisRateLimiter shares counts across API instances through Redis.
// When Redis fails the request is allowed.
type RedisRateLimiter struct {
	client      redis.UniversalClient
	maxAttempts int
	window      time.Duration
	prefix      string
	timeout     time.Duration
	logger      *slog.Logger
}

// NewRedisRateLimiter creates a Redis backed limiter on an existing client.
func NewRedisRateLimiter(client redis.UniversalClient, maxAttempts int, window time.Duration, logger *slog.Logger) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:      client,
		maxAttempts: maxAttempts,
		window:      window,
		prefix:      "kanva:ratelimit:",
		timeout:     250 * time.Millisecond,
		logger:      logger,
	}
}

// Allow counts a request for key.
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) Decision {
	ctx, cancel := context.WithTimeout(ctx, rl.timeout)
	defer cancel()

	redisKey := rl.prefix + key
	counter, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		rl.logger.Error("redis rate limiter error", "op", "incr", "error", err)
		return Decision{Allowed: true, ResetAfter: rl.window}
	}
	if counter == 1 {
		if err := rl.client.Expire(ctx, redisKey, rl.window).Err(); err != nil {
			rl.logger.Error("redis rate limiter error", "op", "expire", "error", err)
		}
	}

	ttl, err := rl.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		ttl = rl.window
	}
	return Decision{
		Allowed:    int(counter) <= rl.maxAttempts,
		ResetAfter: ttl,
	}
}

// =============================================================================
// Rate Limit Middleware
// =============================================================================

// RateLimitMiddleware wraps a Limiter for use as HTTP middleware.
type RateLimitMiddleware struct {
	limiter Limiter
	logger  *slog.Logger
}

// NewRateLimitMiddleware creates a new rate limit middleware.
func NewRateLimitMiddleware(limiter Limiter, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		logger:  logger,
	}
}

// Limit returns middleware that rate limits requests. Authenticated callers
// are limited per user, anonymous ones per client IP.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ip:" + getClientIP(r)
		if id := auth.GetIdentity(r.Context()); id != nil {
			key = "user:" + id.ID.String()
		}

		decision := m.limiter.Allow(r.Context(), key)
		if !decision.Allowed {
			m.logger.Warn("rate limit exceeded",
				"key", key,
				"path", r.URL.Path,
				"method", r.Method,
			)

			retryAfter := int(decision.ResetAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			handler.ErrorResponse(w, r, m.logger, domain.RateLimit(""))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Helpers
// =============================================================================

// getClientIP extracts the client IP from the request, considering proxy headers.
func getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs: client, proxy1, proxy2
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if clientIP := strings.TrimSpace(first); clientIP != "" {
			return clientIP
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}
