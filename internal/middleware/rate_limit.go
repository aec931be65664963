package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/acegrade/grader-go-api/internal/utils"
)

// Limiter is a fixed-window rate limiter keyed by caller identity. Allow
// consumes one slot and reports whether the request may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type redisLimiter struct {
	client *redis.Client
	max    int64
	window time.Duration
}

// NewRedisLimiter builds a fixed-window limiter backed by Redis, so
// counters are shared across horizontally scaled instances.
func NewRedisLimiter(client *redis.Client, max int, window time.Duration) Limiter {
	if max <= 0 {
		max = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return &redisLimiter{client: client, max: int64(max), window: window}
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}

	// The window starts at the first request and resets when the key expires.
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, err
		}
	}

	return count <= l.max, nil
}

type memoryWindow struct {
	count   int
	resetAt time.Time
}

type memoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
	max     int
	window  time.Duration
	now     func() time.Time
}

// NewMemoryLimiter builds an in-process fixed-window limiter for
// deployments without Redis. Windows reset lazily on the next request
// after they elapse.
func NewMemoryLimiter(max int, window time.Duration) Limiter {
	if max <= 0 {
		max = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return &memoryLimiter{
		windows: make(map[string]*memoryWindow),
		max:     max,
		window:  window,
		now:     time.Now,
	}
}

func (l *memoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.windows[key]
	if !ok || now.After(entry.resetAt) {
		l.windows[key] = &memoryWindow{count: 1, resetAt: now.Add(l.window)}
		return true, nil
	}

	entry.count++
	return entry.count <= l.max, nil
}

// RateLimit enforces the limiter per authenticated user, falling back to
// the client IP for anonymous callers. Limiter errors fail open: an
// unreachable counter store should not take grading down with it.
func RateLimit(limiter Limiter, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "rate_limit").Logger()

	return func(c *fiber.Ctx) error {
		key := rateLimitKey(c)

		allowed, err := limiter.Allow(c.Context(), key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
			return c.Next()
		}

		if !allowed {
			return utils.SendError(c, fiber.StatusTooManyRequests, "rate limit exceeded, try again shortly")
		}

		return c.Next()
	}
}

func rateLimitKey(c *fiber.Ctx) string {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok && id != 0 {
			return fmt.Sprintf("grader:ratelimit:user:%d", id)
		}
	}
	return fmt.Sprintf("grader:ratelimit:ip:%s", c.IP())
}
