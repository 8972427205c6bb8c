package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// SessionCookie names the cookie carrying the browser session id.
const SessionCookie = "recipe_session"

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
}

// KeyFunc picks the identity a request is counted against.
type KeyFunc func(c *gin.Context) string

// SessionLookup reports whether id names a live session.
type SessionLookup func(id uuid.UUID) bool

// RateLimiter is a fixed-window limiter backed by Redis. A nil client disables it.
type RateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
	key    KeyFunc
	log    *logrus.Entry
	now    func() time.Time
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(redisClient *redis.Client, config RateLimitConfig, log *logrus.Entry) *RateLimiter {
	if log == nil {
		log = logrus.WithField("component", "rate_limiter")
	}
	return &RateLimiter{
		redis:  redisClient,
		config: config,
		key:    ClientIP,
		log:    log,
		now:    time.Now,
	}
}

// NewGenerationRateLimiter limits model calls per session per hour.
func NewGenerationRateLimiter(redisClient *redis.Client, perHour int, log *logrus.Entry) *RateLimiter {
	return NewRateLimiter(redisClient, RateLimitConfig{
		Window:    time.Hour,
		Limit:     perHour,
		KeyPrefix: "rate_limit:generation",
	}, log)
}

// WithSessionLookup counts requests against the caller's session once lookup
// confirms it exists.
func (rl *RateLimiter) WithSessionLookup(lookup SessionLookup) *RateLimiter {
	rl.key = SessionOrIP(lookup)
	return rl
}

// Key returns the identity c is counted against.
func (rl *RateLimiter) Key(c *gin.Context) string {
	return rl.key(c)
}

// ClientIP keys requests by client address.
func ClientIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// SessionOrIP keys requests by session id when the cookie parses and lookup
// knows it. Any other cookie counts against the client IP, so minting cookies
// never opens a fresh window.
func SessionOrIP(lookup SessionLookup) KeyFunc {
	return func(c *gin.Context) string {
		raw, err := c.Cookie(SessionCookie)
		if err != nil || lookup == nil {
			return ClientIP(c)
		}
		id, err := uuid.Parse(raw)
		if err != nil || !lookup(id) {
			return ClientIP(c)
		}
		return "session:" + id.String()
	}
}

// Enabled reports whether a Redis client is attached.
func (rl *RateLimiter) Enabled() bool {
	return rl != nil && rl.redis != nil
}

// RateLimitMiddleware returns a Gin middleware that enforces rate limiting.
// Requests pass through when Redis is not configured or not reachable.
func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Enabled() {
			c.Next()
			return
		}

		allowed, remaining, resetTime, err := rl.IsAllowed(c.Request.Context(), rl.Key(c))
		if err != nil {
			// Log error but don't fail the request
			rl.log.WithError(err).Warn("rate limit check failed")
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		// Set rate limit headers
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"message":     fmt.Sprintf("You have exceeded the limit of %d recipe requests per %v", rl.config.Limit, rl.config.Window),
				"retry_after": int(resetTime.Sub(rl.now()).Seconds()),
			})
			return
		}

		c.Next()
	}
}

// IsAllowed counts a request against key.
// Returns: allowed, remaining requests, reset time, error
func (rl *RateLimiter) IsAllowed(ctx context.Context, key string) (bool, int, time.Time, error) {
	windowStart := rl.now().Truncate(rl.config.Window)
	redisKey := rl.windowKey(key, windowStart)

	// Use Redis pipeline for atomic operations
	pipe := rl.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := int(incrCmd.Val())
	resetTime := windowStart.Add(rl.config.Window)
	return count <= rl.config.Limit, remainingOf(rl.config.Limit, count), resetTime, nil
}

// GetRemainingRequests returns the number of remaining requests for key without counting one.
func (rl *RateLimiter) GetRemainingRequests(ctx context.Context, key string) (int, time.Time, error) {
	windowStart := rl.now().Truncate(rl.config.Window)
	resetTime := windowStart.Add(rl.config.Window)

	count, err := rl.redis.Get(ctx, rl.windowKey(key, windowStart)).Int()
	if err == redis.Nil {
		// No requests yet in this window
		return rl.config.Limit, resetTime, nil
	}
	if err != nil {
		return 0, time.Time{}, err
	}
	return remainingOf(rl.config.Limit, count), resetTime, nil
}

func (rl *RateLimiter) windowKey(key string, windowStart time.Time) string {
	return fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix())
}

func remainingOf(limit, count int) int {
	if remaining := limit - count; remaining > 0 {
		return remaining
	}
	return 0
}
