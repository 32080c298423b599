package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Limiter counts hits against a fixed window. RedisDB and LocalKV implement it.
type Limiter interface {
	RateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitConfig configures the rate limiter
type RateLimitConfig struct {
	// Max requests per window
	Max int
	// Window duration
	Window time.Duration
	// Prefix namespaces the counters of one limiter
	Prefix string
	// KeyGenerator picks the bucket a request counts against
	KeyGenerator func(*fiber.Ctx) string
	// Skip function
	Skip func(*fiber.Ctx) bool
}

// DefaultRateLimitConfig returns default rate limit config
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Max:          100,
		Window:       time.Minute,
		Prefix:       "api",
		KeyGenerator: UserOrIPKey,
		Skip:         HealthSkipper,
	}
}

// UserOrIPKey buckets authenticated requests by user and the rest by IP
func UserOrIPKey(c *fiber.Ctx) string {
	if userID, ok := GetUserID(c); ok {
		return "user:" + userID.String()
	}
	return "ip:" + c.IP()
}

// IPKey buckets requests by client IP
func IPKey(c *fiber.Ctx) string {
	return "ip:" + c.IP()
}

// RateLimitMiddleware limits requests with a shared counter store
type RateLimitMiddleware struct {
	limiter Limiter
	config  RateLimitConfig
	logger  *zap.Logger
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(limiter Limiter, logger *zap.Logger, config ...RateLimitConfig) *RateLimitMiddleware {
	cfg := DefaultRateLimitConfig()
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = UserOrIPKey
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		config:  cfg,
		logger:  logger,
	}
}

// Handler returns the rate limit handler
func (m *RateLimitMiddleware) Handler() fiber.Handler {
	window := int64(m.config.Window.Seconds())

	return func(c *fiber.Ctx) error {
		if m.config.Skip != nil && m.config.Skip(c) {
			return c.Next()
		}

		key := fmt.Sprintf("ratelimit:%s:%s", m.config.Prefix, m.config.KeyGenerator(c))
		allowed, remaining, err := m.limiter.RateLimit(c.Context(), key, int64(m.config.Max), m.config.Window)
		if err != nil {
			// fail open
			m.logger.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(m.config.Max))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Unix()+window, 10))

		if !allowed {
			c.Set("Retry-After", strconv.FormatInt(window, 10))
			return reject(c, fiber.StatusTooManyRequests, "RATE_LIMITED", "Rate limit exceeded. Please try again later.")
		}

		return c.Next()
	}
}
