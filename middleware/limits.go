package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/medcenter/clinic-api/cache"
)

// RateLimitConfig configures a rate limiter
type RateLimitConfig struct {
	Max        int           // maximum requests per window
	Expiration time.Duration // window length
	Message    string
}

// DefaultRateLimit applies to the whole API
var DefaultRateLimit = RateLimitConfig{
	Max:        300,
	Expiration: time.Minute,
	Message:    "Too many requests, please try again later.",
}

// AuthRateLimit applies to login and OTP endpoints
var AuthRateLimit = RateLimitConfig{
	Max:        10,
	Expiration: 15 * time.Minute,
	Message:    "Too many login attempts, please try again later.",
}

// CreateRateLimiter builds a limiter keyed by client IP. Counters live in
// store so they are shared between instances when it is Redis backed.
func CreateRateLimiter(config RateLimitConfig, store cache.Cache) fiber.Handler {
	cfg := limiter.Config{
		Max:        config.Max,
		Expiration: config.Expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.Route().Path + "|" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":     false,
				"message":     config.Message,
				"retry_after": int(config.Expiration.Seconds()),
			})
		},
	}
	if store != nil {
		cfg.Storage = &limiterStorage{cache: store, prefix: "ratelimit_"}
	}
	return limiter.New(cfg)
}

// limiterStorage adapts cache.Cache to fiber.Storage
type limiterStorage struct {
	cache  cache.Cache
	prefix string
}

func (s *limiterStorage) Get(key string) ([]byte, error) {
	val, err := s.cache.Get(context.Background(), s.prefix+key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	return val, err
}

func (s *limiterStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return s.cache.Set(context.Background(), s.prefix+key, val, exp)
}

func (s *limiterStorage) Delete(key string) error {
	return s.cache.Delete(context.Background(), s.prefix+key)
}

func (s *limiterStorage) Reset() error { return nil }

func (s *limiterStorage) Close() error { return nil }

// SecurityHeaders sets browser security headers. Documents are fetched by a
// frontend on another origin, so resources are marked cross-origin.
func SecurityHeaders() fiber.Handler {
	return helmet.New(helmet.Config{
		XFrameOptions:             "DENY",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		HSTSMaxAge:                31536000,
		CrossOriginResourcePolicy: "cross-origin",
		CrossOriginEmbedderPolicy: "unsafe-none",
	})
}
