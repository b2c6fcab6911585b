package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"scrapemap/internal/config"
)

// rateLimitMiddleware enforces a simple per-minute fixed-window rate limit
// per client IP using Redis.
func rateLimitMiddleware(cfg *config.Config, rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.RateLimit.DefaultPerMinute <= 0 {
			return c.Next()
		}

		now := time.Now().UTC()
		window := now.Format("200601021504") // YYYYMMDDHHMM minute window
		key := fmt.Sprintf("scrapemap:rl:%s:%s", c.IP(), window)

		ctx := c.Context()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Success: false,
				Code:    "INTERNAL_ERROR",
				Error:   fmt.Sprintf("rate limit increment failed: %v", err),
			})
		}
		if count == 1 {
			// First hit in this window; set TTL
			_ = rdb.Expire(ctx, key, time.Minute)
		}

		if count > int64(cfg.RateLimit.DefaultPerMinute) {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				Success: false,
				Code:    "RATE_LIMIT_EXCEEDED",
				Error:   "Rate limit exceeded, try again later",
			})
		}

		return c.Next()
	}
}
