package middleware

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/safeline/safeline/internal/apperror"
)

const (
	loginRateWindow = time.Minute
	// loginIPFactor scales the per-client cap relative to the per-account cap,
	// so one address can try several accounts but not spray many.
	loginIPFactor = 4
)

type rateCounter struct {
	key   string
	limit int
}

var errTooManyLogins = apperror.New(apperror.ErrTooManyRequests, "too many login attempts, try again later")

// LoginRateLimit limits login attempts using Redis if available. Attempts are
// counted per (email, client IP) pair and, more loosely, per client IP, so
// failures from one address never lock the account out for other addresses.
func LoginRateLimit(cache *redis.Client, maxPerMin int, logger *slog.Logger) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		var req struct {
			Email string `json:"email" form:"email"`
		}
		_ = c.BodyParser(&req)
		email := strings.ToLower(strings.TrimSpace(req.Email))
		ip := c.IP()

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		counters := []rateCounter{{key: "rl:login:ip:" + ip, limit: maxPerMin * loginIPFactor}}
		if email != "" {
			counters = append(counters, rateCounter{key: "rl:login:acct:" + email + "|" + ip, limit: maxPerMin})
		}

		for _, ctr := range counters {
			cnt, err := bump(ctx, cache, ctr.key)
			if err != nil {
				logger.Warn("login rate limit unavailable", slog.Any("error", err))
				return c.Next() // fail-open on cache errors
			}
			if cnt > int64(ctr.limit) {
				return errTooManyLogins
			}
		}
		return c.Next()
	}
}

// bump increments a fixed-window counter, starting the window on first use.
func bump(ctx context.Context, cache *redis.Client, key string) (int64, error) {
	cnt, err := cache.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if cnt == 1 {
		cache.Expire(ctx, key, loginRateWindow)
	}
	return cnt, nil
}
