package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "idempotency:v2:"
	maxIdempotencyKeyLen = 255
	idempotencyStoreWait = 2 * time.Second
)

// replayRecord is what Redis holds per key. Status 0 means the first request
// is still running.
type replayRecord struct {
	Fingerprint string `json:"fp"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency lets a client retry a write without repeating its side effect.
// It is mounted per route, never globally. A request carrying an
// Idempotency-Key runs at most once per (route, caller, key) within ttl:
//   - a retry with the same body gets the stored response,
//   - a retry while the first attempt is running gets 409,
//   - the same key with a different body gets 422.
//
// Failed attempts (errors and 5xx) are forgotten so the client can retry.
// Requests without the header pass through.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := strings.TrimSpace(c.Get(idempotencyKeyHeader))
		if key == "" {
			return c.Next()
		}
		if len(key) > maxIdempotencyKeyLen {
			return fiber.NewError(fiber.StatusBadRequest, "Idempotency-Key too long")
		}

		caller := UserID(c)
		if caller == "" {
			caller = "anonymous"
		}
		storeKey := idempotencyPrefix + c.Method() + ":" + c.Route().Path + ":" + caller + ":" + key
		fp := fingerprint(c.Body())

		ctx, cancel := context.WithTimeout(context.Background(), idempotencyStoreWait)
		defer cancel()

		pending, err := json.Marshal(replayRecord{Fingerprint: fp})
		if err != nil {
			return err
		}
		reserved, err := cache.SetNX(ctx, storeKey, pending, ttl).Result()
		if err != nil {
			logger.Error("idempotency reservation failed", slog.Any("error", err))
			return fiber.NewError(fiber.StatusServiceUnavailable, "idempotency store unavailable")
		}
		if !reserved {
			return replay(ctx, c, cache, storeKey, fp, logger)
		}

		forget := func() {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), idempotencyStoreWait)
			defer cancel()
			if err := cache.Del(cleanupCtx, storeKey).Err(); err != nil {
				logger.Warn("idempotency release failed", slog.Any("error", err))
			}
		}

		if err := c.Next(); err != nil {
			forget()
			return err
		}
		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			forget()
			return nil
		}

		done, err := json.Marshal(replayRecord{
			Fingerprint: fp,
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		})
		if err == nil {
			persistCtx, cancel := context.WithTimeout(context.Background(), idempotencyStoreWait)
			defer cancel()
			err = cache.Set(persistCtx, storeKey, done, ttl).Err()
		}
		if err != nil {
			// The write already happened; answer it, and drop the key so a
			// retry is not stuck on 409 until ttl.
			logger.Error("idempotency persist failed", slog.Any("error", err))
			forget()
		}
		return nil
	}
}

func replay(ctx context.Context, c *fiber.Ctx, cache *redis.Client, storeKey, fp string, logger *slog.Logger) error {
	raw, err := cache.Get(ctx, storeKey).Bytes()
	if errors.Is(err, redis.Nil) {
		// Released between SETNX and GET: the first attempt failed.
		return fiber.NewError(fiber.StatusConflict, "previous attempt with this Idempotency-Key just failed, retry")
	}
	if err != nil {
		logger.Error("idempotency lookup failed", slog.Any("error", err))
		return fiber.NewError(fiber.StatusServiceUnavailable, "idempotency store unavailable")
	}

	var rec replayRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		logger.Warn("idempotency record unreadable", slog.Any("error", err))
		return fiber.NewError(fiber.StatusConflict, "duplicate request")
	}
	if rec.Fingerprint != fp {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Idempotency-Key reused with a different request")
	}
	if rec.Status == 0 {
		return fiber.NewError(fiber.StatusConflict, "duplicate request currently processing")
	}

	if rec.ContentType != "" {
		c.Set(fiber.HeaderContentType, rec.ContentType)
	}
	c.Set("Idempotent-Replayed", "true")
	return c.Status(rec.Status).Send(rec.Body)
}

func fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
