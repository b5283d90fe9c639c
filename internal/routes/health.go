package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RegisterHealthRoutes adds liveness/readiness style endpoints.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		storeStatus := "ok"
		redisStatus := "disabled"

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		switch {
		case d.DB != nil:
			if err := d.DB.Ping(ctx); err != nil {
				storeStatus = "unreachable"
				d.Logger.Warn("health: postgres ping failed", "error", err)
			}
		case d.SQL != nil:
			if err := d.SQL.PingContext(ctx); err != nil {
				storeStatus = "unreachable"
				d.Logger.Warn("health: sqlite ping failed", "error", err)
			}
		}
		if d.Cache != nil {
			redisStatus = "ok"
			if err := d.Cache.Ping(ctx).Err(); err != nil {
				redisStatus = "unreachable"
				d.Logger.Warn("health: redis ping failed", "error", err)
			}
		}
		status := http.StatusOK
		if storeStatus != "ok" || redisStatus == "unreachable" {
			status = http.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"ok":        status == http.StatusOK,
			"status":    fiber.Map{d.Cfg.StoreDriver: storeStatus, "redis": redisStatus},
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}
