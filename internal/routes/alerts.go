package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"

	"github.com/safeline/safeline/internal/alerts"
	"github.com/safeline/safeline/internal/config"
)

// RegisterAlertRoutes wires the panic alert endpoint and the admin read view.
// idempotent, when set, makes /alerts safe to retry with an Idempotency-Key.
func RegisterAlertRoutes(r fiber.Router, h *alerts.Handler, idempotent, guard fiber.Handler) {
	if idempotent != nil {
		r.Post("/alerts", idempotent, h.Record)
	} else {
		r.Post("/alerts", h.Record)
	}
	if guard != nil {
		r.Get("/admin", guard, h.Admin)
	} else {
		r.Get("/admin", h.Admin)
	}
}

// adminGuard returns basic auth for /admin when credentials are configured.
func adminGuard(cfg config.Config) fiber.Handler {
	if !cfg.AdminAuthEnabled() {
		return nil
	}
	return basicauth.New(basicauth.Config{
		Users: map[string]string{cfg.AdminUser: cfg.AdminPassword},
		Realm: cfg.AppName + " admin",
	})
}
