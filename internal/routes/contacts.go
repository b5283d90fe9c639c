package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/safeline/safeline/internal/ledger"
)

// RegisterContactRoutes wires the emergency contact endpoints. Both require a session.
func RegisterContactRoutes(r fiber.Router, h *ledger.Handler, requireSession fiber.Handler) {
	r.Post("/save-contacts", requireSession, h.Save)
	r.Get("/contacts", requireSession, h.List)
}
