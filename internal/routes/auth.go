package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/safeline/safeline/internal/auth"
)

// RegisterAuthRoutes wires authentication endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter, requireSession fiber.Handler) {
	r.Post("/register", h.Register)
	if rateLimiter != nil {
		r.Post("/login", rateLimiter, h.Login)
	} else {
		r.Post("/login", h.Login)
	}
	r.Post("/logout", requireSession, h.Logout)
}
