package auth

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/safeline/safeline/internal/apperror"
	"github.com/safeline/safeline/internal/identity"
	"github.com/safeline/safeline/internal/middleware"
)

// Handler exposes register, login and logout.
type Handler struct {
	ids      *identity.Service
	sessions *Service
}

// NewHandler constructs the auth HTTP handler.
func NewHandler(ids *identity.Service, sessions *Service) *Handler {
	return &Handler{ids: ids, sessions: sessions}
}

type sessionResponse struct {
	OK        bool      `json:"ok"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Register creates an account and starts a session for it.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req identity.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return apperror.Wrap(apperror.ErrInvalidInput, "invalid data format", err)
	}
	user, err := h.ids.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return h.respond(c, user.ID)
}

// Login checks credentials and starts a session.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req identity.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return apperror.Wrap(apperror.ErrInvalidInput, "invalid data format", err)
	}
	user, err := h.ids.Login(c.UserContext(), req)
	if err != nil {
		return err
	}
	return h.respond(c, user.ID)
}

// Logout revokes the caller's session.
func (h *Handler) Logout(c *fiber.Ctx) error {
	if err := h.sessions.Revoke(c.UserContext(), middleware.BearerToken(c)); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"ok": true})
}

func (h *Handler) respond(c *fiber.Ctx, userID string) error {
	sess, err := h.sessions.Issue(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(sessionResponse{
		OK:        true,
		UserID:    sess.UserID,
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt.UTC(),
	})
}
