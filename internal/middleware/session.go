package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/safeline/safeline/internal/apperror"
)

const localUserID = "user_id"

// SessionResolver maps a bearer token to the user id of a live session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// RequireSession rejects requests without a valid bearer token and stores the
// caller's user id for downstream handlers.
func RequireSession(resolver SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return apperror.New(apperror.ErrUnauthorized, "missing bearer token")
		}
		userID, err := resolver.Resolve(c.UserContext(), token)
		if err != nil {
			return err
		}
		c.Locals(localUserID, userID)
		return c.Next()
	}
}

// UserID returns the authenticated caller, or "" outside RequireSession.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(c *fiber.Ctx) string {
	authz := c.Get(fiber.HeaderAuthorization)
	const prefix = "bearer "
	if len(authz) < len(prefix) || !strings.EqualFold(authz[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(authz[len(prefix):])
}
