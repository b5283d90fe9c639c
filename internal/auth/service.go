package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/safeline/safeline/internal/apperror"
)

var errInvalidSession = apperror.New(apperror.ErrUnauthorized, "invalid or expired session")

// Session is what a client receives after register or login.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// Service issues, resolves and revokes sessions. A token is honoured only while
// its signature verifies and its session id is still in the store.
type Service struct {
	tokens *TokenManager
	store  SessionStore
	logger *slog.Logger
}

// NewService wires the token manager to a session store.
func NewService(tokens *TokenManager, store SessionStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{tokens: tokens, store: store, logger: logger}
}

// Issue starts a new session for userID.
func (s *Service) Issue(ctx context.Context, userID string) (Session, error) {
	sessionID := uuid.NewString()
	token, exp, err := s.tokens.Generate(userID, sessionID)
	if err != nil {
		return Session{}, err
	}
	if err := s.store.Save(ctx, sessionID, userID, s.tokens.TTL()); err != nil {
		return Session{}, err
	}
	return Session{Token: token, UserID: userID, ExpiresAt: exp}, nil
}

// Resolve returns the user id bound to a live session token.
func (s *Service) Resolve(ctx context.Context, token string) (string, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return "", errInvalidSession
	}
	userID, err := s.store.Lookup(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return "", errInvalidSession
		}
		return "", fmt.Errorf("resolve session: %w", err)
	}
	if userID != claims.Subject {
		s.logger.Warn("auth.resolve subject mismatch", slog.String("session_id", claims.ID))
		return "", errInvalidSession
	}
	return userID, nil
}

// Revoke ends the session behind token. Revoking an already revoked session is
// not an error.
func (s *Service) Revoke(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return errInvalidSession
	}
	if err := s.store.Delete(ctx, claims.ID); err != nil {
		return err
	}
	s.logger.Info("auth.logout completed", slog.String("user_id", claims.Subject))
	return nil
}
