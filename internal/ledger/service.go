package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/safeline/safeline/internal/apperror"
)

// OwnerDirectory answers whether a user id belongs to a registered user.
type OwnerDirectory interface {
	OwnerExists(ctx context.Context, userID string) (bool, error)
}

// ReplaceInput is a replace-all request. Contacts must be non-nil; an empty
// slice clears the list.
type ReplaceInput struct {
	OwnerUserID string  `json:"ownerUserId"`
	Contacts    []Entry `json:"contacts" validate:"max=100,dive"`
}

// Service enforces ownership and validation in front of a Ledger.
type Service struct {
	ledger Ledger
	owners OwnerDirectory
	logger *slog.Logger
}

// NewService constructs a contact ledger service.
func NewService(ledger Ledger, owners OwnerDirectory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{ledger: ledger, owners: owners, logger: logger}
}

// ReplaceAll replaces the contact list of in.OwnerUserID on behalf of callerID.
// An empty OwnerUserID means the caller's own list; any other owner is refused.
func (s *Service) ReplaceAll(ctx context.Context, callerID string, in ReplaceInput) (int, error) {
	if callerID == "" {
		return 0, apperror.ErrUnauthorized
	}

	owner := strings.TrimSpace(in.OwnerUserID)
	if owner == "" {
		owner = callerID
	}
	if owner != callerID {
		return 0, apperror.New(apperror.ErrForbidden, "cannot modify another user's contacts")
	}
	if in.Contacts == nil {
		return 0, apperror.Invalid("contacts must be a list")
	}

	entries := make([]Entry, len(in.Contacts))
	for i, e := range in.Contacts {
		entries[i] = Entry{Name: strings.TrimSpace(e.Name), Phone: strings.TrimSpace(e.Phone)}
	}
	in.Contacts = entries
	if err := apperror.Validate(in); err != nil {
		return 0, err
	}

	if s.owners != nil {
		ok, err := s.owners.OwnerExists(ctx, owner)
		if err != nil {
			return 0, fmt.Errorf("check owner: %w", err)
		}
		if !ok {
			return 0, apperror.Wrap(apperror.ErrInvalidInput, "unknown owner", ErrUnknownOwner)
		}
	}

	n, err := s.ledger.ReplaceAll(ctx, owner, entries)
	if err != nil {
		if errors.Is(err, ErrUnknownOwner) {
			return 0, apperror.Wrap(apperror.ErrInvalidInput, "unknown owner", err)
		}
		return 0, fmt.Errorf("replace contacts: %w", err)
	}

	s.logger.Info("ledger.replace completed", slog.String("owner_user_id", owner), slog.Int("count", n))
	return n, nil
}

// List returns the caller's contacts in saved order.
func (s *Service) List(ctx context.Context, callerID string) ([]Contact, error) {
	if callerID == "" {
		return nil, apperror.ErrUnauthorized
	}
	contacts, err := s.ledger.List(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}
