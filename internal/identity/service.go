package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/safeline/safeline/internal/apperror"
)

// bcrypt ignores everything past 72 bytes; longer secrets are rejected rather
// than silently truncated.
const maxSecretBytes = 72

const dummySecret = "safeline-timing-equaliser"

// Service orchestrates registration and login on top of the credential store
// and the verifier.
type Service struct {
	repo     Repository
	verifier Verifier
	logger   *slog.Logger
	now      func() time.Time

	dummyMu   sync.Mutex
	dummyHash string
}

// NewService creates a new identity service.
func NewService(repo Repository, verifier Verifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, verifier: verifier, logger: logger, now: time.Now}
}

// Register hashes the password and stores a new user. A taken email surfaces
// as ErrRegistrationFailed (still matching ErrDuplicateEmail); hashing and
// other store failures are returned as internal errors.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	in = in.normalized()
	if err := apperror.Validate(in); err != nil {
		return User{}, err
	}
	if len(in.Password) > maxSecretBytes {
		return User{}, apperror.Invalid(fmt.Sprintf("password must be at most %d bytes", maxSecretBytes))
	}

	hash, err := s.verifier.Hash(in.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash secret: %w", err)
	}

	user := User{
		ID:         uuid.NewString(),
		Firstname:  in.Firstname,
		Lastname:   in.Lastname,
		Email:      in.Email,
		SecretHash: hash,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrDuplicateEmail) || errors.Is(err, apperror.ErrInvalidInput) {
			return User{}, apperror.Wrap(apperror.ErrRegistrationFailed, "email already registered or invalid data", err)
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("identity.register completed", slog.String("user_id", user.ID))
	return user, nil
}

// Login checks credentials. Unknown emails and wrong passwords are
// indistinguishable: both return ErrInvalidCredentials after a bcrypt
// comparison of similar cost.
func (s *Service) Login(ctx context.Context, in LoginInput) (User, error) {
	in.Email = NormalizeEmail(in.Email)
	if in.Email == "" || in.Password == "" {
		return User{}, apperror.Invalid("email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			dummy, err := s.dummy()
			if err != nil {
				return User{}, fmt.Errorf("prepare dummy hash: %w", err)
			}
			s.verifier.Verify(in.Password, dummy)
			return User{}, apperror.ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}

	if !s.verifier.Verify(in.Password, user.SecretHash) {
		return User{}, apperror.ErrInvalidCredentials
	}

	s.logger.Info("identity.login completed", slog.String("user_id", user.ID))
	return user, nil
}

// OwnerExists reports whether a user with the given id is registered.
func (s *Service) OwnerExists(ctx context.Context, userID string) (bool, error) {
	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// dummy returns the hash compared against for unknown emails. A failed hash is
// not cached; the next unknown-email login tries again.
func (s *Service) dummy() (string, error) {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()
	if s.dummyHash != "" {
		return s.dummyHash, nil
	}
	hash, err := s.verifier.Hash(dummySecret)
	if err != nil {
		return "", err
	}
	s.dummyHash = hash
	return hash, nil
}
