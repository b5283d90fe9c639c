package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/safeline/safeline/internal/apperror"
	"github.com/safeline/safeline/internal/infra"
)

// Repository is the credential store.
//
// Create fails with apperror.ErrDuplicateEmail when the email is taken and with
// apperror.ErrInvalidInput when a required field is empty. Lookups return
// apperror.ErrNotFound for unknown users.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
}

var errIncompleteUser = apperror.Invalid("firstname, lastname, email and password are required")

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	if !user.complete() {
		return errIncompleteUser
	}
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return apperror.Wrap(apperror.ErrInvalidInput, "invalid user id", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (id, firstname, lastname, email, secret_hash, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`, userID, user.Firstname, user.Lastname, user.Email, user.SecretHash, user.CreatedAt.UTC())
	if err != nil {
		if infra.IsPgCode(err, infra.PgUniqueViolation) {
			return fmt.Errorf("%w: %w", apperror.ErrDuplicateEmail, err)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindByEmail fetches a user by email address.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, firstname, lastname, email, secret_hash, created_at
        FROM users WHERE email = $1`, email)
	return scanPostgresUser(row)
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, apperror.ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, firstname, lastname, email, secret_hash, created_at
        FROM users WHERE id = $1`, userID)
	return scanPostgresUser(row)
}

func scanPostgresUser(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		user      User
	)
	if err := row.Scan(&id, &user.Firstname, &user.Lastname, &user.Email, &user.SecretHash, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperror.ErrNotFound
		}
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	user.ID = id.String()
	user.CreatedAt = createdAt.UTC()
	return user, nil
}
