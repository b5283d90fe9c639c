package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/safeline/safeline/internal/apperror"
	"github.com/safeline/safeline/internal/infra"
)

// SQLiteRepository implements Repository on an embedded SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository builds a SQLite-backed identity repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new user.
func (r *SQLiteRepository) Create(ctx context.Context, user User) error {
	if !user.complete() {
		return errIncompleteUser
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO users (id, firstname, lastname, email, secret_hash, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`, user.ID, user.Firstname, user.Lastname, user.Email, user.SecretHash, user.CreatedAt.UTC().UnixMilli())
	if err != nil {
		if infra.IsSQLiteConstraint(err, "UNIQUE") {
			return fmt.Errorf("%w: %w", apperror.ErrDuplicateEmail, err)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindByEmail fetches a user by email address.
func (r *SQLiteRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, firstname, lastname, email, secret_hash, created_at
        FROM users WHERE email = ?`, email)
	return scanSQLiteUser(row)
}

// FindByID fetches a user by identifier.
func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, firstname, lastname, email, secret_hash, created_at
        FROM users WHERE id = ?`, id)
	return scanSQLiteUser(row)
}

func scanSQLiteUser(row *sql.Row) (User, error) {
	var (
		user      User
		createdAt int64
	)
	if err := row.Scan(&user.ID, &user.Firstname, &user.Lastname, &user.Email, &user.SecretHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, apperror.ErrNotFound
		}
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	user.CreatedAt = time.UnixMilli(createdAt).UTC()
	return user, nil
}
