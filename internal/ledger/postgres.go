package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/safeline/safeline/internal/infra"
)

// PostgresLedger persists contacts in PostgreSQL.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// ReplaceAll deletes and re-inserts the owner's contacts in one transaction.
// The owner's users row is locked first so concurrent saves for the same owner
// run one after the other instead of interleaving.
func (l *PostgresLedger) ReplaceAll(ctx context.Context, ownerUserID string, entries []Entry) (int, error) {
	ownerID, err := uuid.Parse(ownerUserID)
	if err != nil {
		return 0, ErrUnknownOwner
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var locked uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, ownerID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUnknownOwner
		}
		return 0, fmt.Errorf("lock owner: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM contacts WHERE owner_user_id = $1`, ownerID); err != nil {
		return 0, fmt.Errorf("clear contacts: %w", err)
	}

	if len(entries) > 0 {
		batch := &pgx.Batch{}
		for i, e := range entries {
			batch.Queue(`INSERT INTO contacts (id, owner_user_id, position, name, phone) VALUES ($1, $2, $3, $4, $5)`,
				uuid.New(), ownerID, i, e.Name, e.Phone)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			if infra.IsPgCode(err, infra.PgForeignKeyViolation) {
				return 0, ErrUnknownOwner
			}
			return 0, fmt.Errorf("insert contacts: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit replace: %w", err)
	}
	return len(entries), nil
}

// List returns the owner's contacts in saved order.
func (l *PostgresLedger) List(ctx context.Context, ownerUserID string) ([]Contact, error) {
	ownerID, err := uuid.Parse(ownerUserID)
	if err != nil {
		return []Contact{}, nil
	}
	rows, err := l.db.Query(ctx, `SELECT id, position, name, phone FROM contacts
        WHERE owner_user_id = $1 ORDER BY position`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	out := []Contact{}
	for rows.Next() {
		var (
			id uuid.UUID
			c  Contact
		)
		if err := rows.Scan(&id, &c.Position, &c.Name, &c.Phone); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		c.ID = id.String()
		c.OwnerUserID = ownerUserID
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return out, nil
}
