package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/safeline/safeline/internal/infra"
)

// SQLiteLedger persists contacts in an embedded SQLite database.
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLiteLedger constructs a SQLite-backed ledger implementation.
func NewSQLiteLedger(db *sql.DB) *SQLiteLedger {
	return &SQLiteLedger{db: db}
}

// ReplaceAll deletes and re-inserts the owner's contacts in one transaction.
func (l *SQLiteLedger) ReplaceAll(ctx context.Context, ownerUserID string, entries []Entry) (int, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	var owner string
	if err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = ?`, ownerUserID).Scan(&owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUnknownOwner
		}
		return 0, fmt.Errorf("find owner: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM contacts WHERE owner_user_id = ?`, ownerUserID); err != nil {
		return 0, fmt.Errorf("clear contacts: %w", err)
	}

	if len(entries) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO contacts (id, owner_user_id, position, name, phone) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, e := range entries {
			if _, err := stmt.ExecContext(ctx, uuid.NewString(), ownerUserID, i, e.Name, e.Phone); err != nil {
				if infra.IsSQLiteConstraint(err, "FOREIGN KEY") {
					return 0, ErrUnknownOwner
				}
				return 0, fmt.Errorf("insert contact %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace: %w", err)
	}
	return len(entries), nil
}

// List returns the owner's contacts in saved order.
func (l *SQLiteLedger) List(ctx context.Context, ownerUserID string) ([]Contact, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT id, position, name, phone FROM contacts
        WHERE owner_user_id = ? ORDER BY position`, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	out := []Contact{}
	for rows.Next() {
		c := Contact{OwnerUserID: ownerUserID}
		if err := rows.Scan(&c.ID, &c.Position, &c.Name, &c.Phone); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return out, nil
}
