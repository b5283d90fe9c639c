package alerts

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLiteRepository stores alerts in an embedded SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository builds a repository backed by SQLite.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Append inserts an alert row.
func (r *SQLiteRepository) Append(ctx context.Context, alert Alert) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO alerts (latitude, longitude, address, ts)
        VALUES (?, ?, NULLIF(?, ''), ?)`, alert.Latitude, alert.Longitude, alert.Address, alert.Timestamp)
	if err != nil {
		return 0, fmt.Errorf("insert alert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("alert id: %w", err)
	}
	return id, nil
}

// Recent lists the newest alerts.
func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]Alert, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, latitude, longitude, COALESCE(address, ''), ts
        FROM alerts ORDER BY ts DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	out := make([]Alert, 0, limit)
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.Latitude, &a.Longitude, &a.Address, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return out, nil
}
