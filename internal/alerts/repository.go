package alerts

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the append-only alert log.
type Repository interface {
	// Append stores the alert and returns its assigned id.
	Append(ctx context.Context, alert Alert) (int64, error)
	// Recent returns up to limit alerts, newest first.
	Recent(ctx context.Context, limit int) ([]Alert, error)
}

// PostgresRepository stores alerts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append inserts an alert row.
func (r *PostgresRepository) Append(ctx context.Context, alert Alert) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO alerts (latitude, longitude, address, ts)
        VALUES ($1, $2, NULLIF($3, ''), $4) RETURNING id`,
		alert.Latitude, alert.Longitude, alert.Address, alert.Timestamp).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert alert: %w", err)
	}
	return id, nil
}

// Recent lists the newest alerts.
func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]Alert, error) {
	rows, err := r.db.Query(ctx, `SELECT id, latitude, longitude, COALESCE(address, ''), ts
        FROM alerts ORDER BY ts DESC, id DESC LIMIT $1`, limit)
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
