package infra

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Postgres SQLSTATE codes the stores translate into domain errors.
const (
	PgUniqueViolation     = "23505"
	PgForeignKeyViolation = "23503"
)

// IsPgCode reports whether err carries the given Postgres SQLSTATE.
func IsPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// IsSQLiteConstraint reports whether err is a SQLite constraint failure whose
// message mentions marker, e.g. "UNIQUE" or "FOREIGN KEY".
func IsSQLiteConstraint(err error, marker string) bool {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	if sqlErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return false
	}
	return strings.Contains(strings.ToUpper(sqlErr.Error()), marker)
}
