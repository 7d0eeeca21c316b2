package db

import (
	"database/sql/driver"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// foldFunc lowercases text with Unicode rules. SQLite's built-in LOWER only
// folds ASCII.
const foldFunc = "unicode_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, fold)
}

func fold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// Dialect identifies the SQL flavour spoken by the underlying driver.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// Rebind rewrites "?" placeholders into the dialect's native form.
// Question marks inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
			b.WriteByte(c)
		case c == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// JSONText returns an expression extracting a top-level key of a JSON column
// as text. key is spliced into the SQL and must be a constant.
func (d Dialect) JSONText(column, key string) string {
	key = strings.ReplaceAll(key, "'", "''")
	if d == Postgres {
		return column + "->>'" + key + "'"
	}
	return "json_extract(" + column + ", '$." + key + "')"
}

// ILike returns a case-insensitive LIKE predicate on expr with one
// placeholder for a lowercased pattern. Backslash escapes wildcards.
func (d Dialect) ILike(expr string) string {
	if d == Postgres {
		return expr + ` ILIKE ? ESCAPE '\'`
	}
	return foldFunc + "(" + expr + `) LIKE ? ESCAPE '\'`
}

// ForUpdate returns the row-locking suffix for a SELECT inside a transaction.
// SQLite transactions already hold the write lock (see _txlock=immediate).
func (d Dialect) ForUpdate() string {
	if d == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

// IsUniqueViolation reports whether err was caused by a UNIQUE or PRIMARY KEY
// constraint in either supported driver.
func IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == "23505"
	}
	return false
}
