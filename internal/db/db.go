package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// sqliteParams are applied by the driver to every pooled connection.
// _txlock=immediate makes BeginTx take the write lock up front.
const sqliteParams = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)" +
	"&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"

// Querier is implemented by both *DB and *Tx. Store functions that do not need
// their own transaction accept a Querier so they can run inside a caller's.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Dialect() Dialect
}

// DB is a connection pool bound to a SQL dialect. Queries are written with
// "?" placeholders and rebound for the dialect before they reach the driver.
type DB struct {
	*sql.DB
	dialect Dialect
}

// New wraps an already opened pool.
func New(sqlDB *sql.DB, dialect Dialect) *DB {
	return &DB{DB: sqlDB, dialect: dialect}
}

// Open opens a database from a DSN. postgres:// and postgresql:// URLs use the
// pgx driver; anything else is treated as a SQLite file path (optionally
// prefixed with sqlite://). ":memory:" opens a private in-memory database.
func Open(dsn string) (*DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return openPostgres(dsn)
	}
	return openSQLite(strings.TrimPrefix(dsn, "sqlite://"))
}

func openPostgres(dsn string) (*DB, error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return New(sqlDB, Postgres), nil
}

func openSQLite(path string) (*DB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	sqlDB, err := sql.Open("sqlite", "file:"+path+sep+sqliteParams)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if path == ":memory:" {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("opening sqlite %q: %w", path, err)
	}
	return New(sqlDB, SQLite), nil
}

// Dialect reports the SQL dialect of the pool.
func (d *DB) Dialect() Dialect { return d.dialect }

// ExecContext executes a statement written with "?" placeholders.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.DB.ExecContext(ctx, d.dialect.Rebind(query), args...)
}

// QueryContext runs a query written with "?" placeholders.
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.DB.QueryContext(ctx, d.dialect.Rebind(query), args...)
}

// QueryRowContext runs a single-row query written with "?" placeholders.
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.DB.QueryRowContext(ctx, d.dialect.Rebind(query), args...)
}

// BeginTx starts a transaction that keeps the pool's dialect.
func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := d.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx, dialect: d.dialect}, nil
}

// Tx is a transaction bound to a SQL dialect.
type Tx struct {
	*sql.Tx
	dialect Dialect
}

// Dialect reports the SQL dialect of the transaction.
func (t *Tx) Dialect() Dialect { return t.dialect }

func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.Tx.ExecContext(ctx, t.dialect.Rebind(query), args...)
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.Tx.QueryContext(ctx, t.dialect.Rebind(query), args...)
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return t.Tx.QueryRowContext(ctx, t.dialect.Rebind(query), args...)
}
