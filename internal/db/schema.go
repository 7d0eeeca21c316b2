package db

import (
	"context"
	"fmt"
)

// sqliteSchema is the full SQLite schema.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    name          TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'pending' CHECK (role IN ('pending', 'user', 'admin', 'rejected')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
    id                INTEGER PRIMARY KEY,
    type              TEXT NOT NULL,
    identifier        TEXT NOT NULL,
    description       TEXT,
    status            TEXT DEFAULT 'available',
    custodian_user_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
    custodian_name    TEXT,
    properties        TEXT,
    image             BLOB,
    image_mime        TEXT,
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (type, identifier),
    CHECK (custodian_user_id IS NULL OR custodian_name IS NULL)
);

CREATE INDEX IF NOT EXISTS idx_items_custodian ON items(custodian_user_id);

CREATE TABLE IF NOT EXISTS movements (
    id       INTEGER PRIMARY KEY,
    item_id  INTEGER NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    kind     TEXT NOT NULL CHECK (kind IN ('DELIVERY', 'RETURN', 'TRANSFER')),
    moved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    moved_by INTEGER REFERENCES users(id) ON DELETE SET NULL,
    notes    TEXT
);

CREATE INDEX IF NOT EXISTS idx_movements_item ON movements(item_id, moved_at);

CREATE TABLE IF NOT EXISTS activity_logs (
    id         INTEGER PRIMARY KEY,
    user_id    INTEGER REFERENCES users(id) ON DELETE SET NULL,
    user_name  TEXT,
    action     TEXT NOT NULL,
    details    TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_activity_logs_created ON activity_logs(created_at);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// postgresSchema mirrors sqliteSchema for PostgreSQL.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
    id            BIGSERIAL PRIMARY KEY,
    name          VARCHAR(255) NOT NULL,
    email         VARCHAR(255) NOT NULL UNIQUE,
    password_hash VARCHAR(255) NOT NULL,
    role          VARCHAR(50) NOT NULL DEFAULT 'pending' CHECK (role IN ('pending', 'user', 'admin', 'rejected')),
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS items (
    id                BIGSERIAL PRIMARY KEY,
    type              VARCHAR(50) NOT NULL,
    identifier        VARCHAR(255) NOT NULL,
    description       TEXT,
    status            VARCHAR(50) DEFAULT 'available',
    custodian_user_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
    custodian_name    VARCHAR(255),
    properties        JSONB,
    image             BYTEA,
    image_mime        VARCHAR(50),
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT items_type_identifier_unique UNIQUE (type, identifier),
    CONSTRAINT items_single_custodian CHECK (custodian_user_id IS NULL OR custodian_name IS NULL)
);

CREATE INDEX IF NOT EXISTS idx_items_custodian ON items(custodian_user_id);

CREATE TABLE IF NOT EXISTS movements (
    id       BIGSERIAL PRIMARY KEY,
    item_id  BIGINT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    kind     VARCHAR(50) NOT NULL CHECK (kind IN ('DELIVERY', 'RETURN', 'TRANSFER')),
    moved_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    moved_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
    notes    TEXT
);

CREATE INDEX IF NOT EXISTS idx_movements_item ON movements(item_id, moved_at);

CREATE TABLE IF NOT EXISTS activity_logs (
    id         BIGSERIAL PRIMARY KEY,
    user_id    BIGINT REFERENCES users(id) ON DELETE SET NULL,
    user_name  VARCHAR(255),
    action     VARCHAR(100) NOT NULL,
    details    JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_activity_logs_created ON activity_logs(created_at);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(ctx context.Context, d *DB) error {
	schema := sqliteSchema
	if d.Dialect() == Postgres {
		schema = postgresSchema
	}
	if _, err := d.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating %s schema: %w", d.Dialect(), err)
	}
	return nil
}
