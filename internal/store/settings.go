package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/erazemk/custodia/internal/db"
)

const settingJWTSecret = "jwt_secret"

// GetJWTSecret returns the persisted signing secret, generating and storing
// one on first use. Concurrent first calls agree on whichever insert won.
func GetJWTSecret(ctx context.Context, q db.Querier) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}

	if err := insertSetting(ctx, q, settingJWTSecret, hex.EncodeToString(buf)); err != nil {
		return "", err
	}
	return GetSetting(ctx, q, settingJWTSecret)
}

// GetSetting returns a setting's value, or "" if it is not set.
func GetSetting(ctx context.Context, q db.Querier, key string) (string, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying setting %s: %w", key, err)
	}
	return value, nil
}

func insertSetting(ctx context.Context, q db.Querier, key, value string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("storing setting %s: %w", key, err)
	}
	return nil
}
