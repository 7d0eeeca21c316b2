package store

import (
	"encoding/json"
	"errors"
	"strings"
)

// Sentinel errors returned (wrapped) by store functions.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("already exists")
	ErrInvalidCustodian = errors.New("custodian user does not exist")
)

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// nullIfEmpty maps blank strings to SQL NULL.
func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// jsonArg maps an empty or null JSON document to SQL NULL.
func jsonArg(raw json.RawMessage) any {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	return trimmed
}
