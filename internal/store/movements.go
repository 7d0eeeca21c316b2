package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/custodia/internal/custody"
	"github.com/erazemk/custodia/internal/db"
	"github.com/erazemk/custodia/internal/model"
)

// custodianUserName returns the name of the user referenced by c, or "" when
// c does not reference a user. A reference to a missing user is rejected.
func custodianUserName(ctx context.Context, q db.Querier, c custody.Custodian) (string, error) {
	id, ok := c.UserID()
	if !ok {
		return "", nil
	}

	var name string
	err := q.QueryRowContext(ctx, `SELECT name FROM users WHERE id = ?`, id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("user %d: %w", id, ErrInvalidCustodian)
	}
	if err != nil {
		return "", fmt.Errorf("looking up custodian: %w", err)
	}
	return name, nil
}

// recordCustodyChange inserts a movement if before -> after is a custody
// change between users. toUser is the already resolved name of after's user.
func recordCustodyChange(ctx context.Context, q db.Querier, itemID int64, before, after custody.Custodian, toUser string, actorID *int64) error {
	kind, ok := custody.Classify(before, after)
	if !ok {
		return nil
	}

	// The previous holder may have been deleted since; fall back to "nobody".
	var fromUser string
	if id, ok := before.UserID(); ok {
		err := q.QueryRowContext(ctx, `SELECT name FROM users WHERE id = ?`, id).Scan(&fromUser)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("looking up previous custodian: %w", err)
		}
	}

	note := custody.Note(custody.FromName(before, fromUser), custody.ToName(after, toUser))
	_, err := q.ExecContext(ctx,
		`INSERT INTO movements (item_id, kind, moved_by, notes) VALUES (?, ?, ?, ?)`,
		itemID, string(kind), actorID, note,
	)
	if err != nil {
		return fmt.Errorf("recording movement: %w", err)
	}
	return nil
}

// ListMovements returns an item's movements, newest first.
func ListMovements(ctx context.Context, q db.Querier, itemID int64) ([]model.Movement, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT m.id, m.item_id, m.kind, m.moved_at, m.moved_by, m.notes, COALESCE(u.name, '')
		 FROM movements m LEFT JOIN users u ON u.id = m.moved_by
		 WHERE m.item_id = ?
		 ORDER BY m.moved_at DESC, m.id DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing movements: %w", err)
	}
	defer rows.Close()

	movements := []model.Movement{}
	for rows.Next() {
		var m model.Movement
		var movedBy sql.NullInt64
		var notes sql.NullString
		if err := rows.Scan(&m.ID, &m.ItemID, &m.Kind, &m.MovedAt, &movedBy, &notes, &m.MovedByName); err != nil {
			return nil, fmt.Errorf("scanning movement: %w", err)
		}
		if movedBy.Valid {
			id := movedBy.Int64
			m.MovedBy = &id
		}
		m.Notes = notes.String
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
