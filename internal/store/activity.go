package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/erazemk/custodia/internal/db"
	"github.com/erazemk/custodia/internal/model"
)

// LogActivity appends an audit entry. details is marshalled to JSON; nil
// stores no details.
func LogActivity(ctx context.Context, q db.Querier, userID *int64, userName, action string, details any) error {
	var payload any
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("encoding activity details: %w", err)
		}
		payload = string(b)
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO activity_logs (user_id, user_name, action, details) VALUES (?, ?, ?, ?)`,
		userID, nullIfEmpty(userName), action, payload,
	)
	if err != nil {
		return fmt.Errorf("logging activity %s: %w", action, err)
	}
	return nil
}

// RecentActivity returns the latest audit entries, newest first.
func RecentActivity(ctx context.Context, q db.Querier, limit int) ([]model.ActivityLog, error) {
	text, args := db.NewQuery(
		`SELECT a.id, a.user_id, COALESCE(a.user_name, u.name), a.action, a.details, a.created_at
		 FROM activity_logs a LEFT JOIN users u ON u.id = a.user_id`,
	).OrderBy("a.created_at DESC, a.id DESC").Limit(limit).Build()

	rows, err := q.QueryContext(ctx, text, args...)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	logs := []model.ActivityLog{}
	for rows.Next() {
		var a model.ActivityLog
		var userID sql.NullInt64
		var userName sql.NullString
		var details []byte
		if err := rows.Scan(&a.ID, &userID, &userName, &a.Action, &details, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		if userID.Valid {
			id := userID.Int64
			a.UserID = &id
		}
		a.UserName = userName.String
		if len(details) > 0 {
			a.Details = json.RawMessage(details)
		}
		logs = append(logs, a)
	}
	return logs, rows.Err()
}
