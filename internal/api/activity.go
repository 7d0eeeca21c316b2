package api

import (
	"context"
	"log/slog"

	"github.com/erazemk/custodia/internal/auth"
	"github.com/erazemk/custodia/internal/db"
	"github.com/erazemk/custodia/internal/store"
)

// recordActivity appends an audit entry for the acting user. Failures are
// logged and never reach the client.
func recordActivity(ctx context.Context, q db.Querier, actor *auth.Claims, action string, details any) {
	var userID *int64
	var userName string
	if actor != nil {
		id := actor.UserID
		userID = &id
		userName = actor.Name
	}

	if err := store.LogActivity(ctx, q, userID, userName, action, details); err != nil {
		slog.Error("failed to record activity", "action", action, "error", err,
			"request_id", RequestID(ctx))
	}
}

// actorID returns the acting user's id for movement records.
func actorID(claims *auth.Claims) *int64 {
	if claims == nil {
		return nil
	}
	id := claims.UserID
	return &id
}
