package model

import (
	"encoding/json"
	"time"
)

// ActivityLog is an audit entry for an administrative or account action.
type ActivityLog struct {
	ID        int64           `json:"id"`
	UserID    *int64          `json:"user_id,omitempty"`
	UserName  string          `json:"user_name,omitempty"`
	Action    string          `json:"action"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Activity actions.
const (
	ActionUserRegistered  = "USER_REGISTERED"
	ActionUserRoleUpdated = "USER_ROLE_UPDATED"
	ActionUserDeleted     = "USER_DELETED"
	ActionItemCreated     = "ITEM_CREATED"
	ActionItemUpdated     = "ITEM_UPDATED"
	ActionItemDeleted     = "ITEM_DELETED"
	ActionBulkItemDeleted = "BULK_ITEM_DELETED"
	ActionItemsImported   = "ITEMS_IMPORTED"
	ActionPasswordChanged = "PASSWORD_CHANGED"
	ActionProfileUpdated  = "PROFILE_UPDATED"
)
