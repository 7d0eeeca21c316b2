package model

import "time"

// Movement records a custody change of an item.
type Movement struct {
	ID      int64     `json:"id"`
	ItemID  int64     `json:"item_id"`
	Kind    string    `json:"kind"`
	MovedAt time.Time `json:"moved_at"`
	MovedBy *int64    `json:"moved_by,omitempty"`
	Notes   string    `json:"notes,omitempty"`

	// Joined fields (not always populated).
	MovedByName string `json:"moved_by_name,omitempty"`
}
