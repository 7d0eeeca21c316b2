package model

import (
	"encoding/json"
	"time"
)

// Item is a single tracked asset.
type Item struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Identifier  string `json:"identifier"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`

	// At most one of CustodianID and CustodianName is set.
	CustodianID   *int64 `json:"custodian_id"`
	CustodianName string `json:"custodian_name,omitempty"`

	Properties json.RawMessage `json:"properties,omitempty"`
	ImageMime  string          `json:"image_mime,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	// Joined: user name if CustodianID is set, otherwise CustodianName.
	Custodian string `json:"custodian,omitempty"`
}

// Item types with dedicated reports. Other types are accepted as-is.
const (
	ItemTypeEquipment = "equipment"
	ItemTypeTool      = "tool"
	ItemTypeChip      = "chip"
	ItemTypePadlock   = "padlock"

	// ItemTypeAll disables the type filter when listing.
	ItemTypeAll = "all"
)

// ItemStatusAvailable is the status of newly created items.
const ItemStatusAvailable = "available"

// ItemUpdate carries the fields replaced by an item update. Type and
// identifier are fixed once the item exists.
type ItemUpdate struct {
	Description   string
	Status        string
	Properties    json.RawMessage
	CustodianID   *int64
	CustodianName string
}

// ItemInput carries the fields of a new item.
type ItemInput struct {
	Type       string
	Identifier string
	ItemUpdate
}

// ItemFilter selects and orders items for listing.
type ItemFilter struct {
	Type   string
	Search string
	SortBy string
	Order  string
}

// Sort fields and directions accepted by ItemFilter.
const (
	SortCreatedAt  = "created_at"
	SortIdentifier = "identifier"
	OrderAsc       = "asc"
	OrderDesc      = "desc"
)
