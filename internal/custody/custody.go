// Package custody models who is responsible for an item and classifies
// custody changes into movement kinds.
package custody

import (
	"fmt"
	"strings"
)

// State is one of the three mutually exclusive custodian states.
type State int

const (
	Unassigned State = iota
	AssignedToUser
	AssignedByName
)

func (s State) String() string {
	switch s {
	case AssignedToUser:
		return "assigned_to_user"
	case AssignedByName:
		return "assigned_by_name"
	default:
		return "unassigned"
	}
}

// Nobody is the display name used when a side of a movement has no custodian.
const Nobody = "nobody"

// Custodian is the current holder of an item. The zero value is Unassigned.
type Custodian struct {
	state  State
	userID int64
	name   string
}

// None returns an unassigned custodian.
func None() Custodian { return Custodian{} }

// User returns a custodian referencing a registered user.
func User(id int64) Custodian { return Custodian{state: AssignedToUser, userID: id} }

// Named returns a custodian identified only by free text. Blank text is Unassigned.
func Named(name string) Custodian {
	name = strings.TrimSpace(name)
	if name == "" {
		return None()
	}
	return Custodian{state: AssignedByName, name: name}
}

// Resolve builds a custodian from request fields. A user reference wins over
// free text, which is discarded.
func Resolve(userID *int64, name string) Custodian {
	if userID != nil {
		return User(*userID)
	}
	return Named(name)
}

// State reports which of the three states c is in.
func (c Custodian) State() State { return c.state }

// UserID returns the referenced user, if any.
func (c Custodian) UserID() (int64, bool) {
	return c.userID, c.state == AssignedToUser
}

// Name returns the free-text name; empty unless AssignedByName.
func (c Custodian) Name() string { return c.name }

// Columns maps c onto the nullable (custodian_user_id, custodian_name) pair.
// At most one of the results is non-nil.
func (c Custodian) Columns() (*int64, *string) {
	switch c.state {
	case AssignedToUser:
		id := c.userID
		return &id, nil
	case AssignedByName:
		name := c.name
		return nil, &name
	default:
		return nil, nil
	}
}

func (c Custodian) String() string {
	switch c.state {
	case AssignedToUser:
		return fmt.Sprintf("user:%d", c.userID)
	case AssignedByName:
		return "name:" + c.name
	default:
		return Nobody
	}
}
