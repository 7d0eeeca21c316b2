package custody

import "fmt"

// MovementKind classifies a custody change.
type MovementKind string

const (
	Delivery MovementKind = "DELIVERY"
	Return   MovementKind = "RETURN"
	Transfer MovementKind = "TRANSFER"
)

// Valid reports whether k is a known movement kind.
func (k MovementKind) Valid() bool {
	return k == Delivery || k == Return || k == Transfer
}

// Classify compares the user references of two custodians. Only the reference
// is considered: changes between free-text names, or between a name and
// nobody, are not movements. ok is false when nothing should be recorded.
func Classify(before, after Custodian) (kind MovementKind, ok bool) {
	oldID, hadUser := before.UserID()
	newID, hasUser := after.UserID()

	switch {
	case !hadUser && !hasUser:
		return "", false
	case hadUser && hasUser && oldID == newID:
		return "", false
	case !hadUser:
		return Delivery, true
	case !hasUser:
		return Return, true
	default:
		return Transfer, true
	}
}

// FromName picks the display name for the previous custodian: the referenced
// user's current name, then the stored free text, then Nobody.
func FromName(before Custodian, userName string) string {
	if _, ok := before.UserID(); ok && userName != "" {
		return userName
	}
	if before.Name() != "" {
		return before.Name()
	}
	return Nobody
}

// ToName picks the display name for the new custodian. There is no free-text
// fallback because a movement is only recorded when the reference changed.
func ToName(after Custodian, userName string) string {
	if _, ok := after.UserID(); ok && userName != "" {
		return userName
	}
	return Nobody
}

// Note renders the human-readable movement description.
func Note(from, to string) string {
	return fmt.Sprintf("Item moved from %s to %s.", from, to)
}
