package model

import "time"

// ClaimRecord is one user's registered interest in an item: a claim on a
// found item or a match on a lost item. Records are never updated in place.
type ClaimRecord struct {
	ItemID    string    `json:"item_id"`
	Kind      Kind      `json:"kind"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Ref returns the key of the item the record points at.
func (c ClaimRecord) Ref() ItemRef {
	return ItemRef{Kind: c.Kind, ID: c.ItemID}
}

// DesiredState is the ledger state a caller wants for a (item, user) key.
type DesiredState string

// Desired states.
const (
	StatePresent DesiredState = "present"
	StateAbsent  DesiredState = "absent"
)

// ParseAction maps the API's "add"/"remove" verbs to a desired state.
func ParseAction(action string) (DesiredState, bool) {
	switch action {
	case "add":
		return StatePresent, true
	case "remove":
		return StateAbsent, true
	}
	return "", false
}
