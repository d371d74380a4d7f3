package model

import "time"

// Kind distinguishes found items (which receive claims) from lost items
// (which receive matches).
type Kind string

// Item kinds.
const (
	KindFound Kind = "found"
	KindLost  Kind = "lost"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindFound || k == KindLost
}

// ParseKind accepts the kind names used by clients. "match" is accepted as an
// alias for lost, since a match is always registered against a lost item.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "found", "claim":
		return KindFound, true
	case "lost", "match":
		return KindLost, true
	}
	return "", false
}

// ItemRef identifies an item together with its kind. It is the single key
// shape used across the ledger and the item store.
type ItemRef struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"item_id"`
}

func (r ItemRef) String() string {
	return string(r.Kind) + ":" + r.ID
}

// Item represents a posted lost or found item.
type Item struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	OwnerID     string    `json:"user_id"`
	College     string    `json:"college"`
	Name        string    `json:"item_name"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url,omitempty"`
	Status      string    `json:"status"`
	Counter     int       `json:"-"` // exposed by the API as claims or matches
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	OwnerName string `json:"owner_name,omitempty"`
}

// Ref returns the item's ledger key.
func (i Item) Ref() ItemRef {
	return ItemRef{Kind: i.Kind, ID: i.ID}
}

// Item statuses.
const (
	ItemStatusActive   = "active"
	ItemStatusResolved = "resolved"
)

// NewItem holds the fields supplied when posting an item.
type NewItem struct {
	Kind        Kind
	OwnerID     string
	OwnerName   string
	College     string
	Name        string
	Location    string
	Description string
	ImageURL    string
}
