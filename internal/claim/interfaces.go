package claim

import (
	"context"

	"github.com/erazemk/lostfound/internal/model"
)

// Ledger is the authoritative store of claim records.
type Ledger interface {
	// Add inserts a record for (ref, userID). It must return an error
	// wrapping ErrAlreadyClaimed when the key exists, relying on a storage
	// level uniqueness constraint rather than a read before the write.
	Add(ctx context.Context, ref model.ItemRef, userID string) (*model.ClaimRecord, error)
	// Get returns the record for (ref, userID) or nil.
	Get(ctx context.Context, ref model.ItemRef, userID string) (*model.ClaimRecord, error)
	// Remove deletes the record and reports whether one existed.
	Remove(ctx context.Context, ref model.ItemRef, userID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]model.ClaimRecord, error)
	Count(ctx context.Context, ref model.ItemRef) (int, error)
}

// ItemStore holds the denormalized per-item counters.
type ItemStore interface {
	ReadCounter(ctx context.Context, ref model.ItemRef) (int, error)
	WriteCounter(ctx context.Context, ref model.ItemRef, value int) error
	ListItemRefs(ctx context.Context) ([]model.ItemRef, error)
}

// CounterBumper is implemented by item stores that can add a delta to a
// counter in one server-side statement, flooring at zero.
type CounterBumper interface {
	BumpCounter(ctx context.Context, ref model.ItemRef, delta int) (int, error)
}
