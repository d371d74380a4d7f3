// Package claim records claims on found items and matches on lost items,
// and keeps each item's denormalized counter close to the ledger.
//
// The ledger is authoritative: a toggle either changes the ledger or fails.
// The counter is updated afterwards as a separate, best-effort step; if that
// step fails the toggle still succeeds and the result is marked stale.
package claim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/erazemk/lostfound/internal/model"
)

// DefaultResyncConcurrency bounds the number of items recounted in parallel.
const DefaultResyncConcurrency = 4

// Service is the only entry point for changing claim state.
type Service struct {
	ledger            Ledger
	items             ItemStore
	bumper            CounterBumper
	logger            *slog.Logger
	resyncConcurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithoutAtomicCounter disables the atomic bump even if the item store
// supports it, so that every reconciliation uses read-modify-write.
func WithoutAtomicCounter() Option {
	return func(s *Service) { s.bumper = nil }
}

// WithResyncConcurrency sets how many items Resync recounts at once.
func WithResyncConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.resyncConcurrency = n
		}
	}
}

// NewService creates a claim service. If items also implements
// CounterBumper, counters are updated atomically by default.
func NewService(ledger Ledger, items ItemStore, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		ledger:            ledger,
		items:             items,
		logger:            logger,
		resyncConcurrency: DefaultResyncConcurrency,
	}
	if b, ok := items.(CounterBumper); ok {
		s.bumper = b
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ToggleRequest asks for the ledger state of one (item, user) key.
type ToggleRequest struct {
	Ref    model.ItemRef
	UserID string
	State  model.DesiredState
}

// ToggleResult describes the ledger and counter after a toggle.
type ToggleResult struct {
	// Record is the created or existing record for StatePresent, nil for
	// StateAbsent.
	Record *model.ClaimRecord `json:"record"`
	// Counter is the item's counter as last observed.
	Counter int `json:"counter"`
	// Changed reports whether the ledger was modified by this call.
	Changed bool `json:"changed"`
	// Stale is set when the counter could not be updated or read.
	Stale bool `json:"stale"`
}

func (r ToggleRequest) validate() error {
	switch {
	case r.Ref.ID == "":
		return fmt.Errorf("%w: item id required", ErrInvalidRequest)
	case !r.Ref.Kind.Valid():
		return fmt.Errorf("%w: kind must be found or lost", ErrInvalidRequest)
	case r.UserID == "":
		return fmt.Errorf("%w: user id required", ErrInvalidRequest)
	case r.State != model.StatePresent && r.State != model.StateAbsent:
		return fmt.Errorf("%w: desired state must be present or absent", ErrInvalidRequest)
	}
	return nil
}

// Toggle moves the (item, user) key to the desired state. Repeating a toggle
// is a no-op on the ledger and does not touch the counter.
func (s *Service) Toggle(ctx context.Context, req ToggleRequest) (*ToggleResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	if req.State == model.StatePresent {
		return s.add(ctx, req)
	}
	return s.remove(ctx, req)
}

// addAttempts bounds how often add retries when the conflicting record is
// removed before it can be read back.
const addAttempts = 2

func (s *Service) add(ctx context.Context, req ToggleRequest) (*ToggleResult, error) {
	for range addAttempts {
		res, err := s.addOnce(ctx, req)
		if err != nil || res != nil {
			return res, err
		}
	}
	return nil, fmt.Errorf("%w: claim on %s removed concurrently", ErrStorageUnavailable, req.Ref)
}

// addOnce inserts the record. It returns a nil result and nil error when the
// insert conflicted but the existing record was gone by the time it was read.
func (s *Service) addOnce(ctx context.Context, req ToggleRequest) (*ToggleResult, error) {
	rec, err := s.ledger.Add(ctx, req.Ref, req.UserID)
	switch {
	case err == nil:
		res := &ToggleResult{Record: rec, Changed: true}
		s.applyDelta(ctx, req, +1, res)
		s.logger.Info("claim added", "item", req.Ref.String(), "user", req.UserID, "counter", res.Counter)
		return res, nil

	case errors.Is(err, ErrAlreadyClaimed):
		existing, err := s.ledger.Get(ctx, req.Ref, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("%w: getting existing claim: %w", ErrStorageUnavailable, err)
		}
		if existing == nil {
			return nil, nil
		}
		res := &ToggleResult{Record: existing}
		s.observeCounter(ctx, req, res)
		return res, nil

	case errors.Is(err, ErrItemNotFound):
		return nil, err

	default:
		return nil, fmt.Errorf("%w: adding claim: %w", ErrStorageUnavailable, err)
	}
}

func (s *Service) remove(ctx context.Context, req ToggleRequest) (*ToggleResult, error) {
	removed, err := s.ledger.Remove(ctx, req.Ref, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: removing claim: %w", ErrStorageUnavailable, err)
	}

	res := &ToggleResult{Changed: removed}
	if !removed {
		s.observeCounter(ctx, req, res)
		return res, nil
	}

	s.applyDelta(ctx, req, -1, res)
	s.logger.Info("claim removed", "item", req.Ref.String(), "user", req.UserID, "counter", res.Counter)
	return res, nil
}

// applyDelta reconciles the counter after a ledger change. Failures are
// logged and swallowed: the ledger change must not be undone.
func (s *Service) applyDelta(ctx context.Context, req ToggleRequest, delta int, res *ToggleResult) {
	n, err := s.reconcile(ctx, req.Ref, delta)
	if err != nil {
		s.logger.Warn("claim counter is stale",
			"item", req.Ref.String(), "user", req.UserID, "delta", delta, "error", err)
		res.Stale = true
	}
	res.Counter = n
}

func (s *Service) observeCounter(ctx context.Context, req ToggleRequest, res *ToggleResult) {
	n, err := s.items.ReadCounter(ctx, req.Ref)
	if err != nil {
		s.logger.Warn("reading claim counter failed", "item", req.Ref.String(), "error", err)
		res.Stale = true
		return
	}
	res.Counter = n
}

// ListClaimsForUser returns a snapshot of all records held by a user.
func (s *Service) ListClaimsForUser(ctx context.Context, userID string) ([]model.ClaimRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id required", ErrInvalidRequest)
	}
	recs, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing claims: %w", ErrStorageUnavailable, err)
	}
	if recs == nil {
		recs = []model.ClaimRecord{}
	}
	return recs, nil
}

// IsClaimed reports whether the user currently holds a record on the item.
func (s *Service) IsClaimed(ctx context.Context, ref model.ItemRef, userID string) (bool, error) {
	set, err := s.ClaimedSet(ctx, userID)
	if err != nil {
		return false, err
	}
	return set[ref], nil
}

// ClaimedSet returns the user's claimed items keyed by reference, so a page of
// items can be annotated with one ledger query.
func (s *Service) ClaimedSet(ctx context.Context, userID string) (map[model.ItemRef]bool, error) {
	recs, err := s.ListClaimsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[model.ItemRef]bool, len(recs))
	for _, r := range recs {
		set[r.Ref()] = true
	}
	return set, nil
}
