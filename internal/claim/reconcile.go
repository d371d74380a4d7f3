package claim

import (
	"context"
	"errors"
	"fmt"

	"github.com/erazemk/lostfound/internal/model"
)

// reconcile applies delta (+1 or -1) to the item's counter after a ledger
// change. The atomic bump is tried first when available; on failure it falls
// back to read-modify-write.
//
// The fallback is not atomic: two toggles on the same item by different users
// may both read N and both write N±1, losing one update. The ledger stays
// correct in that case and Resync restores the counter.
func (s *Service) reconcile(ctx context.Context, ref model.ItemRef, delta int) (int, error) {
	var atomicErr error
	if s.bumper != nil {
		n, err := s.bumper.BumpCounter(ctx, ref, delta)
		if err == nil {
			return n, nil
		}
		atomicErr = err
		s.logger.Warn("atomic counter bump failed, falling back to read-modify-write",
			"item", ref.String(), "delta", delta, "error", err)
	}

	current, err := s.items.ReadCounter(ctx, ref)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: reading counter: %w", ErrCounterReconciliationFailed, ref, errors.Join(atomicErr, err))
	}

	next := max(0, current+delta)
	if err := s.items.WriteCounter(ctx, ref, next); err != nil {
		return current, fmt.Errorf("%w: %s: writing counter: %w", ErrCounterReconciliationFailed, ref, errors.Join(atomicErr, err))
	}
	return next, nil
}
