package claim

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/erazemk/lostfound/internal/model"
)

// ResyncReport summarizes a Resync run.
type ResyncReport struct {
	Checked  int             `json:"checked"`
	Repaired []CounterRepair `json:"repaired"`
}

// CounterRepair records one counter that disagreed with the ledger.
type CounterRepair struct {
	Ref    model.ItemRef `json:"item"`
	Before int           `json:"before"`
	After  int           `json:"after"`
}

// Resync recounts every item's ledger rows and overwrites counters that
// drifted. Toggles running at the same time may still race with it; a later
// Resync converges.
func (s *Service) Resync(ctx context.Context) (*ResyncReport, error) {
	refs, err := s.items.ListItemRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing items: %w", ErrStorageUnavailable, err)
	}

	var (
		mu     sync.Mutex
		report = &ResyncReport{Checked: len(refs), Repaired: []CounterRepair{}}
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.resyncConcurrency)
	for _, ref := range refs {
		g.Go(func() error {
			repair, err := s.resyncOne(ctx, ref)
			if err != nil || repair == nil {
				return err
			}
			mu.Lock()
			report.Repaired = append(report.Repaired, *repair)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	s.logger.Info("claim counters resynced", "checked", report.Checked, "repaired", len(report.Repaired))
	return report, nil
}

func (s *Service) resyncOne(ctx context.Context, ref model.ItemRef) (*CounterRepair, error) {
	want, err := s.ledger.Count(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: counting claims on %s: %w", ErrStorageUnavailable, ref, err)
	}
	have, err := s.items.ReadCounter(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: reading counter of %s: %w", ErrStorageUnavailable, ref, err)
	}
	if want == have {
		return nil, nil
	}

	if err := s.items.WriteCounter(ctx, ref, want); err != nil {
		return nil, fmt.Errorf("%w: writing counter of %s: %w", ErrStorageUnavailable, ref, err)
	}
	s.logger.Warn("claim counter drifted from ledger", "item", ref.String(), "counter", have, "ledger", want)
	return &CounterRepair{Ref: ref, Before: have, After: want}, nil
}
