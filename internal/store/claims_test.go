package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/model"
)

func TestAddClaimUnique(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustCreateUser(t, database, "owner@uni.si", "FRI")
	item := mustCreateItem(t, database, owner, model.KindFound, "Headphones")

	rec, err := AddClaim(ctx, database, item.Ref(), "u1")
	if err != nil {
		t.Fatalf("AddClaim: %v", err)
	}
	if rec.ItemID != item.ID || rec.Kind != model.KindFound || rec.UserID != "u1" {
		t.Errorf("unexpected record %+v", rec)
	}

	_, err = AddClaim(ctx, database, item.Ref(), "u1")
	if !errors.Is(err, model.ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}

	got, err := GetClaim(ctx, database, item.Ref(), "u1")
	if err != nil || got == nil {
		t.Fatalf("GetClaim = %v, %v", got, err)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("expected created_at %v, got %v", rec.CreatedAt, got.CreatedAt)
	}

	n, _ := CountClaims(ctx, database, item.Ref())
	if n != 1 {
		t.Errorf("expected 1 claim, got %d", n)
	}
}

func TestAddClaimMissingItem(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := AddClaim(context.Background(), database, model.ItemRef{Kind: model.KindFound, ID: "ghost"}, "u1")
	if !errors.Is(err, model.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestAddClaimKindMismatch(t *testing.T) {
	database := db.NewTestDB(t)
	owner := mustCreateUser(t, database, "owner@uni.si", "FRI")
	lost := mustCreateItem(t, database, owner, model.KindLost, "Ring")

	// A claim must point at an item of the same kind.
	_, err := AddClaim(context.Background(), database, model.ItemRef{Kind: model.KindFound, ID: lost.ID}, "u1")
	if !errors.Is(err, model.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestRemoveClaimIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustCreateUser(t, database, "owner@uni.si", "FRI")
	item := mustCreateItem(t, database, owner, model.KindLost, "Jacket")

	AddClaim(ctx, database, item.Ref(), "u1")

	removed, err := RemoveClaim(ctx, database, item.Ref(), "u1")
	if err != nil || !removed {
		t.Fatalf("first RemoveClaim = %v, %v; want true", removed, err)
	}

	removed, err = RemoveClaim(ctx, database, item.Ref(), "u1")
	if err != nil || removed {
		t.Fatalf("second RemoveClaim = %v, %v; want false, nil", removed, err)
	}
}

func TestListClaimsByUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustCreateUser(t, database, "owner@uni.si", "FRI")
	found := mustCreateItem(t, database, owner, model.KindFound, "Pen")
	lost := mustCreateItem(t, database, owner, model.KindLost, "Book")

	AddClaim(ctx, database, found.Ref(), "u1")
	AddClaim(ctx, database, lost.Ref(), "u1")
	AddClaim(ctx, database, found.Ref(), "u2")

	recs, err := ListClaimsByUser(ctx, database, "u1")
	if err != nil {
		t.Fatalf("ListClaimsByUser: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records for u1, got %d", len(recs))
	}

	kinds := map[model.Kind]bool{}
	for _, r := range recs {
		kinds[r.Kind] = true
	}
	if !kinds[model.KindFound] || !kinds[model.KindLost] {
		t.Errorf("expected one claim and one match, got %+v", recs)
	}
}

func TestAddClaimConcurrentSameKey(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustCreateUser(t, database, "owner@uni.si", "FRI")
	item := mustCreateItem(t, database, owner, model.KindFound, "Laptop")

	const workers = 12
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		conflict int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := AddClaim(ctx, database, item.Ref(), "racer")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, model.ErrAlreadyClaimed):
				conflict++
			default:
				t.Errorf("AddClaim: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || conflict != workers-1 {
		t.Errorf("expected 1 insert and %d conflicts, got %d and %d", workers-1, created, conflict)
	}
	if n, _ := CountClaims(ctx, database, item.Ref()); n != 1 {
		t.Errorf("expected exactly 1 ledger row, got %d", n)
	}
}
