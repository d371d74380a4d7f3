package claim_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/lostfound/internal/claim"
	"github.com/erazemk/lostfound/internal/claim/mocks"
	"github.com/erazemk/lostfound/internal/model"
)

var (
	foundRef = model.ItemRef{Kind: model.KindFound, ID: "item-1"}
	errDown  = errors.New("connection refused")
)

func record(ref model.ItemRef, userID string) *model.ClaimRecord {
	return &model.ClaimRecord{ItemID: ref.ID, Kind: ref.Kind, UserID: userID, CreatedAt: time.Now().UTC()}
}

func TestToggle_Validation(t *testing.T) {
	ctx := context.Background()
	svc := claim.NewService(&mocks.Ledger{}, &mocks.ItemStore{}, nil)

	cases := []struct {
		name string
		req  claim.ToggleRequest
	}{
		{"missing item id", claim.ToggleRequest{Ref: model.ItemRef{Kind: model.KindFound}, UserID: "u1", State: model.StatePresent}},
		{"bad kind", claim.ToggleRequest{Ref: model.ItemRef{Kind: "stolen", ID: "x"}, UserID: "u1", State: model.StatePresent}},
		{"missing user", claim.ToggleRequest{Ref: foundRef, State: model.StatePresent}},
		{"bad state", claim.ToggleRequest{Ref: foundRef, UserID: "u1", State: "maybe"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Toggle(ctx, tc.req)
			require.ErrorIs(t, err, claim.ErrInvalidRequest)
		})
	}
}

func TestToggle_AddUsesAtomicBump(t *testing.T) {
	ctx := context.Background()
	ledger := &mocks.Ledger{}
	items := &mocks.BumpingItemStore{}

	ledger.On("Add", ctx, foundRef, "u1").Return(record(foundRef, "u1"), nil)
	items.On("BumpCounter", ctx, foundRef, 1).Return(3, nil)

	svc := claim.NewService(ledger, items, nil)
	res, err := svc.Toggle(ctx, claim.ToggleRequest{Ref: foundRef, UserID: "u1", State: model.StatePresent})
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.False(t, res.Stale)
	require.Equal(t, 3, res.Counter)
	require.Equal(t, "u1", res.Record.UserID)
	items.AssertNotCalled(t, "WriteCounter", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggle_FallbackWithoutBumper(t *testing.T) {
	ctx := context.Background()
	ledger := &mocks.Ledger{}
	items := &mocks.ItemStore{}

	ledger.On("Add", ctx, foundRef, "u1").Return(record(foundRef, "u1"), nil)
	items.On("ReadCounter", ctx, foundRef).Return(4, nil)
	items.On("WriteCounter", ctx, foundRef, 5).Return(nil)

	svc := claim.NewService(ledger, items, nil)
	res, err := svc.Toggle(ctx, claim.ToggleRequest{Ref: foundRef, UserID: "u1", State: model.StatePresent})
	require.NoError(t, err)
	require.Equal(t, 5, res.Counter)
	items.AssertExpectations(t)
}

func TestToggle_FallbackFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	ledger := &mocks.Ledger{}
	items := &mocks.ItemStore{}

	ledger.On("Remove", ctx, foundRef, "u1").Return(true, nil)
	items.On("ReadCounter", ctx, foundRef).Return(0, nil)
	items.On("WriteCounter", ctx, foundRef, 0).Return(nil)

	svc := claim.NewService(ledger, items, nil)
	res, err := svc.Toggle(ctx, claim.ToggleRequest{Ref: foundRef, UserID: "u1", State: model.StateAbsent})
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.Equal(t, 0, res.Counter)
	items.AssertExpectations(t)
}

func TestToggle_BumpFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	ledger := &mocks.Ledger{}
	items := &mocks.BumpingItemStore{}

	ledger.On("Add", ctx, foundRef, "u2").Return(record(foundRef, "u2"), nil)
	items.On("BumpCounter", ctx, foundRef, 1).Return(0, errDown)
	items.On("ReadCounter", ctx, foundRef).Return(1, nil)
	items.On("WriteCounter", ctx, foundRef, 2).Return(nil)

	svc := claim.NewService(ledger, items, nil)
	res, err := svc.Toggle(ctx, claim.ToggleRequest{Ref: foundRef, UserID: "u2", State: model.StatePresent})
	require.NoError(t, err)
	require.False(t, res.Stale)
	require.Equal(t, 2, res.Counter)
}

func TestToggle_WithoutAtomicCounterOption(t *testing.T) {
	ctx := context.Background()
	ledger := &mocks.Ledger{}
	items := &mocks.BumpingItemStore{}

	ledger.On("Add", ctx, foundRef, "u1").Return(record(foundRef, "u1"), nil)
	items.On("ReadCounter", ctx, foundRef).Return(0, nil)
	items.On("WriteCounter", ctx, foundRef, 1).Return(nil)

	svc := claim.NewService(ledger, items, nil, claim.WithoutAtomicCounter())
	_, err := svc.Toggle(ctx, claim.ToggleRequest{Ref: foundRef, UserID: "u1", State: model.StatePresent})
	require.NoError(t, err)
	items.AssertNotCalled(t, "BumpCounter", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggle_ReconciliationFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	ledger := &mocks.Ledger{}
	items := &mocks.BumpingItemStore{}

	ledger.On("Add", ctx, foundRef, "u1").Return(record(foundRef, "u1"), nil)
	items.On("BumpCounter", ctx, foundRef, 1).Return(0, errDown)
	items.On("ReadCounter", ctx, foundRef).Return(0, errDown)

	svc := claim.NewService(ledger, items, nil)
	res, err := svc.Toggle(ctx, claim.ToggleRequest{Ref: foundRef, UserID: "u1", State: model.StatePresent})
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.True(t, res.Stale)
	require.NotNil(t, res.Record)
}

func TestToggle_WriteFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	ledger := &mocks.Ledger{}
	items := &mocks.ItemStore{}

	ledger.On("Remove", ctx, foundRef, "u1").Return(true, nil)
	items.On("ReadCounter", ctx, foundRef).Return(2, nil)
	items.On("WriteCounter", ctx, foundRef, 1).Return(errDown)

	svc := claim.NewService(ledger, items, nil)
	res, err := svc.Toggle(ctx, claim.ToggleRequest{Ref: foundRef, UserID: "u1", State: model.StateAbsent})
	require.NoError(t, err)
	require.True(t, res.Stale)
	require.Equal(t, 2, res.Counter)
}

func TestToggle_AlreadyClaimedLeavesCounter(t *testing.T) {
	ctx := context.Background()
	ledger := &mocks.Ledger{}
	items := &mocks.BumpingItemStore{}

	existing := record(foundRef, "u1")
	ledger.On("Add", ctx, foundRef, "u1").Return(nil, claim.ErrAlreadyClaimed)
	ledger.On("Get", ctx, foundRef, "u1").Return(existing, nil)
	items.On("ReadCounter", ctx, foundRef).Return(1, nil)

	svc := claim.NewService(ledger, items, nil)
	res, err := svc.Toggle(ctx, claim.ToggleRequest{Ref: foundRef, UserID: "u1", State: model.StatePresent})
	require.NoError(t, err)
	require.False(t, res.Changed)
	require.Equal(t, existing, res.Record)
	require.Equal(t, 1, res.Counter)
	items.AssertNotCalled(t, "BumpCounter", mock.Anything, mock.Anything, mock.Anything)
	items.AssertNotCalled(t, "WriteCounter", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggle_AddRetriesWhenConflictingRecordVanishes(t *testing.T) {
	ctx := context.Background()
	ledger := &mocks.Ledger{}
	items := &mocks.BumpingItemStore{}

	added := record(foundRef, "u1")
	ledger.On("Add", ctx, foundRef, "u1").Return(nil, claim.ErrAlreadyClaimed).Once()
	ledger.On("Get", ctx, foundRef, "u1").Return(nil, nil).Once()
	ledger.On("Add", ctx, foundRef, "u1").Return(added, nil).Once()
	items.On("BumpCounter", ctx, foundRef, 1).Return(1, nil)

	svc := claim.NewService(ledger, items, nil)
	res, err := svc.Toggle(ctx, claim.ToggleRequest{Ref: foundRef, UserID: "u1", State: model.StatePresent})
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.Equal(t, added, res.Record)
	require.Equal(t, 1, res.Counter)
	ledger.AssertExpectations(t)
}

func TestToggle_AddGivesUpOnRepeatedChurn(t *testing.T) {
	ctx := context.Background()
	ledger := &mocks.Ledger{}
	items := &mocks.BumpingItemStore{}

	ledger.On("Add", ctx, foundRef, "u1").Return(nil, claim.ErrAlreadyClaimed).Twice()
	ledger.On("Get", ctx, foundRef, "u1").Return(nil, nil).Twice()

	svc := claim.NewService(ledger, items, nil)
	_, err := svc.Toggle(ctx, claim.ToggleRequest{Ref: foundRef, UserID: "u1", State: model.StatePresent})
	require.ErrorIs(t, err, claim.ErrStorageUnavailable)
	ledger.AssertExpectations(t)
	items.AssertNotCalled(t, "BumpCounter", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggle_RemoveMissingLeavesCounter(t *testing.T) {
	ctx := context.Background()
	ledger := &mocks.Ledger{}
	items := &mocks.ItemStore{}

	ledger.On("Remove", ctx, foundRef, "u1").Return(false, nil)
	items.On("ReadCounter", ctx, foundRef).Return(0, nil)

	svc := claim.NewService(ledger, items, nil)
	res, err := svc.Toggle(ctx, claim.ToggleRequest{Ref: foundRef, UserID: "u1", State: model.StateAbsent})
	require.NoError(t, err)
	require.False(t, res.Changed)
	require.Nil(t, res.Record)
	require.Equal(t, 0, res.Counter)
	items.AssertNotCalled(t, "WriteCounter", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggle_LedgerFailure(t *testing.T) {
	ctx := context.Background()
	ledger := &mocks.Ledger{}
	items := &mocks.BumpingItemStore{}

	ledger.On("Add", ctx, foundRef, "u1").Return(nil, errDown)
	ledger.On("Remove", ctx, foundRef, "u1").Return(false, errDown)

	svc := claim.NewService(ledger, items, nil)
	_, err := svc.Toggle(ctx, claim.ToggleRequest{Ref: foundRef, UserID: "u1", State: model.StatePresent})
	require.ErrorIs(t, err, claim.ErrStorageUnavailable)
	require.ErrorIs(t, err, errDown)

	_, err = svc.Toggle(ctx, claim.ToggleRequest{Ref: foundRef, UserID: "u1", State: model.StateAbsent})
	require.ErrorIs(t, err, claim.ErrStorageUnavailable)

	items.AssertNotCalled(t, "BumpCounter", mock.Anything, mock.Anything, mock.Anything)
	items.AssertNotCalled(t, "WriteCounter", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggle_ItemNotFound(t *testing.T) {
	ctx := context.Background()
	ledger := &mocks.Ledger{}
	items := &mocks.ItemStore{}

	ledger.On("Add", ctx, foundRef, "u1").Return(nil, claim.ErrItemNotFound)

	svc := claim.NewService(ledger, items, nil)
	_, err := svc.Toggle(ctx, claim.ToggleRequest{Ref: foundRef, UserID: "u1", State: model.StatePresent})
	require.ErrorIs(t, err, claim.ErrItemNotFound)
	require.NotErrorIs(t, err, claim.ErrStorageUnavailable)
}

func TestClaimedSet(t *testing.T) {
	ctx := context.Background()
	ledger := &mocks.Ledger{}
	lostRef := model.ItemRef{Kind: model.KindLost, ID: "item-1"}

	ledger.On("ListByUser", ctx, "u1").Return([]model.ClaimRecord{*record(foundRef, "u1")}, nil)

	svc := claim.NewService(ledger, &mocks.ItemStore{}, nil)
	set, err := svc.ClaimedSet(ctx, "u1")
	require.NoError(t, err)
	require.True(t, set[foundRef])
	require.False(t, set[lostRef])

	ok, err := svc.IsClaimed(ctx, lostRef, "u1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestListClaimsForUser_Empty(t *testing.T) {
	ctx := context.Background()
	ledger := &mocks.Ledger{}
	ledger.On("ListByUser", ctx, "u1").Return(nil, nil)

	svc := claim.NewService(ledger, &mocks.ItemStore{}, nil)
	recs, err := svc.ListClaimsForUser(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, recs)
	require.Empty(t, recs)

	_, err = svc.ListClaimsForUser(ctx, "")
	require.ErrorIs(t, err, claim.ErrInvalidRequest)
}

func TestResync_RepairsDrift(t *testing.T) {
	ledger := &mocks.Ledger{}
	items := &mocks.ItemStore{}
	lostRef := model.ItemRef{Kind: model.KindLost, ID: "item-2"}

	items.On("ListItemRefs", mock.Anything).Return([]model.ItemRef{foundRef, lostRef}, nil)
	ledger.On("Count", mock.Anything, foundRef).Return(2, nil)
	items.On("ReadCounter", mock.Anything, foundRef).Return(2, nil)
	ledger.On("Count", mock.Anything, lostRef).Return(1, nil)
	items.On("ReadCounter", mock.Anything, lostRef).Return(0, nil)
	items.On("WriteCounter", mock.Anything, lostRef, 1).Return(nil)

	svc := claim.NewService(ledger, items, nil, claim.WithResyncConcurrency(2))
	report, err := svc.Resync(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.Checked)
	require.Len(t, report.Repaired, 1)
	require.Equal(t, claim.CounterRepair{Ref: lostRef, Before: 0, After: 1}, report.Repaired[0])
	items.AssertNotCalled(t, "WriteCounter", mock.Anything, foundRef, mock.Anything)
}

func TestResync_StorageFailure(t *testing.T) {
	items := &mocks.ItemStore{}
	items.On("ListItemRefs", mock.Anything).Return(nil, errDown)

	svc := claim.NewService(&mocks.Ledger{}, items, nil)
	_, err := svc.Resync(context.Background())
	require.ErrorIs(t, err, claim.ErrStorageUnavailable)
}
