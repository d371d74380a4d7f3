// Package mocks provides testify mocks for the claim service's storage
// interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/erazemk/lostfound/internal/model"
)

// Ledger is a mock for claim.Ledger.
type Ledger struct {
	mock.Mock
}

func (m *Ledger) Add(ctx context.Context, ref model.ItemRef, userID string) (*model.ClaimRecord, error) {
	args := m.Called(ctx, ref, userID)
	if rec, ok := args.Get(0).(*model.ClaimRecord); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Ledger) Get(ctx context.Context, ref model.ItemRef, userID string) (*model.ClaimRecord, error) {
	args := m.Called(ctx, ref, userID)
	if rec, ok := args.Get(0).(*model.ClaimRecord); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Ledger) Remove(ctx context.Context, ref model.ItemRef, userID string) (bool, error) {
	args := m.Called(ctx, ref, userID)
	return args.Bool(0), args.Error(1)
}

func (m *Ledger) ListByUser(ctx context.Context, userID string) ([]model.ClaimRecord, error) {
	args := m.Called(ctx, userID)
	if list, ok := args.Get(0).([]model.ClaimRecord); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Ledger) Count(ctx context.Context, ref model.ItemRef) (int, error) {
	args := m.Called(ctx, ref)
	return args.Int(0), args.Error(1)
}

// ItemStore is a mock for claim.ItemStore without atomic bump support.
type ItemStore struct {
	mock.Mock
}

func (m *ItemStore) ReadCounter(ctx context.Context, ref model.ItemRef) (int, error) {
	args := m.Called(ctx, ref)
	return args.Int(0), args.Error(1)
}

func (m *ItemStore) WriteCounter(ctx context.Context, ref model.ItemRef, value int) error {
	args := m.Called(ctx, ref, value)
	return args.Error(0)
}

func (m *ItemStore) ListItemRefs(ctx context.Context) ([]model.ItemRef, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]model.ItemRef); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// BumpingItemStore is an ItemStore that also implements claim.CounterBumper.
type BumpingItemStore struct {
	ItemStore
}

func (m *BumpingItemStore) BumpCounter(ctx context.Context, ref model.ItemRef, delta int) (int, error) {
	args := m.Called(ctx, ref, delta)
	return args.Int(0), args.Error(1)
}
