package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/erazemk/lostfound/internal/model"
)

// Ledger is the PostgreSQL claim ledger. Uniqueness of (item, kind, user) is
// enforced by the claims primary key.
type Ledger struct {
	q Querier
}

// NewLedger creates a ledger backed by q.
func NewLedger(q Querier) *Ledger {
	return &Ledger{q: q}
}

// Add inserts a record. A conflicting insert returns no row, which is
// reported as model.ErrAlreadyClaimed.
func (l *Ledger) Add(ctx context.Context, ref model.ItemRef, userID string) (*model.ClaimRecord, error) {
	query, args, err := psql.
		Insert("claims").
		Columns("item_id", "kind", "user_id").
		Values(ref.ID, string(ref.Kind), userID).
		Suffix("ON CONFLICT (item_id, kind, user_id) DO NOTHING RETURNING created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building add claim query: %w", err)
	}

	var createdAt time.Time
	err = l.q.QueryRow(ctx, query, args...).Scan(&createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("adding claim on %s: %w", ref, model.ErrAlreadyClaimed)
	}
	if err != nil {
		return nil, mapError(err, "adding claim on", ref)
	}

	return &model.ClaimRecord{
		ItemID:    ref.ID,
		Kind:      ref.Kind,
		UserID:    userID,
		CreatedAt: createdAt.UTC(),
	}, nil
}

// Get returns the record for (ref, userID), or nil if none exists.
func (l *Ledger) Get(ctx context.Context, ref model.ItemRef, userID string) (*model.ClaimRecord, error) {
	query, args, err := psql.
		Select("created_at").
		From("claims").
		Where(squirrel.Eq{"item_id": ref.ID, "kind": string(ref.Kind), "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building get claim query: %w", err)
	}

	var createdAt time.Time
	err = l.q.QueryRow(ctx, query, args...).Scan(&createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "getting claim on", ref)
	}
	return &model.ClaimRecord{ItemID: ref.ID, Kind: ref.Kind, UserID: userID, CreatedAt: createdAt.UTC()}, nil
}

// Remove deletes the record and reports whether a row existed.
func (l *Ledger) Remove(ctx context.Context, ref model.ItemRef, userID string) (bool, error) {
	query, args, err := psql.
		Delete("claims").
		Where(squirrel.Eq{"item_id": ref.ID, "kind": string(ref.Kind), "user_id": userID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building remove claim query: %w", err)
	}

	tag, err := l.q.Exec(ctx, query, args...)
	if err != nil {
		return false, mapError(err, "removing claim on", ref)
	}
	return tag.RowsAffected() > 0, nil
}

// ListByUser returns every record held by userID, newest first.
func (l *Ledger) ListByUser(ctx context.Context, userID string) ([]model.ClaimRecord, error) {
	query, args, err := psql.
		Select("item_id", "kind", "created_at").
		From("claims").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "item_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list claims query: %w", err)
	}

	rows, err := l.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing claims of %s: %w", userID, err)
	}
	defer rows.Close()

	var recs []model.ClaimRecord
	for rows.Next() {
		var (
			itemID, kind string
			createdAt    time.Time
		)
		if err := rows.Scan(&itemID, &kind, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		recs = append(recs, model.ClaimRecord{
			ItemID:    itemID,
			Kind:      model.Kind(kind),
			UserID:    userID,
			CreatedAt: createdAt.UTC(),
		})
	}
	return recs, rows.Err()
}

// Count returns the number of records referencing ref.
func (l *Ledger) Count(ctx context.Context, ref model.ItemRef) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("claims").
		Where(squirrel.Eq{"item_id": ref.ID, "kind": string(ref.Kind)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count claims query: %w", err)
	}

	var n int
	if err := l.q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapError(err, "counting claims on", ref)
	}
	return n, nil
}
