package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/lostfound/internal/model"
)

// AddClaim inserts a ledger record for (item, user). Uniqueness is enforced
// by the claims primary key: of several concurrent adds for the same key only
// one inserts a row, and the rest get model.ErrAlreadyClaimed.
func AddClaim(ctx context.Context, db *sql.DB, ref model.ItemRef, userID string) (*model.ClaimRecord, error) {
	rec := &model.ClaimRecord{
		ItemID:    ref.ID,
		Kind:      ref.Kind,
		UserID:    userID,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO claims (item_id, kind, user_id, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (item_id, kind, user_id) DO NOTHING`,
		rec.ItemID, rec.Kind, rec.UserID, rec.CreatedAt,
	)
	if isForeignKeyViolation(err) {
		return nil, fmt.Errorf("adding claim on %s: %w", ref, model.ErrItemNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("adding claim: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("adding claim: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("adding claim on %s: %w", ref, model.ErrAlreadyClaimed)
	}
	return rec, nil
}

// GetClaim returns the ledger record for (item, user), or nil if none exists.
func GetClaim(ctx context.Context, db *sql.DB, ref model.ItemRef, userID string) (*model.ClaimRecord, error) {
	rec := &model.ClaimRecord{}
	err := db.QueryRowContext(ctx,
		`SELECT item_id, kind, user_id, created_at FROM claims
		 WHERE item_id = ? AND kind = ? AND user_id = ?`, ref.ID, ref.Kind, userID,
	).Scan(&rec.ItemID, &rec.Kind, &rec.UserID, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting claim: %w", err)
	}
	return rec, nil
}

// RemoveClaim deletes the ledger record for (item, user) and reports whether
// a row was actually removed.
func RemoveClaim(ctx context.Context, db *sql.DB, ref model.ItemRef, userID string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM claims WHERE item_id = ? AND kind = ? AND user_id = ?`,
		ref.ID, ref.Kind, userID,
	)
	if err != nil {
		return false, fmt.Errorf("removing claim: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("removing claim: %w", err)
	}
	return n > 0, nil
}

// ListClaimsByUser returns every ledger record held by a user.
func ListClaimsByUser(ctx context.Context, db *sql.DB, userID string) ([]model.ClaimRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT item_id, kind, user_id, created_at FROM claims
		 WHERE user_id = ? ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing claims: %w", err)
	}
	defer rows.Close()

	var recs []model.ClaimRecord
	for rows.Next() {
		var rec model.ClaimRecord
		if err := rows.Scan(&rec.ItemID, &rec.Kind, &rec.UserID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// CountClaims returns the number of ledger records referencing an item.
func CountClaims(ctx context.Context, db *sql.DB, ref model.ItemRef) (int, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM claims WHERE item_id = ? AND kind = ?`, ref.ID, ref.Kind,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting claims: %w", err)
	}
	return n, nil
}

// Ledger adapts the claim functions to the claim service's ledger.
type Ledger struct {
	DB *sql.DB
}

// Add implements claim.Ledger.
func (l *Ledger) Add(ctx context.Context, ref model.ItemRef, userID string) (*model.ClaimRecord, error) {
	return AddClaim(ctx, l.DB, ref, userID)
}

// Get implements claim.Ledger.
func (l *Ledger) Get(ctx context.Context, ref model.ItemRef, userID string) (*model.ClaimRecord, error) {
	return GetClaim(ctx, l.DB, ref, userID)
}

// Remove implements claim.Ledger.
func (l *Ledger) Remove(ctx context.Context, ref model.ItemRef, userID string) (bool, error) {
	return RemoveClaim(ctx, l.DB, ref, userID)
}

// ListByUser implements claim.Ledger.
func (l *Ledger) ListByUser(ctx context.Context, userID string) ([]model.ClaimRecord, error) {
	return ListClaimsByUser(ctx, l.DB, userID)
}

// Count implements claim.Ledger.
func (l *Ledger) Count(ctx context.Context, ref model.ItemRef) (int, error) {
	return CountClaims(ctx, l.DB, ref)
}
