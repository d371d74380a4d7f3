package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/erazemk/lostfound/internal/model"
)

const itemColumns = `i.id, i.kind, i.user_id, i.college, i.item_name, i.location, i.description,
		i.image_url, i.status, i.counter, i.created_at, i.updated_at, u.name`

// CreateItem creates a new lost or found item with a zero counter.
func CreateItem(ctx context.Context, db *sql.DB, n model.NewItem) (*model.Item, error) {
	id := uuid.NewString()

	var imageURL sql.NullString
	if n.Kind == model.KindFound && n.ImageURL != "" {
		imageURL = sql.NullString{String: n.ImageURL, Valid: true}
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO items (id, kind, user_id, college, item_name, location, description, image_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, n.Kind, n.OwnerID, n.College, n.Name, n.Location, n.Description, imageURL,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, db, model.ItemRef{Kind: n.Kind, ID: id})
}

// GetItem returns an item by reference, or nil if it does not exist.
func GetItem(ctx context.Context, db *sql.DB, ref model.ItemRef) (*model.Item, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+itemColumns+`
		 FROM items i JOIN users u ON u.id = i.user_id
		 WHERE i.id = ? AND i.kind = ?`, ref.ID, ref.Kind,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns active items of one kind posted within a college,
// newest first.
func ListItems(ctx context.Context, db *sql.DB, kind model.Kind, college string, limit int) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+`
		 FROM items i JOIN users u ON u.id = i.user_id
		 WHERE i.kind = ? AND i.college = ? AND i.status = ?
		 ORDER BY i.created_at DESC, i.id
		 LIMIT ?`, kind, college, model.ItemStatusActive, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ResolveItem marks an item as resolved. Its ledger rows are kept.
func ResolveItem(ctx context.Context, db *sql.DB, ref model.ItemRef) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND kind = ?`,
		model.ItemStatusResolved, ref.ID, ref.Kind,
	)
	if err != nil {
		return fmt.Errorf("resolving item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolving item: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("resolving item %s: %w", ref, model.ErrItemNotFound)
	}
	return nil
}

// ReadCounter returns the item's claim/match counter.
func ReadCounter(ctx context.Context, db *sql.DB, ref model.ItemRef) (int, error) {
	var counter int
	err := db.QueryRowContext(ctx,
		`SELECT counter FROM items WHERE id = ? AND kind = ?`, ref.ID, ref.Kind,
	).Scan(&counter)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("reading counter of %s: %w", ref, model.ErrItemNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("reading counter: %w", err)
	}
	return counter, nil
}

// WriteCounter overwrites the item's counter unconditionally.
func WriteCounter(ctx context.Context, db *sql.DB, ref model.ItemRef, value int) error {
	if value < 0 {
		return fmt.Errorf("writing counter: negative value %d", value)
	}
	result, err := db.ExecContext(ctx,
		`UPDATE items SET counter = ? WHERE id = ? AND kind = ?`, value, ref.ID, ref.Kind,
	)
	if err != nil {
		return fmt.Errorf("writing counter: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("writing counter: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("writing counter of %s: %w", ref, model.ErrItemNotFound)
	}
	return nil
}

// BumpCounter adds delta to the item's counter in a single statement,
// flooring the result at zero, and returns the new value.
func BumpCounter(ctx context.Context, db *sql.DB, ref model.ItemRef, delta int) (int, error) {
	var counter int
	err := db.QueryRowContext(ctx,
		`UPDATE items SET counter = MAX(0, counter + ?)
		 WHERE id = ? AND kind = ?
		 RETURNING counter`, delta, ref.ID, ref.Kind,
	).Scan(&counter)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("bumping counter of %s: %w", ref, model.ErrItemNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("bumping counter: %w", err)
	}
	return counter, nil
}

// ListItemRefs returns the keys of all items, regardless of status.
func ListItemRefs(ctx context.Context, db *sql.DB) ([]model.ItemRef, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, kind FROM items ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing item refs: %w", err)
	}
	defer rows.Close()

	var refs []model.ItemRef
	for rows.Next() {
		var ref model.ItemRef
		if err := rows.Scan(&ref.ID, &ref.Kind); err != nil {
			return nil, fmt.Errorf("scanning item ref: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*model.Item, error) {
	item := &model.Item{}
	var imageURL sql.NullString
	err := s.Scan(&item.ID, &item.Kind, &item.OwnerID, &item.College, &item.Name, &item.Location,
		&item.Description, &imageURL, &item.Status, &item.Counter, &item.CreatedAt, &item.UpdatedAt,
		&item.OwnerName)
	if err != nil {
		return nil, err
	}
	item.ImageURL = imageURL.String
	return item, nil
}

// Items adapts the item functions to the claim service's item store and the
// API's item repository.
type Items struct {
	DB *sql.DB
}

func (s *Items) CreateItem(ctx context.Context, n model.NewItem) (*model.Item, error) {
	return CreateItem(ctx, s.DB, n)
}

func (s *Items) GetItem(ctx context.Context, ref model.ItemRef) (*model.Item, error) {
	return GetItem(ctx, s.DB, ref)
}

func (s *Items) ListItems(ctx context.Context, kind model.Kind, college string, limit int) ([]model.Item, error) {
	return ListItems(ctx, s.DB, kind, college, limit)
}

func (s *Items) ResolveItem(ctx context.Context, ref model.ItemRef) error {
	return ResolveItem(ctx, s.DB, ref)
}

// ReadCounter implements claim.ItemStore.
func (s *Items) ReadCounter(ctx context.Context, ref model.ItemRef) (int, error) {
	return ReadCounter(ctx, s.DB, ref)
}

// WriteCounter implements claim.ItemStore.
func (s *Items) WriteCounter(ctx context.Context, ref model.ItemRef, value int) error {
	return WriteCounter(ctx, s.DB, ref, value)
}

// BumpCounter implements claim.CounterBumper.
func (s *Items) BumpCounter(ctx context.Context, ref model.ItemRef, delta int) (int, error) {
	return BumpCounter(ctx, s.DB, ref, delta)
}

// ListItemRefs implements claim.ItemStore.
func (s *Items) ListItemRefs(ctx context.Context) ([]model.ItemRef, error) {
	return ListItemRefs(ctx, s.DB)
}
