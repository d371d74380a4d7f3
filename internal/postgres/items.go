package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/erazemk/lostfound/internal/model"
)

var itemColumns = []string{
	"id", "kind", "user_id", "owner_name", "college", "item_name", "location",
	"description", "image_url", "status", "counter", "created_at", "updated_at",
}

// Items is the PostgreSQL item store. It implements the claim service's
// ItemStore and CounterBumper as well as the API's item repository.
type Items struct {
	q Querier
}

// NewItems creates an item store backed by q.
func NewItems(q Querier) *Items {
	return &Items{q: q}
}

// CreateItem inserts a new active item with a zero counter.
func (s *Items) CreateItem(ctx context.Context, n model.NewItem) (*model.Item, error) {
	var imageURL *string
	if n.Kind == model.KindFound && n.ImageURL != "" {
		imageURL = &n.ImageURL
	}

	query, args, err := psql.
		Insert("items").
		Columns("id", "kind", "user_id", "owner_name", "college", "item_name", "location", "description", "image_url").
		Values(uuid.NewString(), string(n.Kind), n.OwnerID, n.OwnerName, n.College, n.Name, n.Location, n.Description, imageURL).
		Suffix("RETURNING " + strings.Join(itemColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building create item query: %w", err)
	}

	item, err := scanItem(s.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}
	return item, nil
}

// GetItem returns an item by reference, or nil if it does not exist.
func (s *Items) GetItem(ctx context.Context, ref model.ItemRef) (*model.Item, error) {
	query, args, err := psql.
		Select(itemColumns...).
		From("items").
		Where(squirrel.Eq{"id": ref.ID, "kind": string(ref.Kind)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building get item query: %w", err)
	}

	item, err := scanItem(s.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "getting item", ref)
	}
	return item, nil
}

// ListItems returns active items of one kind within a college, newest first.
func (s *Items) ListItems(ctx context.Context, kind model.Kind, college string, limit int) ([]model.Item, error) {
	query, args, err := psql.
		Select(itemColumns...).
		From("items").
		Where(squirrel.Eq{"kind": string(kind), "college": college, "status": model.ItemStatusActive}).
		OrderBy("created_at DESC", "id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list items query: %w", err)
	}

	rows, err := s.q.Query(ctx, query, args...)
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
func (s *Items) ResolveItem(ctx context.Context, ref model.ItemRef) error {
	query, args, err := psql.
		Update("items").
		Set("status", model.ItemStatusResolved).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": ref.ID, "kind": string(ref.Kind)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building resolve item query: %w", err)
	}

	tag, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err, "resolving item", ref)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("resolving item %s: %w", ref, model.ErrItemNotFound)
	}
	return nil
}

// ReadCounter returns the item's claim/match counter.
func (s *Items) ReadCounter(ctx context.Context, ref model.ItemRef) (int, error) {
	query, args, err := psql.
		Select("counter").
		From("items").
		Where(squirrel.Eq{"id": ref.ID, "kind": string(ref.Kind)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building read counter query: %w", err)
	}

	var n int
	if err := s.q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapError(err, "reading counter of", ref)
	}
	return n, nil
}

// WriteCounter overwrites the item's counter unconditionally.
func (s *Items) WriteCounter(ctx context.Context, ref model.ItemRef, value int) error {
	if value < 0 {
		return fmt.Errorf("writing counter of %s: negative value %d", ref, value)
	}

	query, args, err := psql.
		Update("items").
		Set("counter", value).
		Where(squirrel.Eq{"id": ref.ID, "kind": string(ref.Kind)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building write counter query: %w", err)
	}

	tag, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err, "writing counter of", ref)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("writing counter of %s: %w", ref, model.ErrItemNotFound)
	}
	return nil
}

// BumpCounter adds delta to the counter in one statement, flooring at zero.
func (s *Items) BumpCounter(ctx context.Context, ref model.ItemRef, delta int) (int, error) {
	query, args, err := psql.
		Update("items").
		Set("counter", squirrel.Expr("GREATEST(0, counter + ?)", delta)).
		Where(squirrel.Eq{"id": ref.ID, "kind": string(ref.Kind)}).
		Suffix("RETURNING counter").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building bump counter query: %w", err)
	}

	var n int
	if err := s.q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapError(err, "bumping counter of", ref)
	}
	return n, nil
}

// ListItemRefs returns the keys of all items, regardless of status.
func (s *Items) ListItemRefs(ctx context.Context) ([]model.ItemRef, error) {
	query, args, err := psql.
		Select("id", "kind").
		From("items").
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list item refs query: %w", err)
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing item refs: %w", err)
	}
	defer rows.Close()

	var refs []model.ItemRef
	for rows.Next() {
		var id, kind string
		if err := rows.Scan(&id, &kind); err != nil {
			return nil, fmt.Errorf("scanning item ref: %w", err)
		}
		refs = append(refs, model.ItemRef{Kind: model.Kind(kind), ID: id})
	}
	return refs, rows.Err()
}

func scanItem(row pgx.Row) (*model.Item, error) {
	var (
		kind      string
		imageURL  *string
		createdAt time.Time
		updatedAt time.Time
	)
	item := &model.Item{}
	err := row.Scan(&item.ID, &kind, &item.OwnerID, &item.OwnerName, &item.College, &item.Name,
		&item.Location, &item.Description, &imageURL, &item.Status, &item.Counter, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	item.Kind = model.Kind(kind)
	if imageURL != nil {
		item.ImageURL = *imageURL
	}
	item.CreatedAt = createdAt.UTC()
	item.UpdatedAt = updatedAt.UTC()
	return item, nil
}
