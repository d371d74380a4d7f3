package api

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/lostfound/internal/claim"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

// Listing limits.
const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// ItemRepository stores posted items. Both storage backends implement it.
type ItemRepository interface {
	CreateItem(ctx context.Context, n model.NewItem) (*model.Item, error)
	GetItem(ctx context.Context, ref model.ItemRef) (*model.Item, error)
	ListItems(ctx context.Context, kind model.Kind, college string, limit int) ([]model.Item, error)
	ResolveItem(ctx context.Context, ref model.ItemRef) error
}

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	DB     *sql.DB
	Items  ItemRepository
	Claims *claim.Service
}

type createItemRequest struct {
	Name        string `json:"item_name"`
	Location    string `json:"location"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// itemView is an item as returned to clients: the counter is named claims
// on found items and matches on lost items, and claimed reports whether the
// caller holds a record on it.
type itemView struct {
	model.Item
	Claims  *int `json:"claims,omitempty"`
	Matches *int `json:"matches,omitempty"`
	Claimed bool `json:"claimed"`
}

func newItemView(item model.Item, claimed bool) itemView {
	v := itemView{Item: item, Claimed: claimed}
	n := item.Counter
	if item.Kind == model.KindFound {
		v.Claims = &n
	} else {
		v.Matches = &n
	}
	return v
}

func kindFromPath(r *http.Request) (model.Kind, bool) {
	return model.ParseKind(r.PathValue("kind"))
}

// Create handles POST /api/items/{kind}.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindFromPath(r)
	if !ok {
		jsonError(w, http.StatusNotFound, "unknown item kind")
		return
	}
	claims := GetClaims(r.Context())

	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Location = strings.TrimSpace(req.Location)
	if req.Name == "" || req.Location == "" {
		jsonError(w, http.StatusBadRequest, "item_name and location required")
		return
	}

	owner, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil || owner == nil {
		slog.Error("failed to load item owner", "user", claims.UserID, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	item, err := h.Items.CreateItem(r.Context(), model.NewItem{
		Kind:        kind,
		OwnerID:     owner.ID,
		OwnerName:   owner.Name,
		College:     owner.College,
		Name:        req.Name,
		Location:    req.Location,
		Description: strings.TrimSpace(req.Description),
		ImageURL:    strings.TrimSpace(req.ImageURL),
	})
	if err != nil {
		slog.Error("failed to create item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	slog.Info("item posted", "user", owner.ID, "item", item.Ref().String(), "college", item.College)
	jsonResponse(w, http.StatusCreated, newItemView(*item, false))
}

// List handles GET /api/items/{kind}. Only active items from the caller's
// college are returned, newest first.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindFromPath(r)
	if !ok {
		jsonError(w, http.StatusNotFound, "unknown item kind")
		return
	}
	claims := GetClaims(r.Context())

	limit := DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, MaxListLimit)
	}

	items, err := h.Items.ListItems(r.Context(), kind, claims.College, limit)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	claimed, err := h.Claims.ClaimedSet(r.Context(), claims.UserID)
	if err != nil {
		claimError(w, err)
		return
	}

	views := make([]itemView, 0, len(items))
	for _, item := range items {
		views = append(views, newItemView(item, claimed[item.Ref()]))
	}
	jsonResponse(w, http.StatusOK, views)
}

// Get handles GET /api/items/{kind}/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.visibleItem(w, r)
	if !ok {
		return
	}

	claimed, err := h.Claims.IsClaimed(r.Context(), item.Ref(), GetClaims(r.Context()).UserID)
	if err != nil {
		claimError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, newItemView(*item, claimed))
}

// Resolve handles PUT /api/items/{kind}/{id}/resolve. Only the poster or an
// admin may resolve an item.
func (h *ItemsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	item, ok := h.visibleItem(w, r)
	if !ok {
		return
	}

	claims := GetClaims(r.Context())
	if item.OwnerID != claims.UserID && !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		jsonError(w, http.StatusForbidden, "only the poster can resolve this item")
		return
	}

	err := h.Items.ResolveItem(r.Context(), item.Ref())
	if errors.Is(err, model.ErrItemNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		slog.Error("failed to resolve item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to resolve item")
		return
	}

	slog.Info("item resolved", "user", claims.UserID, "item", item.Ref().String())
	item.Status = model.ItemStatusResolved
	jsonResponse(w, http.StatusOK, newItemView(*item, false))
}

// visibleItem loads the item named by the path and checks that it belongs
// to the caller's college. It writes the error response itself.
func (h *ItemsHandler) visibleItem(w http.ResponseWriter, r *http.Request) (*model.Item, bool) {
	kind, ok := kindFromPath(r)
	if !ok {
		jsonError(w, http.StatusNotFound, "unknown item kind")
		return nil, false
	}

	item, err := h.Items.GetItem(r.Context(), model.ItemRef{Kind: kind, ID: r.PathValue("id")})
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return nil, false
	}
	if item == nil || item.College != GetClaims(r.Context()).College {
		jsonError(w, http.StatusNotFound, "item not found")
		return nil, false
	}
	return item, true
}
