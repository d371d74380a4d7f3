package api

import (
	"net/http"

	"github.com/erazemk/lostfound/internal/claim"
	"github.com/erazemk/lostfound/internal/model"
)

// ClaimsHandler handles claim and match endpoints.
type ClaimsHandler struct {
	Items  ItemRepository
	Claims *claim.Service
}

type toggleClaimRequest struct {
	ItemID string `json:"item_id"`
	// Kind is "found" or "lost"; ClaimType accepts the older "found"/"match"
	// naming and is used when Kind is empty.
	Kind      string `json:"kind"`
	ClaimType string `json:"claim_type"`
	Action    string `json:"action"`
}

// Toggle handles POST /api/claims.
func (h *ClaimsHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req toggleClaimRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	kindName := req.Kind
	if kindName == "" {
		kindName = req.ClaimType
	}
	kind, ok := model.ParseKind(kindName)
	if !ok {
		jsonError(w, http.StatusBadRequest, "kind must be found or lost")
		return
	}
	state, ok := model.ParseAction(req.Action)
	if !ok {
		jsonError(w, http.StatusBadRequest, "action must be add or remove")
		return
	}
	if req.ItemID == "" {
		jsonError(w, http.StatusBadRequest, "item_id required")
		return
	}
	ref := model.ItemRef{Kind: kind, ID: req.ItemID}

	item, err := h.Items.GetItem(r.Context(), ref)
	if err != nil {
		storageError(w, "failed to get item", err)
		return
	}
	// Resolved items and items from other colleges cannot receive new claims.
	// Removing an existing claim is still allowed on a resolved item.
	if item == nil || item.College != claims.College ||
		(state == model.StatePresent && item.Status != model.ItemStatusActive) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	res, err := h.Claims.Toggle(r.Context(), claim.ToggleRequest{Ref: ref, UserID: claims.UserID, State: state})
	if err != nil {
		claimError(w, err)
		return
	}

	status := http.StatusOK
	if state == model.StatePresent && res.Changed {
		status = http.StatusCreated
	}
	jsonResponse(w, status, res)
}

// List handles GET /api/claims.
func (h *ClaimsHandler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Claims.ListClaimsForUser(r.Context(), GetClaims(r.Context()).UserID)
	if err != nil {
		claimError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, recs)
}
