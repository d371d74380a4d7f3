package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/lostfound/internal/claim"
)

// AdminHandler handles maintenance endpoints (admin only).
type AdminHandler struct {
	Claims *claim.Service
}

// ResyncCounters handles POST /api/admin/counters/resync.
func (h *AdminHandler) ResyncCounters(w http.ResponseWriter, r *http.Request) {
	report, err := h.Claims.Resync(r.Context())
	if err != nil {
		claimError(w, err)
		return
	}

	slog.Info("counter resync requested", "user", GetClaims(r.Context()).UserID,
		"checked", report.Checked, "repaired", len(report.Repaired))
	jsonResponse(w, http.StatusOK, report)
}
