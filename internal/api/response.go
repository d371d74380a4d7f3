package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/lostfound/internal/claim"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// claimErrorStatus maps claim service errors to HTTP status codes.
func claimErrorStatus(err error) int {
	switch {
	case errors.Is(err, claim.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, claim.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, claim.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// claimError writes the response for a failed claim service call.
func claimError(w http.ResponseWriter, err error) {
	status := claimErrorStatus(err)
	switch status {
	case http.StatusBadRequest:
		jsonError(w, status, err.Error())
	case http.StatusNotFound:
		jsonError(w, status, "item not found")
	case http.StatusServiceUnavailable:
		storageError(w, "claim storage unavailable", err)
	default:
		slog.Error("claim request failed", "error", err)
		jsonError(w, status, "internal error")
	}
}

// storageError reports a failed storage call as retryable.
func storageError(w http.ResponseWriter, msg string, err error) {
	slog.Warn(msg, "error", err)
	jsonError(w, http.StatusServiceUnavailable, "storage unavailable, try again")
}
