package claim

import (
	"errors"

	"github.com/erazemk/lostfound/internal/model"
)

var (
	// ErrInvalidRequest is returned when a key field is missing or malformed.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrAlreadyClaimed is the ledger uniqueness conflict. The service treats
	// it as "already in the desired state".
	ErrAlreadyClaimed = model.ErrAlreadyClaimed

	// ErrItemNotFound is returned when the claimed item does not exist.
	ErrItemNotFound = model.ErrItemNotFound

	// ErrStorageUnavailable wraps ledger failures. Callers may retry.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrCounterReconciliationFailed means both the atomic bump and the
	// read-modify-write fallback failed. It is logged, never returned from
	// Toggle.
	ErrCounterReconciliationFailed = errors.New("counter reconciliation failed")
)
