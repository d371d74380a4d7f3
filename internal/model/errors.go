package model

import "errors"

// Sentinel errors shared by the storage backends and the claim service.
var (
	// ErrAlreadyClaimed is returned by a ledger add when a record for the
	// exact (item, kind, user) key already exists.
	ErrAlreadyClaimed = errors.New("already claimed")

	// ErrItemNotFound is returned when the referenced item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("email already registered")
)
