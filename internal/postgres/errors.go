package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/erazemk/lostfound/internal/model"
)

// mapError converts pgx errors to domain errors. Context errors and anything
// unrecognized pass through wrapped.
func mapError(err error, op string, ref model.ItemRef) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", op, ref, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", op, ref, model.ErrItemNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %s: %w", op, ref, model.ErrAlreadyClaimed)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %s: %w", op, ref, model.ErrItemNotFound)
		}
	}

	return fmt.Errorf("%s %s: %w", op, ref, err)
}
