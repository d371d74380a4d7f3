package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/erazemk/lostfound/internal/api"
	"github.com/erazemk/lostfound/internal/claim"
	"github.com/erazemk/lostfound/internal/config"
	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/postgres"
	"github.com/erazemk/lostfound/internal/store"
)

// itemBackend is an item store usable by both the API and the claim service.
type itemBackend interface {
	api.ItemRepository
	claim.ItemStore
}

// backend bundles the opened storage. Accounts always live in the SQLite
// database; items and claims live in SQLite or PostgreSQL per config.
type backend struct {
	accounts *sql.DB
	items    itemBackend
	claims   *claim.Service
	close    func()
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	accounts, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.EnsureSchema(accounts); err != nil {
		accounts.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	b := &backend{accounts: accounts, close: func() { accounts.Close() }}
	var ledger claim.Ledger

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		if err := postgres.Migrate(ctx, cfg.Database.DSN); err != nil {
			accounts.Close()
			return nil, err
		}
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			accounts.Close()
			return nil, err
		}
		b.items = postgres.NewItems(pool)
		ledger = postgres.NewLedger(pool)
		b.close = func() {
			pool.Close()
			accounts.Close()
		}
	default:
		b.items = &store.Items{DB: accounts}
		ledger = &store.Ledger{DB: accounts}
	}

	opts := []claim.Option{claim.WithResyncConcurrency(cfg.Claims.ResyncConcurrency)}
	if cfg.Claims.DisableAtomicCounter {
		opts = append(opts, claim.WithoutAtomicCounter())
	}
	b.claims = claim.NewService(ledger, b.items, slog.Default().With("component", "claims"), opts...)

	slog.Info("database ready", "path", cfg.Database.Path, "driver", cfg.Database.Driver)
	return b, nil
}
