package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    email         TEXT NOT NULL COLLATE NOCASE UNIQUE,
    college       TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
    email_updates INTEGER NOT NULL DEFAULT 0,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
    id          TEXT PRIMARY KEY,
    kind        TEXT NOT NULL CHECK (kind IN ('found', 'lost')),
    user_id     TEXT NOT NULL REFERENCES users(id),
    college     TEXT NOT NULL,
    item_name   TEXT NOT NULL,
    location    TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    image_url   TEXT,
    status      TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'resolved')),
    counter     INTEGER NOT NULL DEFAULT 0 CHECK (counter >= 0),
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (id, kind)
);

CREATE INDEX IF NOT EXISTS idx_items_listing
    ON items(kind, college, status, created_at);

CREATE TABLE IF NOT EXISTS claims (
    item_id    TEXT NOT NULL,
    kind       TEXT NOT NULL CHECK (kind IN ('found', 'lost')),
    user_id    TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    PRIMARY KEY (item_id, kind, user_id),
    FOREIGN KEY (item_id, kind) REFERENCES items(id, kind) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist,
// then applies the migrations list.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return migrate(db)
}
