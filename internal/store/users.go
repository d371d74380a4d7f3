package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/erazemk/lostfound/internal/model"
)

const userColumns = `id, name, email, college, password_hash, role, email_updates, created_at`

// NewUser holds the fields supplied when registering a user.
type NewUser struct {
	Name         string
	Email        string
	College      string
	PasswordHash string
	Role         string
	EmailUpdates bool
}

// CreateUser creates a new user. Returns model.ErrEmailTaken if the email is
// already registered.
func CreateUser(ctx context.Context, db *sql.DB, n NewUser) (*model.User, error) {
	if n.Role == "" {
		n.Role = model.RoleUser
	}
	id := uuid.NewString()

	_, err := db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, college, password_hash, role, email_updates)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, n.Name, n.Email, n.College, n.PasswordHash, n.Role, n.EmailUpdates,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("creating user %s: %w", n.Email, model.ErrEmailTaken)
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db *sql.DB, id string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns a user by email (case-insensitive).
func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns all users.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, email`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

func scanUser(s scanner) (*model.User, error) {
	u := &model.User{}
	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.College, &u.PasswordHash, &u.Role, &u.EmailUpdates, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}
