package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/erazemk/lostfound/internal/model"
)

func mustCreateUser(t *testing.T, database *sql.DB, email, college string) *model.User {
	t.Helper()
	u, err := CreateUser(context.Background(), database, NewUser{
		Name:         email,
		Email:        email,
		College:      college,
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u
}

func mustCreateItem(t *testing.T, database *sql.DB, owner *model.User, kind model.Kind, name string) *model.Item {
	t.Helper()
	item, err := CreateItem(context.Background(), database, model.NewItem{
		Kind:     kind,
		OwnerID:  owner.ID,
		College:  owner.College,
		Name:     name,
		Location: "Library",
	})
	if err != nil {
		t.Fatalf("CreateItem(%s): %v", name, err)
	}
	return item
}
