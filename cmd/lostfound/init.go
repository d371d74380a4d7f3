package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/lostfound/internal/config"
	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

func initCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database and the admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if _, err := os.Stat(cfg.Database.Path); err == nil {
				return fmt.Errorf("database file %s already exists", cfg.Database.Path)
			}
			return runInit(cmd.Context(), cfg)
		},
	}
}

// runInit creates a new database, ensures the schema, and creates the admin user.
func runInit(ctx context.Context, cfg *config.Config) error {
	path := cfg.Database.Path

	database, err := db.Open(path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	fail := func(err error) error {
		database.Close()
		os.Remove(path)
		return err
	}

	if err := db.EnsureSchema(database); err != nil {
		return fail(fmt.Errorf("ensuring schema: %w", err))
	}

	password, err := generatePassword(16)
	if err != nil {
		return fail(fmt.Errorf("generating password: %w", err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fail(fmt.Errorf("hashing password: %w", err))
	}

	_, err = store.CreateUser(ctx, database, store.NewUser{
		Name:         cfg.Admin.Name,
		Email:        cfg.Admin.Email,
		College:      cfg.Admin.College,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
	})
	if err != nil {
		return fail(fmt.Errorf("creating admin user: %w", err))
	}

	printInitResult(path, cfg.Admin.Email, password)
	return nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, email, password string) {
	bold := color.New(color.Bold)
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	bold.Println("Admin account created:")
	fmt.Printf("  Email:    %s\n", email)
	fmt.Printf("  Password: %s\n", color.New(color.FgGreen).Sprint(password))
	fmt.Println()
	color.New(color.FgYellow).Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
