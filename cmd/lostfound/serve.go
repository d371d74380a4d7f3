package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/lostfound/internal/api"
	"github.com/erazemk/lostfound/internal/store"
)

// purgeInterval is how often expired revoked tokens are deleted.
const purgeInterval = time.Hour

func serveCmd(load configLoader) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			closeLog, err := setupLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer closeLog()

			// Auto-init on first run so a fresh deployment has an admin.
			if _, err := os.Stat(cfg.Database.Path); os.IsNotExist(err) {
				if err := runInit(cmd.Context(), cfg); err != nil {
					return err
				}
				fmt.Println()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.close()

			jwtSecret := cfg.Auth.JWTSecret
			if jwtSecret == "" {
				// Generated on first run and kept in the settings table.
				jwtSecret, err = store.GetJWTSecret(ctx, b.accounts)
				if err != nil {
					return fmt.Errorf("getting JWT secret: %w", err)
				}
			}

			router := api.NewRouter(api.Deps{
				DB:        b.accounts,
				Items:     b.items,
				Claims:    b.claims,
				JWTSecret: jwtSecret,
				TokenTTL:  cfg.Auth.TokenTTL,
			})

			server := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           api.LoggingMiddleware(router),
				ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
				ReadTimeout:       cfg.Server.ReadTimeout,
				WriteTimeout:      cfg.Server.WriteTimeout,
				IdleTimeout:       cfg.Server.IdleTimeout,
			}

			go purgeRevokedTokens(ctx, b)

			// Graceful shutdown on SIGINT/SIGTERM.
			go func() {
				<-ctx.Done()
				slog.Info("shutdown signal received")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("server forced to shutdown", "error", err)
				}
			}()

			slog.Info("server started", "addr", cfg.Server.Addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("server error: %w", err)
			}

			slog.Info("server stopped, closing database")
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides server.addr)")
	return cmd
}

func purgeRevokedTokens(ctx context.Context, b *backend) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.PurgeRevokedTokens(ctx, b.accounts, now)
			if err != nil {
				slog.Error("failed to purge revoked tokens", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("purged revoked tokens", "count", n)
			}
		}
	}
}
