package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Validate checks field values that the loader cannot.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}

	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required for the postgres driver"))
		}
		if c.Database.MinConns > c.Database.MaxConns {
			errs = append(errs, fmt.Errorf("database.min_conns (%d) exceeds max_conns (%d)",
				c.Database.MinConns, c.Database.MaxConns))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver must be %q or %q, got %q",
			DriverSQLite, DriverPostgres, c.Database.Driver))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}

	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	if c.Claims.ResyncConcurrency < 1 {
		errs = append(errs, errors.New("claims.resync_concurrency must be at least 1"))
	}

	return errors.Join(errs...)
}

// SlogLevel parses the configured level name.
func (c LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.Level))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
