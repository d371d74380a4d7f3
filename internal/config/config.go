// Package config loads lostfound's configuration from a YAML file,
// environment variables and defaults.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Claims   ClaimsConfig   `yaml:"claims"`
	Admin    AdminConfig    `yaml:"admin"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr              string        `yaml:"addr"                env:"LOSTFOUND_ADDR"                env-default:":8080"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"LOSTFOUND_READ_HEADER_TIMEOUT" env-default:"10s"`
	ReadTimeout       time.Duration `yaml:"read_timeout"        env:"LOSTFOUND_READ_TIMEOUT"        env-default:"30s"`
	WriteTimeout      time.Duration `yaml:"write_timeout"       env:"LOSTFOUND_WRITE_TIMEOUT"       env-default:"60s"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"        env:"LOSTFOUND_IDLE_TIMEOUT"        env-default:"120s"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"    env:"LOSTFOUND_SHUTDOWN_TIMEOUT"    env-default:"5s"`
}

// DatabaseConfig selects the storage backend for items and claims. Accounts
// always live in the SQLite database at Path.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"             env:"LOSTFOUND_DB_DRIVER"             env-default:"sqlite"`
	Path            string        `yaml:"path"               env:"LOSTFOUND_DB_PATH"               env-default:"lostfound.sqlite3"`
	DSN             string        `yaml:"dsn"                env:"LOSTFOUND_DB_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"LOSTFOUND_DB_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"LOSTFOUND_DB_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"LOSTFOUND_DB_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"LOSTFOUND_DB_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// AuthConfig holds token settings. An empty JWTSecret means the secret is
// generated once and kept in the database.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"LOSTFOUND_JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl"  env:"LOSTFOUND_TOKEN_TTL"  env-default:"24h"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOSTFOUND_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOSTFOUND_LOG_FORMAT" env-default:"text"`
	Path   string `yaml:"path"   env:"LOSTFOUND_LOG_PATH"`
}

// ClaimsConfig tunes the claim service.
type ClaimsConfig struct {
	// DisableAtomicCounter forces read-modify-write counter updates even when
	// the backend supports a single-statement bump.
	DisableAtomicCounter bool `yaml:"disable_atomic_counter" env:"LOSTFOUND_DISABLE_ATOMIC_COUNTER"`
	ResyncConcurrency    int  `yaml:"resync_concurrency"     env:"LOSTFOUND_RESYNC_CONCURRENCY"     env-default:"4"`
}

// AdminConfig describes the account created by `lostfound init`.
type AdminConfig struct {
	Name    string `yaml:"name"    env:"LOSTFOUND_ADMIN_NAME"    env-default:"Admin"`
	Email   string `yaml:"email"   env:"LOSTFOUND_ADMIN_EMAIL"   env-default:"admin@localhost.localdomain"`
	College string `yaml:"college" env:"LOSTFOUND_ADMIN_COLLEGE" env-default:"Administration"`
}
