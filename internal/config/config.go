// Package config defines the top-level configuration for the booster
// settlement service and provides validation helpers.
package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by BOOSTER_* environment
// variables.
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Ledger   LedgerConfig   `toml:"ledger"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Archive  ArchiveConfig  `toml:"archive"`
	Alerts   AlertsConfig   `toml:"alerts"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// EngineConfig holds settlement engine parameters.
type EngineConfig struct {
	// Account is the address holding pooled stakes on the value ledger.
	Account string `toml:"account"`
	// Admins manage the operator set; Operators run events.
	Admins    []string `toml:"admins"`
	Operators []string `toml:"operators"`

	MinStake          uint64 `toml:"min_stake"`
	MaxStake          uint64 `toml:"max_stake"` // 0 = unbounded
	MaxFightsPerEvent uint32 `toml:"max_fights_per_event"`
}

// LedgerConfig seeds the in-process value ledger for db-less and test
// deployments. The production token ledger lives outside this service.
type LedgerConfig struct {
	OpenSeasons []uint64 `toml:"open_seasons"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// OperatorKeys are the API keys accepted on operator endpoints.
	OperatorKeys []string `toml:"operator_keys"`
	// SignatureTTLSeconds bounds the age of signed bettor requests.
	SignatureTTLSeconds int64 `toml:"signature_ttl_seconds"`
	// RateLimitPerMinute applies per client IP; 0 disables.
	RateLimitPerMinute int `toml:"rate_limit_per_minute"`
}

// ArchiveConfig controls post-purge event archival to object storage.
type ArchiveConfig struct {
	Enabled bool   `toml:"enabled"`
	Prefix  string `toml:"prefix"`
}

// AlertsConfig controls outbound alert delivery for settlement
// notifications. Events lists the notification types to relay; empty
// means all types.
type AlertsConfig struct {
	Enabled        bool     `toml:"enabled"`
	TelegramToken  string   `toml:"telegram_token"`
	TelegramChatID string   `toml:"telegram_chat_id"`
	DiscordWebhook string   `toml:"discord_webhook"`
	Events         []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			MinStake:          1,
			MaxStake:          0,
			MaxFightsPerEvent: 50,
		},
		Ledger: LedgerConfig{
			OpenSeasons: []uint64{1},
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "booster",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "booster-archives",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Enabled:             true,
			Port:                8000,
			CORSOrigins:         []string{"http://localhost:3000", "http://localhost:5173"},
			SignatureTTLSeconds: 300,
			RateLimitPerMinute:  0,
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Prefix:  "archives",
		},
		Alerts: AlertsConfig{
			Enabled: false,
			Events:  []string{"event.purged", "event.archived", "event.claim_deadline_set"},
		},
		Mode:     "serve",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"serve":  true,
	"verify": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, verify)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Engine
	if c.Engine.Account == "" {
		errs = append(errs, "engine: account must not be empty")
	} else if !common.IsHexAddress(c.Engine.Account) {
		errs = append(errs, fmt.Sprintf("engine: account %q is not a hex address", c.Engine.Account))
	}
	if len(c.Engine.Operators) == 0 {
		errs = append(errs, "engine: at least one operator address is required")
	}
	for _, addr := range append(append([]string{}, c.Engine.Admins...), c.Engine.Operators...) {
		if !common.IsHexAddress(addr) {
			errs = append(errs, fmt.Sprintf("engine: %q is not a hex address", addr))
		}
	}
	if c.Engine.MinStake == 0 {
		errs = append(errs, "engine: min_stake must be >= 1")
	}
	if c.Engine.MaxStake != 0 && c.Engine.MaxStake < c.Engine.MinStake {
		errs = append(errs, "engine: max_stake must be 0 or >= min_stake")
	}
	if c.Engine.MaxFightsPerEvent == 0 {
		errs = append(errs, "engine: max_fights_per_event must be >= 1")
	}

	// Ledger
	if len(c.Ledger.OpenSeasons) == 0 {
		errs = append(errs, "ledger: at least one open season is required")
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}
	if c.Archive.Enabled && !c.S3.Enabled {
		errs = append(errs, "archive: requires s3 to be enabled")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if len(c.Server.OperatorKeys) == 0 {
			errs = append(errs, "server: at least one operator_key is required")
		}
		if c.Server.SignatureTTLSeconds <= 0 {
			errs = append(errs, "server: signature_ttl_seconds must be > 0")
		}
	}

	// Alerts
	if c.Alerts.Enabled {
		hasTelegram := c.Alerts.TelegramToken != "" && c.Alerts.TelegramChatID != ""
		hasDiscord := c.Alerts.DiscordWebhook != ""
		if !hasTelegram && !hasDiscord {
			errs = append(errs, "alerts: enabled but no telegram or discord destination configured")
		}
		if !c.Redis.Enabled {
			errs = append(errs, "alerts: requires redis to be enabled")
		}
	}

	// Verify mode reads state from the database.
	if strings.ToLower(c.Mode) == "verify" && !c.Postgres.Enabled {
		errs = append(errs, "mode verify requires postgres to be enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
