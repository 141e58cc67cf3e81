package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies BOOSTER_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known BOOSTER_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Engine ──
	setStr(&cfg.Engine.Account, "BOOSTER_ENGINE_ACCOUNT")
	setStringSlice(&cfg.Engine.Admins, "BOOSTER_ENGINE_ADMINS")
	setStringSlice(&cfg.Engine.Operators, "BOOSTER_ENGINE_OPERATORS")
	setUint64(&cfg.Engine.MinStake, "BOOSTER_ENGINE_MIN_STAKE")
	setUint64(&cfg.Engine.MaxStake, "BOOSTER_ENGINE_MAX_STAKE")
	setUint32(&cfg.Engine.MaxFightsPerEvent, "BOOSTER_ENGINE_MAX_FIGHTS_PER_EVENT")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "BOOSTER_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "BOOSTER_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "BOOSTER_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "BOOSTER_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "BOOSTER_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "BOOSTER_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "BOOSTER_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "BOOSTER_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "BOOSTER_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "BOOSTER_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "BOOSTER_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "BOOSTER_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "BOOSTER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "BOOSTER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "BOOSTER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "BOOSTER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "BOOSTER_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "BOOSTER_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "BOOSTER_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "BOOSTER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "BOOSTER_S3_REGION")
	setStr(&cfg.S3.Bucket, "BOOSTER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "BOOSTER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "BOOSTER_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "BOOSTER_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "BOOSTER_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "BOOSTER_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "BOOSTER_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "BOOSTER_SERVER_CORS_ORIGINS")
	setStringSlice(&cfg.Server.OperatorKeys, "BOOSTER_SERVER_OPERATOR_KEYS")
	setInt64(&cfg.Server.SignatureTTLSeconds, "BOOSTER_SERVER_SIGNATURE_TTL_SECONDS")
	setInt(&cfg.Server.RateLimitPerMinute, "BOOSTER_SERVER_RATE_LIMIT_PER_MINUTE")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "BOOSTER_ARCHIVE_ENABLED")
	setStr(&cfg.Archive.Prefix, "BOOSTER_ARCHIVE_PREFIX")

	// ── Alerts ──
	setBool(&cfg.Alerts.Enabled, "BOOSTER_ALERTS_ENABLED")
	setStr(&cfg.Alerts.TelegramToken, "BOOSTER_ALERTS_TELEGRAM_TOKEN")
	setStr(&cfg.Alerts.TelegramChatID, "BOOSTER_ALERTS_TELEGRAM_CHAT_ID")
	setStr(&cfg.Alerts.DiscordWebhook, "BOOSTER_ALERTS_DISCORD_WEBHOOK")
	setStringSlice(&cfg.Alerts.Events, "BOOSTER_ALERTS_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "BOOSTER_MODE")
	setStr(&cfg.LogLevel, "BOOSTER_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setUint32(dst *uint32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			*dst = uint32(n)
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
