package app

import (
	"context"
	"fmt"

	s3blob "github.com/FightFi/booster/internal/blob/s3"
	"github.com/FightFi/booster/internal/cache/redis"
	"github.com/FightFi/booster/internal/config"
	"github.com/FightFi/booster/internal/domain"
	"github.com/FightFi/booster/internal/notify"
	"github.com/FightFi/booster/internal/server/handler"
	"github.com/FightFi/booster/internal/store/memory"
	"github.com/FightFi/booster/internal/store/postgres"
)

// Dependencies bundles every infrastructure dependency the application modes
// need. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	// Stores mirror engine state. Postgres-backed when postgres is enabled,
	// in-memory otherwise.
	Events domain.EventStore
	Fights domain.FightStore
	Boosts domain.BoostStore
	Audit  domain.AuditStore

	// Redis-backed infrastructure. All nil when redis is disabled.
	Quotes  domain.QuoteCache
	Limiter domain.RateLimiter
	Locks   domain.LockManager
	Bus     domain.SignalBus
	// Streams is the same signal bus, typed for durable stream reads.
	Streams *redis.SignalBus

	// Blob storage. Nil when s3 is disabled.
	BlobReader domain.BlobReader
	Archiver   *s3blob.Archiver

	// Checks are the per-dependency health probes for /api/health.
	Checks map[string]handler.HealthChecker

	// Senders are the configured alert channels.
	Senders []notify.Sender
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Checks: make(map[string]handler.HealthChecker),
	}

	// --- Stores ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.Events = postgres.NewEventStore(pool)
		deps.Fights = postgres.NewFightStore(pool)
		deps.Boosts = postgres.NewBoostStore(pool)
		deps.Audit = postgres.NewAuditStore(pool)
		deps.Checks["postgres"] = pool.Ping
	} else {
		deps.Events = memory.NewEventStore()
		deps.Fights = memory.NewFightStore()
		deps.Boosts = memory.NewBoostStore()
		deps.Audit = memory.NewAuditStore()
	}

	// --- Redis ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		bus := redis.NewSignalBus(redisClient)
		deps.Quotes = redis.NewQuoteCache(redisClient)
		deps.Limiter = redis.NewRateLimiter(redisClient)
		deps.Locks = redis.NewLockManager(redisClient)
		deps.Bus = bus
		deps.Streams = bus
		deps.Checks["redis"] = redisClient.Ping
	}

	// --- S3 blob storage ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		reader := s3blob.NewReader(s3Client)
		deps.BlobReader = reader
		deps.Checks["s3"] = s3Client.Health
		if cfg.Archive.Enabled {
			deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), reader, deps.Audit, cfg.Archive.Prefix)
		}
	}

	// --- Alert senders ---
	if cfg.Alerts.Enabled {
		if cfg.Alerts.TelegramToken != "" && cfg.Alerts.TelegramChatID != "" {
			deps.Senders = append(deps.Senders, notify.NewTelegramSender(
				cfg.Alerts.TelegramToken,
				cfg.Alerts.TelegramChatID,
			))
		}
		if cfg.Alerts.DiscordWebhook != "" {
			deps.Senders = append(deps.Senders, notify.NewDiscordSender(cfg.Alerts.DiscordWebhook))
		}
	}

	return deps, cleanup, nil
}
