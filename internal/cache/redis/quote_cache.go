package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/FightFi/booster/internal/domain"
)

// quoteTTL bounds staleness of cached claimable previews. Quotes only change
// on mutation of the fight, which also invalidates explicitly; the TTL is a
// backstop for missed invalidations.
const quoteTTL = 30 * time.Second

// QuoteCache implements domain.QuoteCache using plain Redis strings plus a
// per-fight index set so a fight mutation can drop every owner's quote in
// one call.
type QuoteCache struct {
	rdb *redis.Client
}

// NewQuoteCache creates a QuoteCache backed by the given Client.
func NewQuoteCache(c *Client) *QuoteCache {
	return &QuoteCache{rdb: c.Underlying()}
}

func quoteKey(eventID string, fightID uint32, owner common.Address) string {
	return fmt.Sprintf("quote:%s:%d:%s", eventID, fightID, owner.Hex())
}

func quoteIndexKey(eventID string, fightID uint32) string {
	return fmt.Sprintf("quote:idx:%s:%d", eventID, fightID)
}

// Get returns the cached claimable amount for (event, fight, owner). The
// second return value is false on a cache miss.
func (qc *QuoteCache) Get(ctx context.Context, eventID string, fightID uint32, owner common.Address) (uint64, bool, error) {
	val, err := qc.rdb.Get(ctx, quoteKey(eventID, fightID, owner)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("redis: get quote: %w", err)
	}
	amount, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("redis: parse quote %q: %w", val, err)
	}
	return amount, true, nil
}

// Set stores a claimable amount and registers the key in the fight's index.
func (qc *QuoteCache) Set(ctx context.Context, eventID string, fightID uint32, owner common.Address, amount uint64) error {
	key := quoteKey(eventID, fightID, owner)
	idx := quoteIndexKey(eventID, fightID)

	pipe := qc.rdb.Pipeline()
	pipe.Set(ctx, key, strconv.FormatUint(amount, 10), quoteTTL)
	pipe.SAdd(ctx, idx, key)
	pipe.Expire(ctx, idx, 2*quoteTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set quote: %w", err)
	}
	return nil
}

// InvalidateFight drops every cached quote for a fight.
func (qc *QuoteCache) InvalidateFight(ctx context.Context, eventID string, fightID uint32) error {
	idx := quoteIndexKey(eventID, fightID)

	keys, err := qc.rdb.SMembers(ctx, idx).Result()
	if err != nil {
		return fmt.Errorf("redis: quote index %s/%d: %w", eventID, fightID, err)
	}
	if len(keys) == 0 {
		return nil
	}

	pipe := qc.rdb.Pipeline()
	pipe.Del(ctx, keys...)
	pipe.Del(ctx, idx)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: invalidate quotes %s/%d: %w", eventID, fightID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.QuoteCache = (*QuoteCache)(nil)
