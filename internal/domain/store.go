package domain

import (
	"context"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// EventStore mirrors engine event state for off-chain queries and restarts.
type EventStore interface {
	Upsert(ctx context.Context, event Event) error
	GetByID(ctx context.Context, id string) (Event, error)
	List(ctx context.Context, opts ListOpts) ([]Event, error)
}

// FightStore mirrors engine fight state.
type FightStore interface {
	Upsert(ctx context.Context, fight Fight) error
	UpsertBatch(ctx context.Context, fights []Fight) error
	GetByID(ctx context.Context, eventID string, fightID uint32) (Fight, error)
	ListByEvent(ctx context.Context, eventID string) ([]Fight, error)
}

// BoostStore mirrors engine boost state.
type BoostStore interface {
	Upsert(ctx context.Context, boost Boost) error
	UpsertBatch(ctx context.Context, boosts []Boost) error
	ListByOwner(ctx context.Context, eventID string, fightID uint32, owner common.Address) ([]Boost, error)
	ListByFight(ctx context.Context, eventID string, fightID uint32) ([]Boost, error)
	ListByEvent(ctx context.Context, eventID string) ([]Boost, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}

// QuoteCache caches claimable previews keyed by (event, fight, owner).
type QuoteCache interface {
	Get(ctx context.Context, eventID string, fightID uint32, owner common.Address) (uint64, bool, error)
	Set(ctx context.Context, eventID string, fightID uint32, owner common.Address, amount uint64) error
	InvalidateFight(ctx context.Context, eventID string, fightID uint32) error
}

// LockManager serializes mutating API calls across replicas onto the
// single-writer engine. Acquire returns ErrLockHeld when contended.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// RateLimiter bounds request rates per key.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string) error
}

// StreamMessage is one durable entry read back from the notification stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus publishes notification payloads for live consumers and appends
// them to a durable stream for catch-up reads.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
}

// BlobWriter uploads serialized archives to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// BlobInfo describes one stored archive object.
type BlobInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// BlobReader reads archives back for audit.
type BlobReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
}
