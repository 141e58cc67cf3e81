// Package memory provides map-backed implementations of the domain store
// interfaces for tests and db-less deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/FightFi/booster/internal/domain"
)

// EventStore implements domain.EventStore in memory.
type EventStore struct {
	mu     sync.RWMutex
	events map[string]domain.Event
}

func NewEventStore() *EventStore {
	return &EventStore{events: make(map[string]domain.Event)}
}

func (s *EventStore) Upsert(_ context.Context, ev domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[ev.ID] = ev
	return nil
}

func (s *EventStore) GetByID(_ context.Context, id string) (domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return domain.Event{}, domain.ErrNotFound
	}
	return ev, nil
}

func (s *EventStore) List(_ context.Context, opts domain.ListOpts) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]domain.Event, 0, len(s.events))
	for _, ev := range s.events {
		if opts.Since != nil && ev.CreatedAt < opts.Since.Unix() {
			continue
		}
		if opts.Until != nil && ev.CreatedAt > opts.Until.Unix() {
			continue
		}
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt > events[j].CreatedAt
	})
	return paginate(events, opts), nil
}

type fightKey struct {
	eventID string
	fightID uint32
}

// FightStore implements domain.FightStore in memory.
type FightStore struct {
	mu     sync.RWMutex
	fights map[fightKey]domain.Fight
}

func NewFightStore() *FightStore {
	return &FightStore{fights: make(map[fightKey]domain.Fight)}
}

func (s *FightStore) Upsert(_ context.Context, f domain.Fight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fights[fightKey{f.EventID, f.ID}] = f
	return nil
}

func (s *FightStore) UpsertBatch(_ context.Context, fights []domain.Fight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range fights {
		s.fights[fightKey{f.EventID, f.ID}] = f
	}
	return nil
}

func (s *FightStore) GetByID(_ context.Context, eventID string, fightID uint32) (domain.Fight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fights[fightKey{eventID, fightID}]
	if !ok {
		return domain.Fight{}, domain.ErrNotFound
	}
	return f, nil
}

func (s *FightStore) ListByEvent(_ context.Context, eventID string) ([]domain.Fight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var fights []domain.Fight
	for k, f := range s.fights {
		if k.eventID == eventID {
			fights = append(fights, f)
		}
	}
	sort.Slice(fights, func(i, j int) bool { return fights[i].ID < fights[j].ID })
	return fights, nil
}

type boostKey struct {
	eventID string
	fightID uint32
	owner   common.Address
	index   uint32
}

// BoostStore implements domain.BoostStore in memory.
type BoostStore struct {
	mu     sync.RWMutex
	boosts map[boostKey]domain.Boost
}

func NewBoostStore() *BoostStore {
	return &BoostStore{boosts: make(map[boostKey]domain.Boost)}
}

func (s *BoostStore) Upsert(_ context.Context, b domain.Boost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boosts[boostKey{b.EventID, b.FightID, b.Owner, b.Index}] = b
	return nil
}

func (s *BoostStore) UpsertBatch(_ context.Context, boosts []domain.Boost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range boosts {
		s.boosts[boostKey{b.EventID, b.FightID, b.Owner, b.Index}] = b
	}
	return nil
}

func (s *BoostStore) collect(match func(boostKey) bool) []domain.Boost {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var boosts []domain.Boost
	for k, b := range s.boosts {
		if match(k) {
			boosts = append(boosts, b)
		}
	}
	sort.Slice(boosts, func(i, j int) bool {
		a, b := boosts[i], boosts[j]
		if a.FightID != b.FightID {
			return a.FightID < b.FightID
		}
		if a.Owner != b.Owner {
			return a.Owner.Hex() < b.Owner.Hex()
		}
		return a.Index < b.Index
	})
	return boosts
}

func (s *BoostStore) ListByOwner(_ context.Context, eventID string, fightID uint32, owner common.Address) ([]domain.Boost, error) {
	return s.collect(func(k boostKey) bool {
		return k.eventID == eventID && k.fightID == fightID && k.owner == owner
	}), nil
}

func (s *BoostStore) ListByFight(_ context.Context, eventID string, fightID uint32) ([]domain.Boost, error) {
	return s.collect(func(k boostKey) bool {
		return k.eventID == eventID && k.fightID == fightID
	}), nil
}

func (s *BoostStore) ListByEvent(_ context.Context, eventID string) ([]domain.Boost, error) {
	return s.collect(func(k boostKey) bool {
		return k.eventID == eventID
	}), nil
}

// AuditStore implements domain.AuditStore in memory.
type AuditStore struct {
	mu      sync.Mutex
	nextID  int64
	entries []domain.AuditEntry
}

func NewAuditStore() *AuditStore {
	return &AuditStore{nextID: 1}
}

func (s *AuditStore) Log(_ context.Context, event string, detail map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, domain.AuditEntry{
		ID:        s.nextID,
		Event:     event,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	})
	s.nextID++
	return nil
}

func (s *AuditStore) List(_ context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]domain.AuditEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if opts.Since != nil && e.CreatedAt.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && e.CreatedAt.After(*opts.Until) {
			continue
		}
		entries = append(entries, e)
	}
	// Newest first, matching the SQL store.
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID > entries[j].ID })
	return paginate(entries, opts), nil
}

func paginate[T any](items []T, opts domain.ListOpts) []T {
	if opts.Offset > 0 {
		if opts.Offset >= len(items) {
			return nil
		}
		items = items[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	return items
}
