package engine

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/FightFi/booster/internal/domain"
)

// GetEvent returns a copy of the event record.
func (e *Engine) GetEvent(id string) (domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ev, err := e.eventByID(id)
	if err != nil {
		return domain.Event{}, err
	}
	return *ev, nil
}

// GetFight returns a copy of the fight record.
func (e *Engine) GetFight(eventID string, fightID uint32) (domain.Fight, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := e.fightByID(eventID, fightID)
	if err != nil {
		return domain.Fight{}, err
	}
	return *f, nil
}

// GetUserBoosts returns copies of the owner's boosts on a fight, in
// placement order.
func (e *Engine) GetUserBoosts(eventID string, fightID uint32, owner common.Address) ([]domain.Boost, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.fightByID(eventID, fightID); err != nil {
		return nil, err
	}
	list := e.boosts[boostKey{eventID, fightID, owner}]
	out := make([]domain.Boost, len(list))
	for i, b := range list {
		out[i] = *b
	}
	return out, nil
}

// GetUserBoostIndices returns the indices of the owner's unclaimed boosts on
// a fight.
func (e *Engine) GetUserBoostIndices(eventID string, fightID uint32, owner common.Address) ([]uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.fightByID(eventID, fightID); err != nil {
		return nil, err
	}
	var indices []uint32
	for _, b := range e.boosts[boostKey{eventID, fightID, owner}] {
		if !b.Claimed {
			indices = append(indices, b.Index)
		}
	}
	return indices, nil
}

// TotalPool returns originalPool + bonusPool for a fight.
func (e *Engine) TotalPool(eventID string, fightID uint32) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := e.fightByID(eventID, fightID)
	if err != nil {
		return 0, err
	}
	return f.OriginalPool + f.BonusPool, nil
}

// Snapshot returns copies of the full engine state for persistence. Fights
// and boosts are ordered deterministically.
func (e *Engine) Snapshot() ([]domain.Event, []domain.Fight, []domain.Boost) {
	e.mu.Lock()
	defer e.mu.Unlock()

	events := make([]domain.Event, 0, len(e.events))
	for _, ev := range e.events {
		events = append(events, *ev)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })

	fights := make([]domain.Fight, 0, len(e.fights))
	for _, f := range e.fights {
		fights = append(fights, *f)
	}
	sort.Slice(fights, func(i, j int) bool {
		if fights[i].EventID != fights[j].EventID {
			return fights[i].EventID < fights[j].EventID
		}
		return fights[i].ID < fights[j].ID
	})

	var boosts []domain.Boost
	for _, list := range e.boosts {
		for _, b := range list {
			boosts = append(boosts, *b)
		}
	}
	sort.Slice(boosts, func(i, j int) bool {
		a, b := boosts[i], boosts[j]
		if a.EventID != b.EventID {
			return a.EventID < b.EventID
		}
		if a.FightID != b.FightID {
			return a.FightID < b.FightID
		}
		if a.Owner != b.Owner {
			return a.Owner.Hex() < b.Owner.Hex()
		}
		return a.Index < b.Index
	})

	return events, fights, boosts
}

// Restore loads a previously persisted snapshot into an empty engine. It is
// intended for boot-time recovery and refuses to run over existing state.
func (e *Engine) Restore(events []domain.Event, fights []domain.Fight, boosts []domain.Boost) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.events) != 0 {
		return domain.ErrAlreadyExists
	}
	for _, ev := range events {
		cp := ev
		e.events[ev.ID] = &cp
	}
	for _, f := range fights {
		cp := f
		e.fights[fightKey{f.EventID, f.ID}] = &cp
	}
	for _, b := range boosts {
		cp := b
		key := boostKey{b.EventID, b.FightID, b.Owner}
		e.boosts[key] = append(e.boosts[key], &cp)
	}
	// Boost indices must equal slice positions.
	for key, list := range e.boosts {
		sort.Slice(list, func(i, j int) bool { return list[i].Index < list[j].Index })
		e.boosts[key] = list
	}
	return nil
}
