package engine

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/FightFi/booster/internal/domain"
)

// CreateEvent registers a named event and instantiates fightCount open
// fights, each with boostCutoff = defaultCutoff. Operator-only.
func (e *Engine) CreateEvent(caller common.Address, id string, fightCount uint32, seasonID uint64, defaultCutoff int64) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	if !e.isOperator(caller) {
		return domain.ErrNotOperator
	}
	if id == "" {
		return domain.ErrInvalidArgument
	}
	if fightCount == 0 || fightCount > e.cfg.MaxFightsPerEvent {
		return domain.ErrInvalidArgument
	}
	if _, ok := e.events[id]; ok {
		return domain.ErrAlreadyExists
	}

	e.events[id] = &domain.Event{
		ID:        id,
		SeasonID:  seasonID,
		NumFights: fightCount,
		CreatedAt: e.now(),
	}
	for i := uint32(1); i <= fightCount; i++ {
		e.fights[fightKey{id, i}] = &domain.Fight{
			EventID:     id,
			ID:          i,
			Status:      domain.FightStatusOpen,
			Winner:      domain.CornerNone,
			BoostCutoff: defaultCutoff,
		}
	}

	e.emit(domain.Notification{
		Type:    domain.NotifyEventCreated,
		EventID: id,
		Actor:   caller,
		Detail: map[string]any{
			"season_id":      seasonID,
			"num_fights":     fightCount,
			"default_cutoff": defaultCutoff,
		},
	})
	return nil
}

// SetClaimReady toggles the gate that unlocks the claim paths. Turning it
// back off re-enables result correction; that is an intentional escape
// hatch, not a bug.
func (e *Engine) SetClaimReady(caller common.Address, id string, ready bool) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	if !e.isOperator(caller) {
		return domain.ErrNotOperator
	}
	ev, err := e.eventByID(id)
	if err != nil {
		return err
	}
	ev.ClaimReady = ready

	e.emit(domain.Notification{
		Type:    domain.NotifyClaimReadyToggled,
		EventID: id,
		Actor:   caller,
		Detail:  map[string]any{"claim_ready": ready},
	})
	return nil
}

// SetClaimDeadline sets the timestamp after which claims are refused and the
// post-deadline sweep becomes possible. 0 unsets it.
func (e *Engine) SetClaimDeadline(caller common.Address, id string, deadline int64) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	if !e.isOperator(caller) {
		return domain.ErrNotOperator
	}
	ev, err := e.eventByID(id)
	if err != nil {
		return err
	}
	ev.ClaimDeadline = deadline

	e.emit(domain.Notification{
		Type:    domain.NotifyClaimDeadlineSet,
		EventID: id,
		Actor:   caller,
		Detail:  map[string]any{"deadline": deadline},
	})
	return nil
}

// SetEventBoostCutoff applies cutoff to every fight of the event.
func (e *Engine) SetEventBoostCutoff(caller common.Address, id string, cutoff int64) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	if !e.isOperator(caller) {
		return domain.ErrNotOperator
	}
	ev, err := e.eventByID(id)
	if err != nil {
		return err
	}
	for i := uint32(1); i <= ev.NumFights; i++ {
		e.fights[fightKey{id, i}].BoostCutoff = cutoff
	}

	e.emit(domain.Notification{
		Type:    domain.NotifyBoostCutoffSet,
		EventID: id,
		Actor:   caller,
		Detail:  map[string]any{"cutoff": cutoff},
	})
	return nil
}

// SetFightBoostCutoff applies cutoff to a single fight.
func (e *Engine) SetFightBoostCutoff(caller common.Address, id string, fightID uint32, cutoff int64) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	if !e.isOperator(caller) {
		return domain.ErrNotOperator
	}
	f, err := e.fightByID(id, fightID)
	if err != nil {
		return err
	}
	f.BoostCutoff = cutoff

	e.emit(domain.Notification{
		Type:    domain.NotifyBoostCutoffSet,
		EventID: id,
		FightID: fightID,
		Actor:   caller,
		Detail:  map[string]any{"cutoff": cutoff},
	})
	return nil
}
