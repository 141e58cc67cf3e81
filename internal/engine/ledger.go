package engine

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/FightFi/booster/internal/domain"
)

// validateBoostOrder re-checks every stake precondition for one order. It is
// called per order inside PlaceBoosts and again (amount-only) by AddToBoost.
func (e *Engine) validateBoostOrder(eventID string, ord domain.BoostOrder, now int64) (*domain.Fight, error) {
	f, err := e.fightByID(eventID, ord.FightID)
	if err != nil {
		return nil, err
	}
	// A cancelled fight keeps its status, so staking must check the flag too.
	if f.Status != domain.FightStatusOpen || f.Cancelled {
		return nil, domain.ErrFightNotOpen
	}
	if f.BoostCutoff != 0 && now > f.BoostCutoff {
		return nil, domain.ErrCutoffPassed
	}
	if err := e.validateStake(ord.Amount); err != nil {
		return nil, err
	}
	if !ord.PredictedWinner.Decided() {
		return nil, domain.ErrInvalidOutcome
	}
	if !ord.PredictedMethod.Decisive() {
		return nil, domain.ErrInvalidOutcome
	}
	return f, nil
}

func (e *Engine) validateStake(amount uint64) error {
	if amount == 0 {
		return domain.ErrInvalidArgument
	}
	if amount < e.cfg.MinStake {
		return domain.ErrBelowMinimum
	}
	if e.cfg.MaxStake != 0 && amount > e.cfg.MaxStake {
		return domain.ErrExceedsMaximum
	}
	return nil
}

// PlaceBoosts stakes the caller against one or more fights of an event in a
// single atomic call. Every order is validated before any value moves; the
// total is then pulled from the caller in one transfer and the boosts are
// appended. A failed transfer leaves no state change.
func (e *Engine) PlaceBoosts(ctx context.Context, caller common.Address, eventID string, orders []domain.BoostOrder) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	if len(orders) == 0 {
		return domain.ErrInvalidArgument
	}
	ev, err := e.eventByID(eventID)
	if err != nil {
		return err
	}

	now := e.now()
	var total uint64
	for _, ord := range orders {
		if _, err := e.validateBoostOrder(eventID, ord, now); err != nil {
			return err
		}
		total += ord.Amount
	}

	// Collect the stake before recording it: a failed pull aborts with no
	// pool or boost mutation.
	if err := e.transfer(ctx, caller, e.cfg.Account, ev.SeasonID, total); err != nil {
		return fmt.Errorf("engine: collect stake: %w", err)
	}

	for _, ord := range orders {
		f := e.fights[fightKey{eventID, ord.FightID}]
		f.OriginalPool += ord.Amount

		key := boostKey{eventID, ord.FightID, caller}
		b := &domain.Boost{
			EventID:         eventID,
			FightID:         ord.FightID,
			Owner:           caller,
			Index:           uint32(len(e.boosts[key])),
			Amount:          ord.Amount,
			PredictedWinner: ord.PredictedWinner,
			PredictedMethod: ord.PredictedMethod,
			PlacedAt:        now,
		}
		e.boosts[key] = append(e.boosts[key], b)

		e.emit(domain.Notification{
			Type:    domain.NotifyBoostPlaced,
			EventID: eventID,
			FightID: ord.FightID,
			Actor:   caller,
			Amount:  ord.Amount,
			Detail: map[string]any{
				"index":            b.Index,
				"predicted_winner": b.PredictedWinner,
				"predicted_method": b.PredictedMethod,
			},
		})
	}
	return nil
}

// AddToBoost increases the stake of an existing boost in place. The fight
// must still be open, not cancelled, and inside its cutoff; the target boost
// must be unclaimed; and the increment is subject to the same minimum as a
// fresh stake.
func (e *Engine) AddToBoost(ctx context.Context, caller common.Address, eventID string, fightID uint32, index uint32, amount uint64) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	ev, err := e.eventByID(eventID)
	if err != nil {
		return err
	}
	f, err := e.fightByID(eventID, fightID)
	if err != nil {
		return err
	}
	if f.Status != domain.FightStatusOpen || f.Cancelled {
		return domain.ErrFightNotOpen
	}
	if f.BoostCutoff != 0 && e.now() > f.BoostCutoff {
		return domain.ErrCutoffPassed
	}
	if err := e.validateStake(amount); err != nil {
		return err
	}

	list := e.boosts[boostKey{eventID, fightID, caller}]
	if int(index) >= len(list) {
		return domain.ErrNotOwner
	}
	b := list[index]
	if b.Claimed {
		return domain.ErrAlreadyClaimed
	}

	if err := e.transfer(ctx, caller, e.cfg.Account, ev.SeasonID, amount); err != nil {
		return fmt.Errorf("engine: collect stake: %w", err)
	}

	b.Amount += amount
	f.OriginalPool += amount

	e.emit(domain.Notification{
		Type:    domain.NotifyBoostIncreased,
		EventID: eventID,
		FightID: fightID,
		Actor:   caller,
		Amount:  amount,
		Detail:  map[string]any{"index": index, "new_amount": b.Amount},
	})
	return nil
}

// DepositBonus tops up the fight's bonus pool from the operator's balance.
// A resolved fight refuses deposits unless force is set; force exists solely
// for result-correction workflows where additional funds must be injected
// after an erroneous resolution.
func (e *Engine) DepositBonus(ctx context.Context, caller common.Address, eventID string, fightID uint32, amount uint64, force bool) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	if !e.isOperator(caller) {
		return domain.ErrNotOperator
	}
	ev, err := e.eventByID(eventID)
	if err != nil {
		return err
	}
	f, err := e.fightByID(eventID, fightID)
	if err != nil {
		return err
	}
	if amount == 0 {
		return domain.ErrInvalidArgument
	}
	if f.Status == domain.FightStatusResolved && !force {
		return domain.ErrFightResolved
	}

	if err := e.transfer(ctx, caller, e.cfg.Account, ev.SeasonID, amount); err != nil {
		return fmt.Errorf("engine: collect bonus: %w", err)
	}
	f.BonusPool += amount

	e.emit(domain.Notification{
		Type:    domain.NotifyBonusDeposited,
		EventID: eventID,
		FightID: fightID,
		Actor:   caller,
		Amount:  amount,
		Detail:  map[string]any{"force": force, "bonus_pool": f.BonusPool},
	})
	return nil
}

// UpdateFightStatus advances a fight's lifecycle. Transitions are
// forward-only and a resolved fight is terminal.
func (e *Engine) UpdateFightStatus(caller common.Address, eventID string, fightID uint32, status domain.FightStatus) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	if !e.isOperator(caller) {
		return domain.ErrNotOperator
	}
	f, err := e.fightByID(eventID, fightID)
	if err != nil {
		return err
	}
	if !status.Valid() {
		return domain.ErrInvalidArgument
	}
	if f.Status == domain.FightStatusResolved {
		return domain.ErrAlreadyResolved
	}
	if !status.After(f.Status) {
		return domain.ErrInvalidStatusTransition
	}
	f.Status = status

	e.emit(domain.Notification{
		Type:    domain.NotifyStatusUpdated,
		EventID: eventID,
		FightID: fightID,
		Actor:   caller,
		Detail:  map[string]any{"status": status},
	})
	return nil
}

// CancelFight flags the fight as cancelled, switching every future claim on
// it to a flat refund of the boost's own stake. Status is unaffected.
func (e *Engine) CancelFight(caller common.Address, eventID string, fightID uint32) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	if !e.isOperator(caller) {
		return domain.ErrNotOperator
	}
	f, err := e.fightByID(eventID, fightID)
	if err != nil {
		return err
	}
	if f.Status == domain.FightStatusResolved {
		return domain.ErrAlreadyResolved
	}
	f.Cancelled = true

	e.emit(domain.Notification{
		Type:    domain.NotifyFightCancelled,
		EventID: eventID,
		FightID: fightID,
		Actor:   caller,
	})
	return nil
}
