package engine

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/FightFi/booster/internal/domain"
)

// settledBoost records one boost's computed payout during claim validation,
// before any flag is flipped.
type settledBoost struct {
	fight  *domain.Fight
	boost  *domain.Boost
	amount uint64
}

// validateFightClaim runs the full per-fight precondition ladder and computes
// the payout of every listed index without mutating anything. Order matters:
// existence, claim gate, resolution, deadline, then per-index ownership,
// idempotency, and winnability.
func (e *Engine) validateFightClaim(caller common.Address, ev *domain.Event, fightID uint32, indices []uint32, now int64) ([]settledBoost, error) {
	f, err := e.fightByID(ev.ID, fightID)
	if err != nil {
		return nil, err
	}
	if !ev.ClaimReady {
		return nil, domain.ErrEventNotClaimReady
	}
	if !f.Payable() {
		return nil, domain.ErrNotResolved
	}
	if ev.DeadlinePassed(now) {
		return nil, domain.ErrDeadlinePassed
	}
	if len(indices) == 0 {
		return nil, domain.ErrNothingToClaim
	}

	list := e.boosts[boostKey{ev.ID, fightID, caller}]
	seen := make(map[uint32]struct{}, len(indices))
	settled := make([]settledBoost, 0, len(indices))
	for _, idx := range indices {
		if int(idx) >= len(list) {
			return nil, domain.ErrNotOwner
		}
		if _, dup := seen[idx]; dup {
			return nil, domain.ErrAlreadyClaimed
		}
		seen[idx] = struct{}{}

		b := list[idx]
		if b.Claimed {
			return nil, domain.ErrAlreadyClaimed
		}
		amount, err := payout(f, b)
		if err != nil {
			return nil, err
		}
		settled = append(settled, settledBoost{fight: f, boost: b, amount: amount})
	}
	return settled, nil
}

// ClaimReward settles the listed boost indices of one fight for the caller
// and transfers the summed payout. Effects are atomic: either every listed
// boost is marked claimed and paid, or none are.
func (e *Engine) ClaimReward(ctx context.Context, caller common.Address, eventID string, fightID uint32, indices []uint32) (uint64, error) {
	return e.claim(ctx, caller, eventID, []domain.FightClaim{{FightID: fightID, Indices: indices}})
}

// ClaimRewards settles boosts across multiple fights of one event in a
// single call. Any sub-claim that would fail aborts the whole call, which is
// why callers must pre-filter: a fight with zero eligible winnings has to be
// excluded from the batch, not included with an empty result.
func (e *Engine) ClaimRewards(ctx context.Context, caller common.Address, eventID string, claims []domain.FightClaim) (uint64, error) {
	return e.claim(ctx, caller, eventID, claims)
}

func (e *Engine) claim(ctx context.Context, caller common.Address, eventID string, claims []domain.FightClaim) (uint64, error) {
	if err := e.lock(); err != nil {
		return 0, err
	}
	defer e.mu.Unlock()

	if len(claims) == 0 {
		return 0, domain.ErrInvalidArgument
	}
	ev, err := e.eventByID(eventID)
	if err != nil {
		return 0, err
	}

	now := e.now()
	var settled []settledBoost
	var total uint64
	for _, c := range claims {
		s, err := e.validateFightClaim(caller, ev, c.FightID, c.Indices, now)
		if err != nil {
			return 0, err
		}
		for _, sb := range s {
			total += sb.amount
		}
		settled = append(settled, s...)
	}
	// total is positive here: empty index sets surface ErrNothingToClaim,
	// losing indices abort with ErrBoostDidNotWin, and every settleable
	// boost pays at least its own stake back.

	// Commit the claim, then move value. A failed disbursement rolls the
	// commit back so the boosts stay claimable.
	for _, sb := range settled {
		sb.boost.Claimed = true
		sb.fight.ClaimedAmount += sb.amount
	}
	if err := e.transfer(ctx, e.cfg.Account, caller, ev.SeasonID, total); err != nil {
		for _, sb := range settled {
			sb.boost.Claimed = false
			sb.fight.ClaimedAmount -= sb.amount
		}
		return 0, fmt.Errorf("engine: disburse claim: %w", err)
	}

	for _, sb := range settled {
		e.emit(domain.Notification{
			Type:    domain.NotifyRewardClaimed,
			EventID: eventID,
			FightID: sb.fight.ID,
			Actor:   caller,
			Amount:  sb.amount,
			Detail:  map[string]any{"index": sb.boost.Index},
		})
	}
	return total, nil
}

// PurgeEvent sweeps every fight's unclaimed remainder to recipient once the
// event's claim deadline has been set and passed. Swept value accumulates in
// each fight's PurgedAmount, so a repeated purge with no further claims
// sweeps zero.
func (e *Engine) PurgeEvent(ctx context.Context, caller common.Address, eventID string, recipient common.Address) (uint64, error) {
	if err := e.lock(); err != nil {
		return 0, err
	}
	defer e.mu.Unlock()

	if !e.isOperator(caller) {
		return 0, domain.ErrNotOperator
	}
	ev, err := e.eventByID(eventID)
	if err != nil {
		return 0, err
	}
	if !ev.DeadlinePassed(e.now()) {
		return 0, domain.ErrDeadlineNotPassed
	}

	var total uint64
	swept := make(map[uint32]uint64, ev.NumFights)
	for i := uint32(1); i <= ev.NumFights; i++ {
		f := e.fights[fightKey{eventID, i}]
		if u := f.Unclaimed(); u > 0 {
			swept[i] = u
			total += u
		}
	}
	if total == 0 {
		return 0, nil
	}

	for i, u := range swept {
		e.fights[fightKey{eventID, i}].PurgedAmount += u
	}
	if err := e.transfer(ctx, e.cfg.Account, recipient, ev.SeasonID, total); err != nil {
		for i, u := range swept {
			e.fights[fightKey{eventID, i}].PurgedAmount -= u
		}
		return 0, fmt.Errorf("engine: sweep: %w", err)
	}

	e.emit(domain.Notification{
		Type:    domain.NotifyEventPurged,
		EventID: eventID,
		Actor:   caller,
		Amount:  total,
		Detail:  map[string]any{"recipient": recipient.Hex()},
	})
	return total, nil
}

// QuoteClaimable recomputes, without mutating state, the sum a user could
// claim across their unclaimed boosts on one fight. Losing boosts contribute
// zero rather than failing, which lets clients pre-filter claim batches.
func (e *Engine) QuoteClaimable(eventID string, fightID uint32, owner common.Address) (uint64, error) {
	if err := e.lock(); err != nil {
		return 0, err
	}
	defer e.mu.Unlock()

	if _, err := e.eventByID(eventID); err != nil {
		return 0, err
	}
	f, err := e.fightByID(eventID, fightID)
	if err != nil {
		return 0, err
	}
	if !f.Payable() {
		return 0, nil
	}

	var total uint64
	for _, b := range e.boosts[boostKey{eventID, fightID, owner}] {
		if b.Claimed {
			continue
		}
		amount, err := payout(f, b)
		if err != nil {
			continue
		}
		total += amount
	}
	return total, nil
}
