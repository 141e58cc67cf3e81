package engine

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/FightFi/booster/internal/domain"
)

// ScorePrediction is the only scoring logic the engine evaluates. It runs at
// claim time per individual boost, never aggregated over all boosts of a
// fight: the aggregate totals are declared by the operator at resolution.
//
// A wrong winner scores zero. A right winner scores pointsForWinner, or
// pointsForWinnerMethod when the method also matches exactly.
func ScorePrediction(predictedWinner, actualWinner domain.Corner, predictedMethod, actualMethod domain.Method, pointsForWinner, pointsForWinnerMethod uint64) uint64 {
	if predictedWinner != actualWinner {
		return 0
	}
	if predictedMethod == actualMethod {
		return pointsForWinnerMethod
	}
	return pointsForWinner
}

// payout computes the claim value of a single boost against a payable fight.
// For a cancelled fight every boost refunds exactly its own stake. Otherwise
// shares = points * stake, and the boost receives its stake back plus
// floor(prizePool * shares / winningPoolTotalShares). Division truncates
// toward zero; the truncation remainder across a fight is never distributed
// and stays claimable only through the post-deadline sweep.
func payout(f *domain.Fight, b *domain.Boost) (uint64, error) {
	if f.Cancelled {
		return b.Amount, nil
	}
	points := ScorePrediction(b.PredictedWinner, f.Winner, b.PredictedMethod, f.Method, f.PointsForWinner, f.PointsForWinnerMethod)
	if points == 0 {
		return 0, domain.ErrBoostDidNotWin
	}

	shares := new(big.Int).Mul(
		new(big.Int).SetUint64(points),
		new(big.Int).SetUint64(b.Amount),
	)
	win := new(big.Int).Mul(new(big.Int).SetUint64(f.PrizePool()), shares)
	win.Div(win, new(big.Int).SetUint64(f.WinningPoolTotalShares))

	return b.Amount + win.Uint64(), nil
}

// validateResult checks an operator-submitted result against the fight it
// resolves. It performs no verification of the aggregates beyond what keeps
// the unsigned arithmetic total; the values themselves are trusted input.
func validateResult(f *domain.Fight, r domain.FightResult) error {
	if !r.Winner.Valid() || !r.Method.Valid() {
		return domain.ErrInvalidOutcome
	}
	if r.Winner == domain.CornerNone && r.Method != domain.MethodNoContest {
		return domain.ErrInvalidOutcome
	}
	if r.Winner.Decided() && r.Method == domain.MethodNoContest {
		return domain.ErrInvalidOutcome
	}
	if r.PointsForWinner == 0 {
		return domain.ErrInvalidPoints
	}
	if r.PointsForWinnerMethod < r.PointsForWinner {
		return domain.ErrInvalidPoints
	}
	if r.SumWinnersStakes > f.OriginalPool {
		return domain.ErrInvalidArgument
	}
	if r.Winner.Decided() && r.WinningPoolTotalShares == 0 {
		return domain.ErrInvalidArgument
	}
	return nil
}

// applyResult overwrites the fight's outcome fields and marks it resolved.
// A no-contest outcome additionally flags the fight cancelled, switching all
// claims to flat refunds.
func applyResult(f *domain.Fight, r domain.FightResult) {
	f.Status = domain.FightStatusResolved
	f.Winner = r.Winner
	f.Method = r.Method
	f.PointsForWinner = r.PointsForWinner
	f.PointsForWinnerMethod = r.PointsForWinnerMethod
	f.SumWinnersStakes = r.SumWinnersStakes
	f.WinningPoolTotalShares = r.WinningPoolTotalShares
	if r.Winner == domain.CornerNone && r.Method == domain.MethodNoContest {
		f.Cancelled = true
	}
}

// SubmitFightResult stores the outcome and scoring aggregates for one fight
// and marks it resolved. It may be called again as a full overwrite for as
// long as the parent event's claim-ready gate is down; once the gate is up
// the outcome is immutable.
func (e *Engine) SubmitFightResult(caller common.Address, eventID string, r domain.FightResult) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	return e.submitResultLocked(caller, eventID, r)
}

// SubmitFightResults applies a batch of results atomically: every result is
// validated before any fight is touched, so a bad entry aborts the batch
// with no partial resolution.
func (e *Engine) SubmitFightResults(caller common.Address, eventID string, results []domain.FightResult) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	if len(results) == 0 {
		return domain.ErrInvalidArgument
	}
	if !e.isOperator(caller) {
		return domain.ErrNotOperator
	}
	ev, err := e.eventByID(eventID)
	if err != nil {
		return err
	}
	if ev.ClaimReady {
		return domain.ErrEventClaimReady
	}

	fights := make([]*domain.Fight, len(results))
	for i, r := range results {
		f, err := e.fightByID(eventID, r.FightID)
		if err != nil {
			return err
		}
		if err := validateResult(f, r); err != nil {
			return err
		}
		fights[i] = f
	}
	for i, r := range results {
		applyResult(fights[i], r)
		e.emitResult(caller, eventID, r)
	}
	return nil
}

func (e *Engine) submitResultLocked(caller common.Address, eventID string, r domain.FightResult) error {
	if !e.isOperator(caller) {
		return domain.ErrNotOperator
	}
	ev, err := e.eventByID(eventID)
	if err != nil {
		return err
	}
	if ev.ClaimReady {
		return domain.ErrEventClaimReady
	}
	f, err := e.fightByID(eventID, r.FightID)
	if err != nil {
		return err
	}
	if err := validateResult(f, r); err != nil {
		return err
	}
	applyResult(f, r)
	e.emitResult(caller, eventID, r)
	return nil
}

func (e *Engine) emitResult(caller common.Address, eventID string, r domain.FightResult) {
	e.emit(domain.Notification{
		Type:    domain.NotifyResultSubmitted,
		EventID: eventID,
		FightID: r.FightID,
		Actor:   caller,
		Detail: map[string]any{
			"winner":                    r.Winner,
			"method":                    r.Method,
			"points_for_winner":         r.PointsForWinner,
			"points_for_winner_method":  r.PointsForWinnerMethod,
			"sum_winners_stakes":        r.SumWinnersStakes,
			"winning_pool_total_shares": r.WinningPoolTotalShares,
		},
	})
}
