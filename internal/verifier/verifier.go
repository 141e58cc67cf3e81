// Package verifier recomputes the scoring aggregates an operator submits
// with a fight result. The engine takes sumWinnersStakes and
// winningPoolTotalShares as ground truth and never iterates all boosts of a
// fight; this package is the off-path audit that does.
package verifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FightFi/booster/internal/domain"
	"github.com/FightFi/booster/internal/engine"
)

// Aggregates are the recomputed totals for one resolved fight.
type Aggregates struct {
	SumWinnersStakes       uint64
	WinningPoolTotalShares uint64
	WinningBoosts          int
	TotalBoosts            int
}

// Report compares stored aggregates against recomputed ones.
type Report struct {
	EventID string
	FightID uint32

	Stored   Aggregates
	Computed Aggregates
}

// Clean reports whether the stored aggregates match the recomputed ones.
func (r Report) Clean() bool {
	return r.Stored.SumWinnersStakes == r.Computed.SumWinnersStakes &&
		r.Stored.WinningPoolTotalShares == r.Computed.WinningPoolTotalShares
}

// Verifier audits resolved fights against their boost records.
type Verifier struct {
	fights domain.FightStore
	boosts domain.BoostStore
	logger *slog.Logger
}

func New(fights domain.FightStore, boosts domain.BoostStore, logger *slog.Logger) *Verifier {
	return &Verifier{
		fights: fights,
		boosts: boosts,
		logger: logger.With(slog.String("component", "verifier")),
	}
}

// Compute folds the scoring function over a fight's boosts. Cancelled fights
// have no winners to aggregate over; the zero Aggregates is correct there.
func Compute(f domain.Fight, boosts []domain.Boost) Aggregates {
	agg := Aggregates{TotalBoosts: len(boosts)}
	if f.Cancelled {
		return agg
	}
	for _, b := range boosts {
		points := engine.ScorePrediction(b.PredictedWinner, f.Winner, b.PredictedMethod, f.Method, f.PointsForWinner, f.PointsForWinnerMethod)
		if points == 0 {
			continue
		}
		agg.SumWinnersStakes += b.Amount
		agg.WinningPoolTotalShares += points * b.Amount
		agg.WinningBoosts++
	}
	return agg
}

// VerifyFight recomputes one resolved fight's aggregates from the boost
// store and diffs them against what the operator submitted.
func (v *Verifier) VerifyFight(ctx context.Context, eventID string, fightID uint32) (Report, error) {
	f, err := v.fights.GetByID(ctx, eventID, fightID)
	if err != nil {
		return Report{}, fmt.Errorf("verifier: load fight: %w", err)
	}
	if f.Status != domain.FightStatusResolved {
		return Report{}, domain.ErrNotResolved
	}
	boosts, err := v.boosts.ListByFight(ctx, eventID, fightID)
	if err != nil {
		return Report{}, fmt.Errorf("verifier: load boosts: %w", err)
	}

	report := Report{
		EventID: eventID,
		FightID: fightID,
		Stored: Aggregates{
			SumWinnersStakes:       f.SumWinnersStakes,
			WinningPoolTotalShares: f.WinningPoolTotalShares,
		},
		Computed: Compute(f, boosts),
	}
	if !report.Clean() {
		v.logger.Warn("aggregate mismatch",
			slog.String("event_id", eventID),
			slog.Uint64("fight_id", uint64(fightID)),
			slog.Uint64("stored_sws", report.Stored.SumWinnersStakes),
			slog.Uint64("computed_sws", report.Computed.SumWinnersStakes),
			slog.Uint64("stored_wpts", report.Stored.WinningPoolTotalShares),
			slog.Uint64("computed_wpts", report.Computed.WinningPoolTotalShares))
	}
	return report, nil
}

// VerifyEvent audits every resolved fight of an event. Unresolved fights are
// skipped, not errors.
func (v *Verifier) VerifyEvent(ctx context.Context, eventID string) ([]Report, error) {
	fights, err := v.fights.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("verifier: load fights: %w", err)
	}

	var reports []Report
	for _, f := range fights {
		if f.Status != domain.FightStatusResolved {
			continue
		}
		r, err := v.VerifyFight(ctx, eventID, f.ID)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}
