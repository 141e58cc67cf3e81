package engine

import (
	"testing"

	"github.com/FightFi/booster/internal/domain"
)

func TestScorePrediction_WrongWinnerScoresZero(t *testing.T) {
	got := ScorePrediction(domain.CornerBlue, domain.CornerRed, domain.MethodKnockout, domain.MethodKnockout, 10, 20)
	if got != 0 {
		t.Errorf("expected 0 points for wrong winner, got %d", got)
	}
}

func TestScorePrediction_WinnerOnly(t *testing.T) {
	// Right corner, wrong method -> base points.
	got := ScorePrediction(domain.CornerRed, domain.CornerRed, domain.MethodSubmission, domain.MethodKnockout, 10, 20)
	if got != 10 {
		t.Errorf("expected 10 points for winner-only match, got %d", got)
	}
}

func TestScorePrediction_ExactMatch(t *testing.T) {
	got := ScorePrediction(domain.CornerRed, domain.CornerRed, domain.MethodKnockout, domain.MethodKnockout, 10, 20)
	if got != 20 {
		t.Errorf("expected 20 points for exact match, got %d", got)
	}
}

func TestPayout_ProportionalSplit(t *testing.T) {
	f := &domain.Fight{
		Status:                 domain.FightStatusResolved,
		Winner:                 domain.CornerRed,
		Method:                 domain.MethodKnockout,
		OriginalPool:           600,
		SumWinnersStakes:       300,
		WinningPoolTotalShares: 4000,
		PointsForWinner:        10,
		PointsForWinnerMethod:  20,
	}

	exact := &domain.Boost{Amount: 100, PredictedWinner: domain.CornerRed, PredictedMethod: domain.MethodKnockout}
	got, err := payout(f, exact)
	if err != nil {
		t.Fatalf("payout failed: %v", err)
	}
	// prize = 600-300 = 300; shares = 20*100 = 2000; 300*2000/4000 = 150.
	if got != 250 {
		t.Errorf("expected 250 for exact match, got %d", got)
	}

	winnerOnly := &domain.Boost{Amount: 200, PredictedWinner: domain.CornerRed, PredictedMethod: domain.MethodSubmission}
	got, err = payout(f, winnerOnly)
	if err != nil {
		t.Fatalf("payout failed: %v", err)
	}
	// shares = 10*200 = 2000; 300*2000/4000 = 150.
	if got != 350 {
		t.Errorf("expected 350 for winner-only match, got %d", got)
	}

	loser := &domain.Boost{Amount: 300, PredictedWinner: domain.CornerBlue, PredictedMethod: domain.MethodKnockout}
	if _, err := payout(f, loser); err != domain.ErrBoostDidNotWin {
		t.Errorf("expected ErrBoostDidNotWin for loser, got %v", err)
	}
}

func TestPayout_TruncationFloorsToStake(t *testing.T) {
	// Tiny prize pool: every computed share floors to zero, so each winner
	// gets exactly its stake back and the remainder stays in the pool.
	f := &domain.Fight{
		Status:                 domain.FightStatusResolved,
		Winner:                 domain.CornerRed,
		Method:                 domain.MethodKnockout,
		OriginalPool:           5,
		BonusPool:              1,
		SumWinnersStakes:       5,
		WinningPoolTotalShares: 20,
		PointsForWinner:        2,
		PointsForWinnerMethod:  4,
	}
	b := &domain.Boost{Amount: 1, PredictedWinner: domain.CornerRed, PredictedMethod: domain.MethodKnockout}
	got, err := payout(f, b)
	if err != nil {
		t.Fatalf("payout failed: %v", err)
	}
	// prize = 5-5+1 = 1; shares = 4; 1*4/20 = 0.
	if got != 1 {
		t.Errorf("expected stake-only payout 1, got %d", got)
	}
}

func TestPayout_CancelledRefundsStake(t *testing.T) {
	f := &domain.Fight{Status: domain.FightStatusOpen, Cancelled: true}
	b := &domain.Boost{Amount: 123, PredictedWinner: domain.CornerBlue, PredictedMethod: domain.MethodDecision}
	got, err := payout(f, b)
	if err != nil {
		t.Fatalf("payout failed: %v", err)
	}
	if got != 123 {
		t.Errorf("expected flat refund 123, got %d", got)
	}
}

func TestPayout_LargePoolsNoOverflow(t *testing.T) {
	// prizePool * shares exceeds uint64; the big.Int path must still floor
	// to the exact quotient.
	f := &domain.Fight{
		Status:                 domain.FightStatusResolved,
		Winner:                 domain.CornerRed,
		Method:                 domain.MethodKnockout,
		OriginalPool:           1 << 62,
		SumWinnersStakes:       1 << 61,
		WinningPoolTotalShares: 1 << 40,
		PointsForWinner:        100,
		PointsForWinnerMethod:  200,
	}
	b := &domain.Boost{Amount: 1 << 20, PredictedWinner: domain.CornerRed, PredictedMethod: domain.MethodKnockout}
	got, err := payout(f, b)
	if err != nil {
		t.Fatalf("payout failed: %v", err)
	}
	// prize = 2^61; shares = 200*2^20; bonus = 2^61*200*2^20 / 2^40 = 200*2^41.
	want := uint64(1<<20) + 200*(1<<41)
	if got != want {
		t.Errorf("expected %d, got %d", want, got)
	}
}

func TestValidateResult(t *testing.T) {
	f := &domain.Fight{OriginalPool: 1000}

	cases := []struct {
		name string
		r    domain.FightResult
		want error
	}{
		{
			name: "zero winner points",
			r:    domain.FightResult{Winner: domain.CornerRed, Method: domain.MethodKnockout, PointsForWinner: 0, PointsForWinnerMethod: 0, WinningPoolTotalShares: 1},
			want: domain.ErrInvalidPoints,
		},
		{
			name: "method points below winner points",
			r:    domain.FightResult{Winner: domain.CornerRed, Method: domain.MethodKnockout, PointsForWinner: 10, PointsForWinnerMethod: 5, WinningPoolTotalShares: 1},
			want: domain.ErrInvalidPoints,
		},
		{
			name: "none winner requires no contest",
			r:    domain.FightResult{Winner: domain.CornerNone, Method: domain.MethodDecision, PointsForWinner: 1, PointsForWinnerMethod: 1},
			want: domain.ErrInvalidOutcome,
		},
		{
			name: "decided winner cannot be no contest",
			r:    domain.FightResult{Winner: domain.CornerBlue, Method: domain.MethodNoContest, PointsForWinner: 1, PointsForWinnerMethod: 1, WinningPoolTotalShares: 1},
			want: domain.ErrInvalidOutcome,
		},
		{
			name: "winners stakes exceed pool",
			r:    domain.FightResult{Winner: domain.CornerRed, Method: domain.MethodKnockout, PointsForWinner: 1, PointsForWinnerMethod: 1, SumWinnersStakes: 2000, WinningPoolTotalShares: 1},
			want: domain.ErrInvalidArgument,
		},
		{
			name: "decided winner needs nonzero shares",
			r:    domain.FightResult{Winner: domain.CornerRed, Method: domain.MethodKnockout, PointsForWinner: 1, PointsForWinnerMethod: 1, WinningPoolTotalShares: 0},
			want: domain.ErrInvalidArgument,
		},
		{
			name: "valid no contest",
			r:    domain.FightResult{Winner: domain.CornerNone, Method: domain.MethodNoContest, PointsForWinner: 1, PointsForWinnerMethod: 1},
			want: nil,
		},
	}

	for _, tc := range cases {
		if got := validateResult(f, tc.r); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
