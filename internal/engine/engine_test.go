package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/FightFi/booster/internal/domain"
	"github.com/FightFi/booster/internal/token"
)

var (
	engineAcct = common.HexToAddress("0x00000000000000000000000000000000000000EE")
	operator   = common.HexToAddress("0x0000000000000000000000000000000000000001")
	treasury   = common.HexToAddress("0x00000000000000000000000000000000000000FF")
	alice      = common.HexToAddress("0x00000000000000000000000000000000000000A1")
	bob        = common.HexToAddress("0x00000000000000000000000000000000000000B2")
	carol      = common.HexToAddress("0x00000000000000000000000000000000000000C3")
)

const testSeason = uint64(7)

// fixture wires an engine against the in-process ledger with a controllable
// clock. Bettors and the operator start with 1,000,000 units each.
type fixture struct {
	eng    *Engine
	ledger *token.Ledger
	now    int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	fx := &fixture{now: 1_700_000_000}
	fx.ledger = token.NewLedger()
	fx.ledger.OpenSeason(testSeason)
	fx.ledger.GrantAgent(engineAcct)
	for _, addr := range []common.Address{operator, alice, bob, carol} {
		fx.ledger.Mint(addr, testSeason, 1_000_000)
	}

	fx.eng = New(Config{
		Account:           engineAcct,
		MinStake:          1,
		MaxFightsPerEvent: 50,
		Clock:             func() int64 { return fx.now },
	}, fx.ledger.Bind(engineAcct), operator)

	return fx
}

func (fx *fixture) createEvent(t *testing.T, id string, fights uint32) {
	t.Helper()
	if err := fx.eng.CreateEvent(operator, id, fights, testSeason, 0); err != nil {
		t.Fatalf("CreateEvent(%s) failed: %v", id, err)
	}
}

func (fx *fixture) place(t *testing.T, who common.Address, event string, fight uint32, amount uint64, winner domain.Corner, method domain.Method) {
	t.Helper()
	err := fx.eng.PlaceBoosts(context.Background(), who, event, []domain.BoostOrder{
		{FightID: fight, Amount: amount, PredictedWinner: winner, PredictedMethod: method},
	})
	if err != nil {
		t.Fatalf("PlaceBoosts failed: %v", err)
	}
}

func (fx *fixture) resolve(t *testing.T, event string, r domain.FightResult) {
	t.Helper()
	if err := fx.eng.SubmitFightResult(operator, event, r); err != nil {
		t.Fatalf("SubmitFightResult failed: %v", err)
	}
}

func (fx *fixture) claimReady(t *testing.T, event string) {
	t.Helper()
	if err := fx.eng.SetClaimReady(operator, event, true); err != nil {
		t.Fatalf("SetClaimReady failed: %v", err)
	}
}

func (fx *fixture) balance(addr common.Address) uint64 {
	return fx.ledger.Balance(addr, testSeason)
}

func TestCreateEvent(t *testing.T) {
	fx := newFixture(t)
	fx.createEvent(t, "ufc-300", 3)

	ev, err := fx.eng.GetEvent("ufc-300")
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if ev.NumFights != 3 || ev.SeasonID != testSeason {
		t.Errorf("unexpected event: %+v", ev)
	}

	for i := uint32(1); i <= 3; i++ {
		f, err := fx.eng.GetFight("ufc-300", i)
		if err != nil {
			t.Fatalf("GetFight(%d) failed: %v", i, err)
		}
		if f.Status != domain.FightStatusOpen {
			t.Errorf("fight %d: expected open, got %s", i, f.Status)
		}
	}

	if err := fx.eng.CreateEvent(operator, "ufc-300", 3, testSeason, 0); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("duplicate create: expected ErrAlreadyExists, got %v", err)
	}
	if err := fx.eng.CreateEvent(operator, "empty", 0, testSeason, 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("zero fights: expected ErrInvalidArgument, got %v", err)
	}
	if err := fx.eng.CreateEvent(operator, "big", 51, testSeason, 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("over cap: expected ErrInvalidArgument, got %v", err)
	}
	if err := fx.eng.CreateEvent(alice, "nope", 1, testSeason, 0); !errors.Is(err, domain.ErrNotOperator) {
		t.Errorf("non-operator create: expected ErrNotOperator, got %v", err)
	}
}

func TestOperatorManagement(t *testing.T) {
	fx := newFixture(t)

	if err := fx.eng.AddOperator(alice, bob); !errors.Is(err, domain.ErrNotOperator) {
		t.Errorf("non-admin AddOperator: expected ErrNotOperator, got %v", err)
	}
	if err := fx.eng.AddOperator(operator, bob); err != nil {
		t.Fatalf("AddOperator failed: %v", err)
	}
	if err := fx.eng.CreateEvent(bob, "by-bob", 1, testSeason, 0); err != nil {
		t.Errorf("new operator create failed: %v", err)
	}
	if err := fx.eng.RemoveOperator(operator, bob); err != nil {
		t.Fatalf("RemoveOperator failed: %v", err)
	}
	if err := fx.eng.CreateEvent(bob, "by-bob-2", 1, testSeason, 0); !errors.Is(err, domain.ErrNotOperator) {
		t.Errorf("revoked operator create: expected ErrNotOperator, got %v", err)
	}
}

func TestPlaceBoosts(t *testing.T) {
	fx := newFixture(t)
	fx.createEvent(t, "evt", 2)

	fx.place(t, alice, "evt", 1, 100, domain.CornerRed, domain.MethodKnockout)

	if got := fx.balance(alice); got != 999_900 {
		t.Errorf("alice balance: expected 999900, got %d", got)
	}
	if got := fx.balance(engineAcct); got != 100 {
		t.Errorf("engine balance: expected 100, got %d", got)
	}

	f, _ := fx.eng.GetFight("evt", 1)
	if f.OriginalPool != 100 {
		t.Errorf("original pool: expected 100, got %d", f.OriginalPool)
	}

	boosts, err := fx.eng.GetUserBoosts("evt", 1, alice)
	if err != nil {
		t.Fatalf("GetUserBoosts failed: %v", err)
	}
	if len(boosts) != 1 || boosts[0].Index != 0 || boosts[0].Amount != 100 {
		t.Errorf("unexpected boosts: %+v", boosts)
	}

	ctx := context.Background()
	err = fx.eng.PlaceBoosts(ctx, alice, "evt", []domain.BoostOrder{
		{FightID: 9, Amount: 100, PredictedWinner: domain.CornerRed, PredictedMethod: domain.MethodKnockout},
	})
	if !errors.Is(err, domain.ErrUnknownFight) {
		t.Errorf("unknown fight: expected ErrUnknownFight, got %v", err)
	}
	err = fx.eng.PlaceBoosts(ctx, alice, "missing", []domain.BoostOrder{
		{FightID: 1, Amount: 100, PredictedWinner: domain.CornerRed, PredictedMethod: domain.MethodKnockout},
	})
	if !errors.Is(err, domain.ErrUnknownEvent) {
		t.Errorf("unknown event: expected ErrUnknownEvent, got %v", err)
	}
	err = fx.eng.PlaceBoosts(ctx, alice, "evt", nil)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("empty batch: expected ErrInvalidArgument, got %v", err)
	}
	err = fx.eng.PlaceBoosts(ctx, alice, "evt", []domain.BoostOrder{
		{FightID: 1, Amount: 100, PredictedWinner: domain.CornerNone, PredictedMethod: domain.MethodKnockout},
	})
	if !errors.Is(err, domain.ErrInvalidOutcome) {
		t.Errorf("none prediction: expected ErrInvalidOutcome, got %v", err)
	}
}

func TestPlaceBoosts_BatchIsAtomic(t *testing.T) {
	fx := newFixture(t)
	fx.createEvent(t, "evt", 2)

	// Second order is invalid; the first must not take effect.
	err := fx.eng.PlaceBoosts(context.Background(), alice, "evt", []domain.BoostOrder{
		{FightID: 1, Amount: 100, PredictedWinner: domain.CornerRed, PredictedMethod: domain.MethodKnockout},
		{FightID: 2, Amount: 0, PredictedWinner: domain.CornerRed, PredictedMethod: domain.MethodKnockout},
	})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	f, _ := fx.eng.GetFight("evt", 1)
	if f.OriginalPool != 0 {
		t.Errorf("pool mutated by aborted batch: %d", f.OriginalPool)
	}
	if got := fx.balance(alice); got != 1_000_000 {
		t.Errorf("alice balance changed by aborted batch: %d", got)
	}
}

func TestStakeLimits(t *testing.T) {
	fx := newFixture(t)
	fx.eng.cfg.MinStake = 50
	fx.eng.cfg.MaxStake = 500
	fx.createEvent(t, "evt", 1)
	ctx := context.Background()

	err := fx.eng.PlaceBoosts(ctx, alice, "evt", []domain.BoostOrder{
		{FightID: 1, Amount: 49, PredictedWinner: domain.CornerRed, PredictedMethod: domain.MethodKnockout},
	})
	if !errors.Is(err, domain.ErrBelowMinimum) {
		t.Errorf("expected ErrBelowMinimum, got %v", err)
	}
	err = fx.eng.PlaceBoosts(ctx, alice, "evt", []domain.BoostOrder{
		{FightID: 1, Amount: 501, PredictedWinner: domain.CornerRed, PredictedMethod: domain.MethodKnockout},
	})
	if !errors.Is(err, domain.ErrExceedsMaximum) {
		t.Errorf("expected ErrExceedsMaximum, got %v", err)
	}
}

func TestBoostCutoff(t *testing.T) {
	fx := newFixture(t)
	fx.createEvent(t, "evt", 1)
	cutoff := fx.now + 100
	if err := fx.eng.SetFightBoostCutoff(operator, "evt", 1, cutoff); err != nil {
		t.Fatalf("SetFightBoostCutoff failed: %v", err)
	}

	fx.place(t, alice, "evt", 1, 100, domain.CornerRed, domain.MethodKnockout)

	fx.now = cutoff + 1
	err := fx.eng.PlaceBoosts(context.Background(), alice, "evt", []domain.BoostOrder{
		{FightID: 1, Amount: 100, PredictedWinner: domain.CornerRed, PredictedMethod: domain.MethodKnockout},
	})
	if !errors.Is(err, domain.ErrCutoffPassed) {
		t.Errorf("expected ErrCutoffPassed, got %v", err)
	}
	if err := fx.eng.AddToBoost(context.Background(), alice, "evt", 1, 0, 50); !errors.Is(err, domain.ErrCutoffPassed) {
		t.Errorf("add after cutoff: expected ErrCutoffPassed, got %v", err)
	}
}

func TestAddToBoost(t *testing.T) {
	fx := newFixture(t)
	fx.createEvent(t, "evt", 1)
	fx.place(t, alice, "evt", 1, 100, domain.CornerRed, domain.MethodKnockout)

	if err := fx.eng.AddToBoost(context.Background(), alice, "evt", 1, 0, 150); err != nil {
		t.Fatalf("AddToBoost failed: %v", err)
	}
	boosts, _ := fx.eng.GetUserBoosts("evt", 1, alice)
	if len(boosts) != 1 {
		t.Fatalf("expected amount mutation in place, got %d boosts", len(boosts))
	}
	if boosts[0].Amount != 250 {
		t.Errorf("expected amount 250, got %d", boosts[0].Amount)
	}
	f, _ := fx.eng.GetFight("evt", 1)
	if f.OriginalPool != 250 {
		t.Errorf("expected pool 250, got %d", f.OriginalPool)
	}

	// Index the caller does not hold.
	if err := fx.eng.AddToBoost(context.Background(), bob, "evt", 1, 0, 50); !errors.Is(err, domain.ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
}

func TestUpdateFightStatus(t *testing.T) {
	fx := newFixture(t)
	fx.createEvent(t, "evt", 1)

	if err := fx.eng.UpdateFightStatus(operator, "evt", 1, domain.FightStatusClosed); err != nil {
		t.Fatalf("open->closed failed: %v", err)
	}
	if err := fx.eng.UpdateFightStatus(operator, "evt", 1, domain.FightStatusOpen); !errors.Is(err, domain.ErrInvalidStatusTransition) {
		t.Errorf("closed->open: expected ErrInvalidStatusTransition, got %v", err)
	}
	if err := fx.eng.UpdateFightStatus(operator, "evt", 1, domain.FightStatusResolved); err != nil {
		t.Fatalf("closed->resolved failed: %v", err)
	}
	if err := fx.eng.UpdateFightStatus(operator, "evt", 1, domain.FightStatusClosed); !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Errorf("resolved is terminal: expected ErrAlreadyResolved, got %v", err)
	}

	// A closed fight no longer accepts stakes.
	fx.createEvent(t, "evt2", 1)
	if err := fx.eng.UpdateFightStatus(operator, "evt2", 1, domain.FightStatusClosed); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	err := fx.eng.PlaceBoosts(context.Background(), alice, "evt2", []domain.BoostOrder{
		{FightID: 1, Amount: 100, PredictedWinner: domain.CornerRed, PredictedMethod: domain.MethodKnockout},
	})
	if !errors.Is(err, domain.ErrFightNotOpen) {
		t.Errorf("expected ErrFightNotOpen, got %v", err)
	}
}

func TestDepositBonus(t *testing.T) {
	fx := newFixture(t)
	fx.createEvent(t, "evt", 1)
	fx.place(t, alice, "evt", 1, 100, domain.CornerRed, domain.MethodKnockout)
	ctx := context.Background()

	if err := fx.eng.DepositBonus(ctx, operator, "evt", 1, 1000, false); err != nil {
		t.Fatalf("DepositBonus failed: %v", err)
	}
	f, _ := fx.eng.GetFight("evt", 1)
	if f.BonusPool != 1000 {
		t.Errorf("expected bonus 1000, got %d", f.BonusPool)
	}

	fx.resolve(t, "evt", domain.FightResult{
		FightID: 1, Winner: domain.CornerRed, Method: domain.MethodKnockout,
		PointsForWinner: 10, PointsForWinnerMethod: 20,
		SumWinnersStakes: 100, WinningPoolTotalShares: 2000,
	})

	if err := fx.eng.DepositBonus(ctx, operator, "evt", 1, 500, false); !errors.Is(err, domain.ErrFightResolved) {
		t.Errorf("post-resolution deposit: expected ErrFightResolved, got %v", err)
	}
	// force bypasses the guard for result-correction workflows.
	if err := fx.eng.DepositBonus(ctx, operator, "evt", 1, 500, true); err != nil {
		t.Errorf("forced deposit failed: %v", err)
	}
	if err := fx.eng.DepositBonus(ctx, alice, "evt", 1, 500, false); !errors.Is(err, domain.ErrNotOperator) {
		t.Errorf("non-operator deposit: expected ErrNotOperator, got %v", err)
	}
}

func TestSubmitFightResult_Gating(t *testing.T) {
	fx := newFixture(t)
	fx.createEvent(t, "evt", 1)
	fx.place(t, alice, "evt", 1, 100, domain.CornerRed, domain.MethodKnockout)

	result := domain.FightResult{
		FightID: 1, Winner: domain.CornerRed, Method: domain.MethodKnockout,
		PointsForWinner: 10, PointsForWinnerMethod: 20,
		SumWinnersStakes: 100, WinningPoolTotalShares: 2000,
	}
	fx.resolve(t, "evt", result)

	// Re-submission is a full overwrite while the gate is down.
	result.Winner = domain.CornerBlue
	result.SumWinnersStakes = 0
	fx.resolve(t, "evt", result)
	f, _ := fx.eng.GetFight("evt", 1)
	if f.Winner != domain.CornerBlue {
		t.Errorf("overwrite did not apply: winner %s", f.Winner)
	}

	fx.claimReady(t, "evt")
	if err := fx.eng.SubmitFightResult(operator, "evt", result); !errors.Is(err, domain.ErrEventClaimReady) {
		t.Errorf("expected ErrEventClaimReady, got %v", err)
	}
}

func TestSubmitFightResults_BatchIsAtomic(t *testing.T) {
	fx := newFixture(t)
	fx.createEvent(t, "evt", 2)

	results := []domain.FightResult{
		{FightID: 1, Winner: domain.CornerRed, Method: domain.MethodKnockout, PointsForWinner: 10, PointsForWinnerMethod: 20, WinningPoolTotalShares: 1},
		{FightID: 2, Winner: domain.CornerRed, Method: domain.MethodKnockout, PointsForWinner: 0, PointsForWinnerMethod: 0, WinningPoolTotalShares: 1},
	}
	if err := fx.eng.SubmitFightResults(operator, "evt", results); !errors.Is(err, domain.ErrInvalidPoints) {
		t.Fatalf("expected ErrInvalidPoints, got %v", err)
	}
	f, _ := fx.eng.GetFight("evt", 1)
	if f.Status != domain.FightStatusOpen {
		t.Errorf("fight 1 mutated by aborted batch: %s", f.Status)
	}
}

func TestCancelFight(t *testing.T) {
	fx := newFixture(t)
	fx.createEvent(t, "evt", 1)

	if err := fx.eng.CancelFight(alice, "evt", 1); !errors.Is(err, domain.ErrNotOperator) {
		t.Errorf("expected ErrNotOperator, got %v", err)
	}
	if err := fx.eng.CancelFight(operator, "evt", 1); err != nil {
		t.Fatalf("CancelFight failed: %v", err)
	}
	f, _ := fx.eng.GetFight("evt", 1)
	if !f.Cancelled || f.Status != domain.FightStatusOpen {
		t.Errorf("cancel should flag without touching status: %+v", f)
	}

	fx.createEvent(t, "evt2", 1)
	fx.resolve(t, "evt2", domain.FightResult{
		FightID: 1, Winner: domain.CornerRed, Method: domain.MethodKnockout,
		PointsForWinner: 1, PointsForWinnerMethod: 1, WinningPoolTotalShares: 1,
	})
	if err := fx.eng.CancelFight(operator, "evt2", 1); !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Errorf("cancel after resolve: expected ErrAlreadyResolved, got %v", err)
	}
}

// A cancelled fight keeps FightStatusOpen, so staking has to check the
// cancellation flag as well. Money accepted after cancellation would sit in
// a boost whose only exit is the flat refund already taken.
func TestCancelledFightRejectsStakes(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.createEvent(t, "evt", 1)
	fx.place(t, alice, "evt", 1, 100, domain.CornerRed, domain.MethodKnockout)
	if err := fx.eng.CancelFight(operator, "evt", 1); err != nil {
		t.Fatalf("CancelFight failed: %v", err)
	}

	err := fx.eng.PlaceBoosts(ctx, alice, "evt", []domain.BoostOrder{
		{FightID: 1, Amount: 100, PredictedWinner: domain.CornerRed, PredictedMethod: domain.MethodKnockout},
	})
	if !errors.Is(err, domain.ErrFightNotOpen) {
		t.Errorf("place on cancelled fight: expected ErrFightNotOpen, got %v", err)
	}
	if err := fx.eng.AddToBoost(ctx, alice, "evt", 1, 0, 100); !errors.Is(err, domain.ErrFightNotOpen) {
		t.Errorf("add on cancelled fight: expected ErrFightNotOpen, got %v", err)
	}

	// Not even after the refund has been collected.
	fx.claimReady(t, "evt")
	if got, err := fx.eng.ClaimReward(ctx, alice, "evt", 1, []uint32{0}); err != nil || got != 100 {
		t.Fatalf("refund claim: got %d, %v", got, err)
	}
	before := fx.balance(alice)
	if err := fx.eng.AddToBoost(ctx, alice, "evt", 1, 0, 100); !errors.Is(err, domain.ErrFightNotOpen) {
		t.Errorf("add after refund: expected ErrFightNotOpen, got %v", err)
	}
	if fx.balance(alice) != before {
		t.Error("rejected top-up must not move funds")
	}
}

// reentrantPort wraps the real port and calls back into the engine from
// inside Transfer, recording what the nested call returns.
type reentrantPort struct {
	domain.TokenPort
	eng   *Engine
	inner error
}

func (p *reentrantPort) Transfer(ctx context.Context, from, to common.Address, seasonID, amount uint64) error {
	p.inner = p.eng.CreateEvent(operator, "nested", 1, seasonID, 0)
	return p.TokenPort.Transfer(ctx, from, to, seasonID, amount)
}

func TestReentrantTransferRejected(t *testing.T) {
	fx := newFixture(t)
	port := &reentrantPort{TokenPort: fx.ledger.Bind(engineAcct), eng: fx.eng}
	fx.eng.token = port

	fx.createEvent(t, "evt", 1)
	fx.place(t, alice, "evt", 1, 100, domain.CornerRed, domain.MethodKnockout)

	if !errors.Is(port.inner, domain.ErrReentrantCall) {
		t.Errorf("nested call during transfer: expected ErrReentrantCall, got %v", port.inner)
	}
	if _, err := fx.eng.GetEvent("nested"); !errors.Is(err, domain.ErrUnknownEvent) {
		t.Errorf("nested mutation must not land, got %v", err)
	}
}
