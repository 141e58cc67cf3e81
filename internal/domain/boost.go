package domain

import "github.com/ethereum/go-ethereum/common"

// Boost is one user's stake plus prediction against a specific fight, keyed
// by (eventID, fightID, owner, index). Boosts are append-only per owner;
// increasing a stake mutates Amount in place rather than appending.
//
// Field order follows the same append-only layout rule as Fight.
type Boost struct {
	EventID string
	FightID uint32
	Owner   common.Address
	Index   uint32

	Amount          uint64
	PredictedWinner Corner
	PredictedMethod Method

	// Claimed is monotonic: false -> true, never reset. It is only set when
	// the boost was actually paid out.
	Claimed bool

	PlacedAt int64
}

// BoostOrder is one entry of a batched placement request.
type BoostOrder struct {
	FightID         uint32
	Amount          uint64
	PredictedWinner Corner
	PredictedMethod Method
}

// FightResult carries an operator-submitted outcome plus the off-chain
// aggregated scoring totals for one fight.
type FightResult struct {
	FightID                uint32
	Winner                 Corner
	Method                 Method
	PointsForWinner        uint64
	PointsForWinnerMethod  uint64
	SumWinnersStakes       uint64
	WinningPoolTotalShares uint64
}

// FightClaim names the boost indices to settle for one fight inside a
// multi-fight claim.
type FightClaim struct {
	FightID uint32
	Indices []uint32
}
