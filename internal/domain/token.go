package domain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// TokenPort is the engine's only window onto the external value ledger. The
// engine holds a pre-granted transfer-agent capability on the ledger, so it
// can move value out of a bettor's balance without per-call approval,
// provided the season is open for transfers.
//
// Implementations must not call back into the engine from Transfer; the
// engine rejects such re-entry.
type TokenPort interface {
	BalanceOf(ctx context.Context, owner common.Address, seasonID uint64) (uint64, error)
	Transfer(ctx context.Context, from, to common.Address, seasonID uint64, amount uint64) error
}
