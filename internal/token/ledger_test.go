package token

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	agent = common.HexToAddress("0x00000000000000000000000000000000000000AA")
	anna  = common.HexToAddress("0x0000000000000000000000000000000000000001")
	ben   = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

func TestLedger_MintAndBalance(t *testing.T) {
	l := NewLedger()
	l.OpenSeason(1)

	if got := l.Balance(anna, 1); got != 0 {
		t.Errorf("fresh balance: expected 0, got %d", got)
	}
	l.Mint(anna, 1, 500)
	l.Mint(anna, 1, 250)
	if got := l.Balance(anna, 1); got != 750 {
		t.Errorf("expected 750, got %d", got)
	}
	// Balances are per season.
	if got := l.Balance(anna, 2); got != 0 {
		t.Errorf("other season: expected 0, got %d", got)
	}
}

func TestPort_Transfer(t *testing.T) {
	l := NewLedger()
	l.OpenSeason(1)
	l.GrantAgent(agent)
	l.Mint(anna, 1, 100)
	ctx := context.Background()

	p := l.Bind(agent)
	if err := p.Transfer(ctx, anna, ben, 1, 60); err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if got := l.Balance(anna, 1); got != 40 {
		t.Errorf("anna: expected 40, got %d", got)
	}
	if got := l.Balance(ben, 1); got != 60 {
		t.Errorf("ben: expected 60, got %d", got)
	}

	if err := p.Transfer(ctx, anna, ben, 1, 41); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}
	// A failed transfer moves nothing.
	if l.Balance(anna, 1) != 40 || l.Balance(ben, 1) != 60 {
		t.Error("failed transfer mutated balances")
	}

	got, err := p.BalanceOf(ctx, ben, 1)
	if err != nil || got != 60 {
		t.Errorf("BalanceOf: got %d, %v", got, err)
	}
}

func TestPort_SeasonGate(t *testing.T) {
	l := NewLedger()
	l.OpenSeason(1)
	l.GrantAgent(agent)
	l.Mint(anna, 1, 100)
	p := l.Bind(agent)
	ctx := context.Background()

	if err := p.Transfer(ctx, anna, ben, 2, 10); !errors.Is(err, ErrSeasonClosed) {
		t.Errorf("unopened season: expected ErrSeasonClosed, got %v", err)
	}
	l.CloseSeason(1)
	if err := p.Transfer(ctx, anna, ben, 1, 10); !errors.Is(err, ErrSeasonClosed) {
		t.Errorf("closed season: expected ErrSeasonClosed, got %v", err)
	}
	// Closed seasons still answer balance queries.
	if got := l.Balance(anna, 1); got != 100 {
		t.Errorf("expected 100, got %d", got)
	}
}

func TestPort_AgentCapability(t *testing.T) {
	l := NewLedger()
	l.OpenSeason(1)
	l.Mint(anna, 1, 100)
	ctx := context.Background()

	// An unlisted agent cannot move third-party funds.
	rogue := l.Bind(ben)
	if err := rogue.Transfer(ctx, anna, ben, 1, 10); !errors.Is(err, ErrNotTransferAgent) {
		t.Errorf("expected ErrNotTransferAgent, got %v", err)
	}

	// But anyone can spend from their own account.
	l.Mint(ben, 1, 50)
	if err := rogue.Transfer(ctx, ben, anna, 1, 50); err != nil {
		t.Errorf("self-spend failed: %v", err)
	}

	l.GrantAgent(agent)
	p := l.Bind(agent)
	if err := p.Transfer(ctx, anna, ben, 1, 10); err != nil {
		t.Fatalf("granted agent transfer failed: %v", err)
	}
	l.RevokeAgent(agent)
	if err := p.Transfer(ctx, anna, ben, 1, 10); !errors.Is(err, ErrNotTransferAgent) {
		t.Errorf("revoked agent: expected ErrNotTransferAgent, got %v", err)
	}
}

func TestLedger_ConcurrentTransfers(t *testing.T) {
	l := NewLedger()
	l.OpenSeason(1)
	l.GrantAgent(agent)
	l.Mint(anna, 1, 1000)
	p := l.Bind(agent)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = p.Transfer(ctx, anna, ben, 1, 1)
			}
		}()
	}
	wg.Wait()

	if got := l.Balance(anna, 1); got != 0 {
		t.Errorf("anna: expected 0, got %d", got)
	}
	if got := l.Balance(ben, 1); got != 1000 {
		t.Errorf("ben: expected 1000, got %d", got)
	}
}
