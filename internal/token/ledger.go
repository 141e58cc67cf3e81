// Package token provides an in-process, season-scoped value ledger. It
// stands in for the external value-bearing token contract in local mode and
// tests: balances are partitioned by season, transfers are gated on the
// season being open, and moving value out of a third party's balance
// requires the transfer-agent capability.
package token

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSeasonClosed        = errors.New("season closed for transfers")
	ErrNotTransferAgent    = errors.New("caller lacks transfer-agent capability")
)

// Ledger is the season-scoped balance book. All methods are safe for
// concurrent use.
type Ledger struct {
	mu       sync.Mutex
	balances map[uint64]map[common.Address]uint64
	open     map[uint64]bool
	agents   map[common.Address]bool
}

// NewLedger creates an empty ledger with no open seasons.
func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[uint64]map[common.Address]uint64),
		open:     make(map[uint64]bool),
		agents:   make(map[common.Address]bool),
	}
}

// OpenSeason enables transfers for a season.
func (l *Ledger) OpenSeason(seasonID uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.open[seasonID] = true
}

// CloseSeason disables transfers for a season. Balances are retained.
func (l *Ledger) CloseSeason(seasonID uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.open[seasonID] = false
}

// GrantAgent adds addr to the transfer-agent allow-list.
func (l *Ledger) GrantAgent(addr common.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.agents[addr] = true
}

// RevokeAgent removes addr from the transfer-agent allow-list.
func (l *Ledger) RevokeAgent(addr common.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.agents, addr)
}

// Mint credits owner's balance in a season. Operational/test use only.
func (l *Ledger) Mint(owner common.Address, seasonID, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(owner, seasonID, amount)
}

func (l *Ledger) credit(owner common.Address, seasonID, amount uint64) {
	season, ok := l.balances[seasonID]
	if !ok {
		season = make(map[common.Address]uint64)
		l.balances[seasonID] = season
	}
	season[owner] += amount
}

// Balance returns owner's balance in a season.
func (l *Ledger) Balance(owner common.Address, seasonID uint64) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[seasonID][owner]
}

// Bind returns a TokenPort-shaped view of the ledger acting as agent. A
// bound port may move value out of any account once agent holds the
// transfer-agent capability; without it, only out of agent's own account.
func (l *Ledger) Bind(agent common.Address) *Port {
	return &Port{ledger: l, agent: agent}
}

// Port is the capability-gated transfer primitive handed to the engine.
type Port struct {
	ledger *Ledger
	agent  common.Address
}

// BalanceOf implements domain.TokenPort.
func (p *Port) BalanceOf(_ context.Context, owner common.Address, seasonID uint64) (uint64, error) {
	return p.ledger.Balance(owner, seasonID), nil
}

// Transfer implements domain.TokenPort. It debits from and credits to within
// a single lock acquisition, so a transfer is all-or-nothing.
func (p *Port) Transfer(_ context.Context, from, to common.Address, seasonID, amount uint64) error {
	l := p.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.open[seasonID] {
		return ErrSeasonClosed
	}
	if from != p.agent && !l.agents[p.agent] {
		return ErrNotTransferAgent
	}
	bal := l.balances[seasonID][from]
	if bal < amount {
		return ErrInsufficientBalance
	}
	l.balances[seasonID][from] = bal - amount
	l.credit(to, seasonID, amount)
	return nil
}
