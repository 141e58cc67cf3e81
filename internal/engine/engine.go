// Package engine implements the booster settlement engine: an in-memory,
// single-writer state machine over events, fights, and boosts. Every mutating
// operation executes to completion as one indivisible unit; value moves only
// through the token port, and each state-mutating path re-validates all
// preconditions rather than trusting earlier checks.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/FightFi/booster/internal/domain"
)

// Config carries the engine's static parameters.
type Config struct {
	// Account is the engine's own ledger account. Stakes are pulled into it
	// and payouts are disbursed from it; pool totals are 1:1 backed by its
	// ledger balance.
	Account common.Address

	// MinStake is the minimum accepted boost amount.
	MinStake uint64

	// MaxStake caps a single boost amount. 0 = no cap.
	MaxStake uint64

	// MaxFightsPerEvent caps createEvent's fight count.
	MaxFightsPerEvent uint32

	// Clock returns the current unix time in seconds. Defaults to time.Now.
	Clock func() int64
}

type fightKey struct {
	event string
	fight uint32
}

type boostKey struct {
	event string
	fight uint32
	owner common.Address
}

// Engine owns all pool and boost state. It is safe for concurrent use; calls
// are totally ordered by an internal mutex, and any call arriving while a
// token transfer is in flight is rejected rather than queued, which is the
// non-reentrant guard around value movement.
type Engine struct {
	cfg   Config
	token domain.TokenPort

	mu           sync.Mutex
	transferring atomic.Bool

	admins    map[common.Address]struct{}
	operators map[common.Address]struct{}

	events map[string]*domain.Event
	fights map[fightKey]*domain.Fight
	boosts map[boostKey][]*domain.Boost

	sink domain.NotificationSink
}

// New creates an Engine with the given admin as the initial member of both
// the admin and operator capability sets.
func New(cfg Config, token domain.TokenPort, admin common.Address) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = func() int64 { return time.Now().Unix() }
	}
	e := &Engine{
		cfg:       cfg,
		token:     token,
		admins:    map[common.Address]struct{}{admin: {}},
		operators: map[common.Address]struct{}{admin: {}},
		events:    make(map[string]*domain.Event),
		fights:    make(map[fightKey]*domain.Fight),
		boosts:    make(map[boostKey][]*domain.Boost),
	}
	return e
}

// SetNotificationSink installs the sink that receives one structured
// notification per mutation. The sink runs synchronously inside the emitting
// operation and must not call back into the engine.
func (e *Engine) SetNotificationSink(sink domain.NotificationSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sink = sink
}

// lock admits one call into the engine. It refuses entry while a token
// transfer is in flight: the transfer is the only point where control could
// re-enter the engine mid-update.
func (e *Engine) lock() error {
	if e.transferring.Load() {
		return domain.ErrReentrantCall
	}
	e.mu.Lock()
	if e.transferring.Load() {
		e.mu.Unlock()
		return domain.ErrReentrantCall
	}
	return nil
}

// transfer moves value through the token port with the reentrancy flag set.
func (e *Engine) transfer(ctx context.Context, from, to common.Address, seasonID, amount uint64) error {
	e.transferring.Store(true)
	defer e.transferring.Store(false)
	return e.token.Transfer(ctx, from, to, seasonID, amount)
}

func (e *Engine) now() int64 { return e.cfg.Clock() }

// isOperator resolves the operator capability. Admins hold every capability.
func (e *Engine) isOperator(addr common.Address) bool {
	if _, ok := e.operators[addr]; ok {
		return true
	}
	_, ok := e.admins[addr]
	return ok
}

func (e *Engine) isAdmin(addr common.Address) bool {
	_, ok := e.admins[addr]
	return ok
}

// eventByID returns the live event record or ErrUnknownEvent.
func (e *Engine) eventByID(id string) (*domain.Event, error) {
	ev, ok := e.events[id]
	if !ok {
		return nil, domain.ErrUnknownEvent
	}
	return ev, nil
}

// fightByID returns the live fight record, checking event existence first.
func (e *Engine) fightByID(eventID string, fightID uint32) (*domain.Fight, error) {
	if _, err := e.eventByID(eventID); err != nil {
		return nil, err
	}
	f, ok := e.fights[fightKey{eventID, fightID}]
	if !ok {
		return nil, domain.ErrUnknownFight
	}
	return f, nil
}

// emit delivers a notification to the sink, stamping id and time.
func (e *Engine) emit(n domain.Notification) {
	if e.sink == nil {
		return
	}
	n.ID = uuid.New().String()
	n.At = e.now()
	e.sink(n)
}

// AddOperator grants the operator capability. Admin-only.
func (e *Engine) AddOperator(caller, addr common.Address) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	if !e.isAdmin(caller) {
		return domain.ErrNotOperator
	}
	e.operators[addr] = struct{}{}
	return nil
}

// RemoveOperator revokes the operator capability. Admin-only.
func (e *Engine) RemoveOperator(caller, addr common.Address) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	if !e.isAdmin(caller) {
		return domain.ErrNotOperator
	}
	delete(e.operators, addr)
	return nil
}
