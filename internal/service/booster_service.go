// Package service orchestrates the settlement engine against the persistence
// and messaging infrastructure: every mutation goes through the engine first,
// then the affected records are mirrored into the stores, caches are
// invalidated, and notifications fan out over the signal bus.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/FightFi/booster/internal/domain"
	"github.com/FightFi/booster/internal/engine"
)

const (
	// eventLockTTL bounds how long a crashed replica can hold an event lock.
	eventLockTTL = 10 * time.Second

	// NotificationChannel is the pub/sub channel notifications fan out on.
	NotificationChannel = "booster:notifications"

	// NotificationStream is the durable stream notifications append to.
	NotificationStream = "booster:stream"

	// notifyBuffer is the sink channel capacity. The engine emits from inside
	// its mutex, so delivery must never block; overflow drops with a warning.
	notifyBuffer = 1024
)

// BoosterService wraps the engine with write-through persistence, quote cache
// invalidation, audit logging, and signal-bus fan-out. The bus, cache, and
// lock manager are optional; a nil value disables that concern.
type BoosterService struct {
	engine *engine.Engine
	events domain.EventStore
	fights domain.FightStore
	boosts domain.BoostStore
	audit  domain.AuditStore
	quotes domain.QuoteCache
	bus    domain.SignalBus
	locks  domain.LockManager
	logger *slog.Logger

	notifyCh chan domain.Notification
}

// NewBoosterService creates the service and installs it as the engine's
// notification sink. Call Start to begin draining notifications.
func NewBoosterService(
	eng *engine.Engine,
	events domain.EventStore,
	fights domain.FightStore,
	boosts domain.BoostStore,
	audit domain.AuditStore,
	quotes domain.QuoteCache,
	bus domain.SignalBus,
	locks domain.LockManager,
	logger *slog.Logger,
) *BoosterService {
	s := &BoosterService{
		engine:   eng,
		events:   events,
		fights:   fights,
		boosts:   boosts,
		audit:    audit,
		quotes:   quotes,
		bus:      bus,
		locks:    locks,
		logger:   logger.With(slog.String("component", "booster_service")),
		notifyCh: make(chan domain.Notification, notifyBuffer),
	}
	eng.SetNotificationSink(s.enqueue)
	return s
}

// Start drains the notification queue until ctx is cancelled. Run it in its
// own goroutine.
func (s *BoosterService) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-s.notifyCh:
			s.handleNotification(ctx, n)
		}
	}
}

// enqueue is the engine sink. It runs inside the engine mutex and must not
// block or call back in; overflow drops the notification.
func (s *BoosterService) enqueue(n domain.Notification) {
	select {
	case s.notifyCh <- n:
	default:
		s.logger.Warn("notification queue full, dropping",
			slog.String("type", string(n.Type)),
			slog.String("event_id", n.EventID),
		)
	}
}

// handleNotification audit-logs the notification, invalidates affected quote
// entries, and fans the payload out over pub/sub and the durable stream.
func (s *BoosterService) handleNotification(ctx context.Context, n domain.Notification) {
	if err := s.audit.Log(ctx, string(n.Type), map[string]any{
		"id":       n.ID,
		"event_id": n.EventID,
		"fight_id": n.FightID,
		"actor":    n.Actor.Hex(),
		"amount":   n.Amount,
		"detail":   n.Detail,
		"at":       n.At,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit log failed",
			slog.String("type", string(n.Type)),
			slog.String("error", err.Error()),
		)
	}

	if s.quotes != nil && fightScoped(n.Type) {
		if err := s.quotes.InvalidateFight(ctx, n.EventID, n.FightID); err != nil {
			s.logger.WarnContext(ctx, "quote invalidate failed",
				slog.String("event_id", n.EventID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		s.logger.WarnContext(ctx, "notification marshal failed", slog.String("error", err.Error()))
		return
	}
	if err := s.bus.Publish(ctx, NotificationChannel, payload); err != nil {
		s.logger.WarnContext(ctx, "bus publish failed", slog.String("error", err.Error()))
	}
	if err := s.bus.StreamAppend(ctx, NotificationStream, payload); err != nil {
		s.logger.WarnContext(ctx, "stream append failed", slog.String("error", err.Error()))
	}
}

// fightScoped reports whether a notification type invalidates per-fight
// quote entries.
func fightScoped(t domain.NotificationType) bool {
	switch t {
	case domain.NotifyBoostPlaced, domain.NotifyBoostIncreased,
		domain.NotifyBonusDeposited, domain.NotifyStatusUpdated,
		domain.NotifyResultSubmitted, domain.NotifyFightCancelled,
		domain.NotifyRewardClaimed:
		return true
	}
	return false
}

// withEventLock serializes cross-replica mutations on one event. Without a
// lock manager the call runs directly; the engine mutex still totally orders
// calls within this process.
func (s *BoosterService) withEventLock(ctx context.Context, eventID string, fn func() error) error {
	if s.locks == nil {
		return fn()
	}
	release, err := s.locks.Acquire(ctx, "event:"+eventID, eventLockTTL)
	if err != nil {
		return fmt.Errorf("booster_service: lock event %s: %w", eventID, err)
	}
	defer release()
	return fn()
}

// ---------------------------------------------------------------------------
// Operator operations
// ---------------------------------------------------------------------------

// CreateEvent registers a new event and mirrors it plus its fight slots.
func (s *BoosterService) CreateEvent(ctx context.Context, caller common.Address, id string, fightCount uint32, seasonID uint64, defaultCutoff int64) error {
	return s.withEventLock(ctx, id, func() error {
		if err := s.engine.CreateEvent(caller, id, fightCount, seasonID, defaultCutoff); err != nil {
			return err
		}
		s.mirrorEvent(ctx, id)
		s.mirrorFights(ctx, id)
		return nil
	})
}

// SetClaimReady toggles the event's claim gate.
func (s *BoosterService) SetClaimReady(ctx context.Context, caller common.Address, id string, ready bool) error {
	return s.withEventLock(ctx, id, func() error {
		if err := s.engine.SetClaimReady(caller, id, ready); err != nil {
			return err
		}
		s.mirrorEvent(ctx, id)
		return nil
	})
}

// SetClaimDeadline sets the event's claim deadline.
func (s *BoosterService) SetClaimDeadline(ctx context.Context, caller common.Address, id string, deadline int64) error {
	return s.withEventLock(ctx, id, func() error {
		if err := s.engine.SetClaimDeadline(caller, id, deadline); err != nil {
			return err
		}
		s.mirrorEvent(ctx, id)
		return nil
	})
}

// SetEventBoostCutoff applies a placement cutoff to every fight of the event.
func (s *BoosterService) SetEventBoostCutoff(ctx context.Context, caller common.Address, id string, cutoff int64) error {
	return s.withEventLock(ctx, id, func() error {
		if err := s.engine.SetEventBoostCutoff(caller, id, cutoff); err != nil {
			return err
		}
		s.mirrorFights(ctx, id)
		return nil
	})
}

// SetFightBoostCutoff applies a placement cutoff to a single fight.
func (s *BoosterService) SetFightBoostCutoff(ctx context.Context, caller common.Address, id string, fightID uint32, cutoff int64) error {
	return s.withEventLock(ctx, id, func() error {
		if err := s.engine.SetFightBoostCutoff(caller, id, fightID, cutoff); err != nil {
			return err
		}
		s.mirrorFight(ctx, id, fightID)
		return nil
	})
}

// DepositBonus moves operator funds into a fight's bonus pool.
func (s *BoosterService) DepositBonus(ctx context.Context, caller common.Address, eventID string, fightID uint32, amount uint64, force bool) error {
	return s.withEventLock(ctx, eventID, func() error {
		if err := s.engine.DepositBonus(ctx, caller, eventID, fightID, amount, force); err != nil {
			return err
		}
		s.mirrorFight(ctx, eventID, fightID)
		return nil
	})
}

// UpdateFightStatus transitions a fight's lifecycle status.
func (s *BoosterService) UpdateFightStatus(ctx context.Context, caller common.Address, eventID string, fightID uint32, status domain.FightStatus) error {
	return s.withEventLock(ctx, eventID, func() error {
		if err := s.engine.UpdateFightStatus(caller, eventID, fightID, status); err != nil {
			return err
		}
		s.mirrorFight(ctx, eventID, fightID)
		return nil
	})
}

// CancelFight marks a fight cancelled so stakes become flat refunds.
func (s *BoosterService) CancelFight(ctx context.Context, caller common.Address, eventID string, fightID uint32) error {
	return s.withEventLock(ctx, eventID, func() error {
		if err := s.engine.CancelFight(caller, eventID, fightID); err != nil {
			return err
		}
		s.mirrorFight(ctx, eventID, fightID)
		return nil
	})
}

// SubmitFightResult records one fight outcome with its scoring aggregates.
func (s *BoosterService) SubmitFightResult(ctx context.Context, caller common.Address, eventID string, r domain.FightResult) error {
	return s.withEventLock(ctx, eventID, func() error {
		if err := s.engine.SubmitFightResult(caller, eventID, r); err != nil {
			return err
		}
		s.mirrorFight(ctx, eventID, r.FightID)
		return nil
	})
}

// SubmitFightResults records a batch of outcomes atomically.
func (s *BoosterService) SubmitFightResults(ctx context.Context, caller common.Address, eventID string, results []domain.FightResult) error {
	return s.withEventLock(ctx, eventID, func() error {
		if err := s.engine.SubmitFightResults(caller, eventID, results); err != nil {
			return err
		}
		s.mirrorFights(ctx, eventID)
		return nil
	})
}

// ---------------------------------------------------------------------------
// Bettor operations
// ---------------------------------------------------------------------------

// PlaceBoosts places a batch of boosts for the caller.
func (s *BoosterService) PlaceBoosts(ctx context.Context, caller common.Address, eventID string, orders []domain.BoostOrder) error {
	return s.withEventLock(ctx, eventID, func() error {
		if err := s.engine.PlaceBoosts(ctx, caller, eventID, orders); err != nil {
			return err
		}
		seen := make(map[uint32]struct{}, len(orders))
		for _, ord := range orders {
			if _, ok := seen[ord.FightID]; ok {
				continue
			}
			seen[ord.FightID] = struct{}{}
			s.mirrorFight(ctx, eventID, ord.FightID)
			s.mirrorOwnerBoosts(ctx, eventID, ord.FightID, caller)
		}
		return nil
	})
}

// AddToBoost increases the stake of an existing boost.
func (s *BoosterService) AddToBoost(ctx context.Context, caller common.Address, eventID string, fightID uint32, index uint32, amount uint64) error {
	return s.withEventLock(ctx, eventID, func() error {
		if err := s.engine.AddToBoost(ctx, caller, eventID, fightID, index, amount); err != nil {
			return err
		}
		s.mirrorFight(ctx, eventID, fightID)
		s.mirrorOwnerBoosts(ctx, eventID, fightID, caller)
		return nil
	})
}

// ClaimReward pays out the caller's boosts on one fight and returns the total.
func (s *BoosterService) ClaimReward(ctx context.Context, caller common.Address, eventID string, fightID uint32, indices []uint32) (uint64, error) {
	var total uint64
	err := s.withEventLock(ctx, eventID, func() error {
		paid, err := s.engine.ClaimReward(ctx, caller, eventID, fightID, indices)
		if err != nil {
			return err
		}
		total = paid
		s.mirrorFight(ctx, eventID, fightID)
		s.mirrorOwnerBoosts(ctx, eventID, fightID, caller)
		return nil
	})
	return total, err
}

// ClaimRewards pays out boosts across several fights in one call.
func (s *BoosterService) ClaimRewards(ctx context.Context, caller common.Address, eventID string, claims []domain.FightClaim) (uint64, error) {
	var total uint64
	err := s.withEventLock(ctx, eventID, func() error {
		paid, err := s.engine.ClaimRewards(ctx, caller, eventID, claims)
		if err != nil {
			return err
		}
		total = paid
		for _, c := range claims {
			s.mirrorFight(ctx, eventID, c.FightID)
			s.mirrorOwnerBoosts(ctx, eventID, c.FightID, caller)
		}
		return nil
	})
	return total, err
}

// PurgeEvent sweeps unclaimed funds to the recipient after the deadline and
// returns the swept amount.
func (s *BoosterService) PurgeEvent(ctx context.Context, caller common.Address, eventID string, recipient common.Address) (uint64, error) {
	var swept uint64
	err := s.withEventLock(ctx, eventID, func() error {
		amount, err := s.engine.PurgeEvent(ctx, caller, eventID, recipient)
		if err != nil {
			return err
		}
		swept = amount
		s.mirrorEvent(ctx, eventID)
		s.mirrorFights(ctx, eventID)
		return nil
	})
	return swept, err
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetEvent returns live engine state, falling back to the store mirror for
// events the engine no longer holds.
func (s *BoosterService) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	ev, err := s.engine.GetEvent(id)
	if err == nil {
		return ev, nil
	}
	ev, storeErr := s.events.GetByID(ctx, id)
	if storeErr != nil {
		return domain.Event{}, err
	}
	return ev, nil
}

// GetFight returns live engine state for one fight, with store fallback.
func (s *BoosterService) GetFight(ctx context.Context, eventID string, fightID uint32) (domain.Fight, error) {
	f, err := s.engine.GetFight(eventID, fightID)
	if err == nil {
		return f, nil
	}
	f, storeErr := s.fights.GetByID(ctx, eventID, fightID)
	if storeErr != nil {
		return domain.Fight{}, err
	}
	return f, nil
}

// ListEvents returns the store mirror of known events, newest first.
func (s *BoosterService) ListEvents(ctx context.Context, opts domain.ListOpts) ([]domain.Event, error) {
	events, err := s.events.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("booster_service: list events: %w", err)
	}
	return events, nil
}

// ListFights returns the store mirror of an event's fights.
func (s *BoosterService) ListFights(ctx context.Context, eventID string) ([]domain.Fight, error) {
	fights, err := s.fights.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("booster_service: list fights %s: %w", eventID, err)
	}
	return fights, nil
}

// GetUserBoosts returns the caller's boosts on one fight.
func (s *BoosterService) GetUserBoosts(eventID string, fightID uint32, owner common.Address) ([]domain.Boost, error) {
	return s.engine.GetUserBoosts(eventID, fightID, owner)
}

// GetUserBoostIndices returns the unclaimed boost indices for one owner.
func (s *BoosterService) GetUserBoostIndices(eventID string, fightID uint32, owner common.Address) ([]uint32, error) {
	return s.engine.GetUserBoostIndices(eventID, fightID, owner)
}

// TotalPool returns originalPool + bonusPool for a fight.
func (s *BoosterService) TotalPool(eventID string, fightID uint32) (uint64, error) {
	return s.engine.TotalPool(eventID, fightID)
}

// QuoteClaimable previews the caller's claimable total on one fight, served
// from the quote cache when possible.
func (s *BoosterService) QuoteClaimable(ctx context.Context, eventID string, fightID uint32, owner common.Address) (uint64, error) {
	if s.quotes != nil {
		if amount, ok, err := s.quotes.Get(ctx, eventID, fightID, owner); err == nil && ok {
			return amount, nil
		}
	}

	amount, err := s.engine.QuoteClaimable(eventID, fightID, owner)
	if err != nil {
		return 0, err
	}

	if s.quotes != nil {
		if err := s.quotes.Set(ctx, eventID, fightID, owner, amount); err != nil {
			s.logger.WarnContext(ctx, "quote cache set failed",
				slog.String("event_id", eventID),
				slog.String("error", err.Error()),
			)
		}
	}
	return amount, nil
}

// Score computes the share multiplier for one prediction against an outcome.
func (s *BoosterService) Score(predictedWinner, actualWinner domain.Corner, predictedMethod, actualMethod domain.Method, pointsForWinner, pointsForWinnerMethod uint64) uint64 {
	return engine.ScorePrediction(predictedWinner, actualWinner, predictedMethod, actualMethod, pointsForWinner, pointsForWinnerMethod)
}

// AuditLog returns audit entries, newest first.
func (s *BoosterService) AuditLog(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	entries, err := s.audit.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("booster_service: audit list: %w", err)
	}
	return entries, nil
}

// ---------------------------------------------------------------------------
// Persistence
// ---------------------------------------------------------------------------

// Restore loads the store mirror back into the engine. Call once at boot,
// before serving.
func (s *BoosterService) Restore(ctx context.Context) error {
	events, err := s.events.List(ctx, domain.ListOpts{})
	if err != nil {
		return fmt.Errorf("booster_service: restore events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	var fights []domain.Fight
	var boosts []domain.Boost
	for _, ev := range events {
		fs, err := s.fights.ListByEvent(ctx, ev.ID)
		if err != nil {
			return fmt.Errorf("booster_service: restore fights %s: %w", ev.ID, err)
		}
		fights = append(fights, fs...)

		bs, err := s.boosts.ListByEvent(ctx, ev.ID)
		if err != nil {
			return fmt.Errorf("booster_service: restore boosts %s: %w", ev.ID, err)
		}
		boosts = append(boosts, bs...)
	}

	if err := s.engine.Restore(events, fights, boosts); err != nil {
		return fmt.Errorf("booster_service: restore engine: %w", err)
	}

	s.logger.InfoContext(ctx, "state restored",
		slog.Int("events", len(events)),
		slog.Int("fights", len(fights)),
		slog.Int("boosts", len(boosts)),
	)
	return nil
}

// PersistSnapshot writes the full engine state through to the stores. Used
// at shutdown and by periodic checkpoints.
func (s *BoosterService) PersistSnapshot(ctx context.Context) error {
	events, fights, boosts := s.engine.Snapshot()

	for _, ev := range events {
		if err := s.events.Upsert(ctx, ev); err != nil {
			return fmt.Errorf("booster_service: snapshot event %s: %w", ev.ID, err)
		}
	}
	if err := s.fights.UpsertBatch(ctx, fights); err != nil {
		return fmt.Errorf("booster_service: snapshot fights: %w", err)
	}
	if err := s.boosts.UpsertBatch(ctx, boosts); err != nil {
		return fmt.Errorf("booster_service: snapshot boosts: %w", err)
	}

	s.logger.InfoContext(ctx, "snapshot persisted",
		slog.Int("events", len(events)),
		slog.Int("fights", len(fights)),
		slog.Int("boosts", len(boosts)),
	)
	return nil
}

// ---------------------------------------------------------------------------
// Mirroring
// ---------------------------------------------------------------------------

// Mirror failures are logged, not returned. The engine is the source of
// truth; the stores converge on the next snapshot.

func (s *BoosterService) mirrorEvent(ctx context.Context, id string) {
	ev, err := s.engine.GetEvent(id)
	if err != nil {
		return
	}
	if err := s.events.Upsert(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "event mirror failed",
			slog.String("event_id", id),
			slog.String("error", err.Error()),
		)
	}
}

func (s *BoosterService) mirrorFight(ctx context.Context, eventID string, fightID uint32) {
	f, err := s.engine.GetFight(eventID, fightID)
	if err != nil {
		return
	}
	if err := s.fights.Upsert(ctx, f); err != nil {
		s.logger.WarnContext(ctx, "fight mirror failed",
			slog.String("event_id", eventID),
			slog.Uint64("fight_id", uint64(fightID)),
			slog.String("error", err.Error()),
		)
	}
}

func (s *BoosterService) mirrorFights(ctx context.Context, eventID string) {
	ev, err := s.engine.GetEvent(eventID)
	if err != nil {
		return
	}
	fights := make([]domain.Fight, 0, ev.NumFights)
	for i := uint32(1); i <= ev.NumFights; i++ {
		f, err := s.engine.GetFight(eventID, i)
		if err != nil {
			continue
		}
		fights = append(fights, f)
	}
	if err := s.fights.UpsertBatch(ctx, fights); err != nil {
		s.logger.WarnContext(ctx, "fight batch mirror failed",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *BoosterService) mirrorOwnerBoosts(ctx context.Context, eventID string, fightID uint32, owner common.Address) {
	boosts, err := s.engine.GetUserBoosts(eventID, fightID, owner)
	if err != nil {
		return
	}
	if err := s.boosts.UpsertBatch(ctx, boosts); err != nil {
		s.logger.WarnContext(ctx, "boost mirror failed",
			slog.String("event_id", eventID),
			slog.String("owner", owner.Hex()),
			slog.String("error", err.Error()),
		)
	}
}
