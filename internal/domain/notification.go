package domain

import "github.com/ethereum/go-ethereum/common"

// NotificationType names the structured notification emitted by each
// mutating engine operation.
type NotificationType string

const (
	NotifyEventCreated      NotificationType = "event.created"
	NotifyClaimReadyToggled NotificationType = "event.claim_ready_toggled"
	NotifyClaimDeadlineSet  NotificationType = "event.claim_deadline_set"
	NotifyBoostCutoffSet    NotificationType = "event.boost_cutoff_set"
	NotifyBoostPlaced       NotificationType = "boost.placed"
	NotifyBoostIncreased    NotificationType = "boost.increased"
	NotifyBonusDeposited    NotificationType = "fight.bonus_deposited"
	NotifyStatusUpdated     NotificationType = "fight.status_updated"
	NotifyResultSubmitted   NotificationType = "fight.result_submitted"
	NotifyFightCancelled    NotificationType = "fight.cancelled"
	NotifyRewardClaimed     NotificationType = "claim.reward_claimed"
	NotifyEventPurged       NotificationType = "event.purged"
	NotifyEventArchived     NotificationType = "event.archived"
)

// Notification carries enough detail to reconstruct engine state off-chain.
// Every mutating operation emits exactly one (batched operations emit one per
// affected record plus the batch-level entry where relevant).
type Notification struct {
	ID      string           `json:"id"`
	Type    NotificationType `json:"type"`
	EventID string           `json:"event_id"`
	FightID uint32           `json:"fight_id,omitempty"`
	Actor   common.Address   `json:"actor"`
	Amount  uint64           `json:"amount,omitempty"`
	Detail  map[string]any   `json:"detail,omitempty"`
	At      int64            `json:"at"`
}

// NotificationSink receives notifications synchronously as part of the
// emitting operation. Sinks must not call back into the engine.
type NotificationSink func(Notification)
