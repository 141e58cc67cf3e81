package domain

import "errors"

// Errors abort the current operation with no partial state change. There is
// no automatic retry; the caller resubmits after correcting the precondition.
var (
	// Authorization.
	ErrNotOperator = errors.New("caller is not an operator")
	ErrNotOwner    = errors.New("caller does not own this boost")

	// Existence.
	ErrUnknownEvent  = errors.New("unknown event")
	ErrUnknownFight  = errors.New("unknown fight")
	ErrAlreadyExists = errors.New("already exists")

	// State machine.
	ErrFightNotOpen            = errors.New("fight is not open")
	ErrFightResolved           = errors.New("fight already resolved")
	ErrAlreadyResolved         = errors.New("fight status is terminal")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrEventClaimReady         = errors.New("event is claim ready")
	ErrEventNotClaimReady      = errors.New("event is not claim ready")
	ErrNotResolved             = errors.New("fight is not resolved")

	// Temporal.
	ErrCutoffPassed      = errors.New("boost cutoff passed")
	ErrDeadlinePassed    = errors.New("claim deadline passed")
	ErrDeadlineNotPassed = errors.New("claim deadline not passed")

	// Value.
	ErrInvalidArgument = errors.New("invalid argument")
	ErrBelowMinimum    = errors.New("stake below minimum")
	ErrExceedsMaximum  = errors.New("stake exceeds maximum")
	ErrInvalidPoints   = errors.New("invalid points configuration")
	ErrInvalidOutcome  = errors.New("invalid outcome")

	// Ledger.
	ErrNothingToClaim = errors.New("nothing to claim")
	ErrAlreadyClaimed = errors.New("boost already claimed")
	ErrBoostDidNotWin = errors.New("boost did not win")
	ErrReentrantCall  = errors.New("reentrant call rejected")

	// Store-level (not part of the engine surface).
	ErrNotFound = errors.New("not found")
	ErrLockHeld = errors.New("lock already held")
)
