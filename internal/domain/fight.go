package domain

// FightStatus represents the lifecycle state of a fight. Transitions are
// forward-only: open -> closed -> resolved.
type FightStatus string

const (
	FightStatusOpen     FightStatus = "open"
	FightStatusClosed   FightStatus = "closed"
	FightStatusResolved FightStatus = "resolved"
)

// rank orders statuses for the forward-only transition check.
func (s FightStatus) rank() int {
	switch s {
	case FightStatusOpen:
		return 0
	case FightStatusClosed:
		return 1
	case FightStatusResolved:
		return 2
	default:
		return -1
	}
}

// Valid reports whether s is a known status.
func (s FightStatus) Valid() bool {
	return s.rank() >= 0
}

// After reports whether s is strictly later in the lifecycle than other.
func (s FightStatus) After(other FightStatus) bool {
	return s.rank() > other.rank()
}

// Corner identifies the side of a fight.
type Corner string

const (
	CornerRed  Corner = "red"
	CornerBlue Corner = "blue"
	CornerNone Corner = "none"
)

// Valid reports whether c is a known corner.
func (c Corner) Valid() bool {
	switch c {
	case CornerRed, CornerBlue, CornerNone:
		return true
	}
	return false
}

// Decided reports whether c names an actual winner.
func (c Corner) Decided() bool {
	return c == CornerRed || c == CornerBlue
}

// Method is how a fight was (predicted to be) won.
type Method string

const (
	MethodKnockout   Method = "knockout"
	MethodSubmission Method = "submission"
	MethodDecision   Method = "decision"
	MethodNoContest  Method = "no_contest"
)

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	switch m {
	case MethodKnockout, MethodSubmission, MethodDecision, MethodNoContest:
		return true
	}
	return false
}

// Decisive reports whether m is a method a winner can be predicted by.
func (m Method) Decisive() bool {
	return m.Valid() && m != MethodNoContest
}

// Fight is a single resolvable outcome market within an event, keyed by
// (EventID, ID) with ID in [1..NumFights].
//
// Field order is load-bearing for the persisted snapshot layout: new fields
// are appended at the end and existing fields are never reordered, resized,
// or removed across deployed versions.
type Fight struct {
	EventID string
	ID      uint32

	Status FightStatus
	Winner Corner
	Method Method

	OriginalPool uint64 // sum of every stake ever placed
	BonusPool    uint64 // operator-deposited top-up

	// Operator-submitted aggregates, taken as ground truth at resolution.
	SumWinnersStakes       uint64
	WinningPoolTotalShares uint64

	PointsForWinner       uint64
	PointsForWinnerMethod uint64

	ClaimedAmount uint64
	BoostCutoff   int64 // unix seconds, 0 = unbounded
	Cancelled     bool

	// PurgedAmount accumulates post-deadline sweeps so that a repeated purge
	// with no intervening claims sweeps zero. Appended field.
	PurgedAmount uint64
}

// Payable reports whether the fight is in a state where claims can compute a
// payout: resolved normally, or cancelled (refund-only path).
func (f Fight) Payable() bool {
	return f.Status == FightStatusResolved || f.Cancelled
}

// PrizePool is the pot distributed to winners above their returned stakes:
// the losers' forfeited stakes plus any operator bonus. Winners' own stakes
// are returned at par and never redistributed. SumWinnersStakes is validated
// against OriginalPool at resolution, so this cannot underflow.
func (f Fight) PrizePool() uint64 {
	return f.OriginalPool - f.SumWinnersStakes + f.BonusPool
}

// Unclaimed is the portion of the fight's pools not yet paid out or swept.
func (f Fight) Unclaimed() uint64 {
	total := f.OriginalPool + f.BonusPool
	out := f.ClaimedAmount + f.PurgedAmount
	if out >= total {
		return 0
	}
	return total - out
}
