// Package domain defines the core entities of the booster settlement engine:
// events, fights, boosts, the error taxonomy, and the store/cache/port
// interfaces implemented by the infrastructure packages.
package domain

// Event is a named collection of fights that share a season and a claim
// lifecycle. Events are created once and never deleted.
type Event struct {
	ID            string
	SeasonID      uint64
	NumFights     uint32
	ClaimReady    bool
	ClaimDeadline int64 // unix seconds, 0 = unset
	CreatedAt     int64
}

// DeadlinePassed reports whether the claim deadline is set and now is past it.
func (e Event) DeadlinePassed(now int64) bool {
	return e.ClaimDeadline != 0 && now > e.ClaimDeadline
}
