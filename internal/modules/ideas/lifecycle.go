package ideas

import "time"

// CooldownDuration is the advisory waiting period after idea creation before
// the first position should be opened. It never blocks opening one.
const CooldownDuration = 24 * time.Hour

// DeriveStatus computes the idea status from its owned positions:
// watching with none, active while any is open, exited once every position
// is closed and at least one ever existed.
func DeriveStatus(positions []Position) Status {
	if len(positions) == 0 {
		return StatusWatching
	}
	for _, p := range positions {
		if p.IsOpen {
			return StatusActive
		}
	}
	return StatusExited
}

// CanTransition reports whether moving between the two states is legal.
// The machine never skips a state: watching → active on the first open,
// active → exited when the last open position closes.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusWatching:
		return to == StatusActive
	case StatusActive:
		return to == StatusExited
	default:
		return false
	}
}

// CooldownRemaining returns how long the advisory cooldown still runs.
// It applies only while watching with zero positions; otherwise zero.
func CooldownRemaining(idea Idea, positions []Position, now time.Time) time.Duration {
	if len(positions) > 0 || DeriveStatus(positions) != StatusWatching {
		return 0
	}
	end := idea.CreatedAt.Add(CooldownDuration)
	if !now.Before(end) {
		return 0
	}
	return end.Sub(now)
}
