package lockout

import "time"

// State is the lockout view over a user record: the consecutive
// failed-attempt counter and the optional lock deadline.
type State struct {
	FailedAttempts int
	LockedUntil    *time.Time
}

// Policy holds the lockout tuning parameters. Threshold is the number of
// consecutive failures that triggers a lock; Duration is how long the lock
// holds. A zero-value Policy never locks.
type Policy struct {
	Threshold int
	Duration  time.Duration
}

// Locked reports whether the state is locked at the given instant and, if
// so, the deadline the lock expires at.
func (p Policy) Locked(s State, now time.Time) (bool, time.Time) {
	if s.LockedUntil == nil {
		return false, time.Time{}
	}
	if !s.LockedUntil.After(now) {
		return false, time.Time{}
	}
	return true, *s.LockedUntil
}

// RecordFailure returns the state after one more failed attempt. When the
// new count reaches the threshold the lock deadline is set to now plus the
// configured duration. A failure after an expired lock starts a fresh
// count, so one mistyped password never re-locks for a full duration.
// The input state is not mutated.
func (p Policy) RecordFailure(s State, now time.Time) State {
	if s.LockedUntil != nil && !s.LockedUntil.After(now) {
		s = State{}
	}

	next := State{FailedAttempts: s.FailedAttempts + 1}

	if p.Threshold > 0 && next.FailedAttempts >= p.Threshold {
		until := now.Add(p.Duration)
		next.LockedUntil = &until
	} else {
		next.LockedUntil = s.LockedUntil
	}

	return next
}

// RecordSuccess returns the cleared state: zero failures, no lock.
func (p Policy) RecordSuccess(s State) State {
	return State{}
}
