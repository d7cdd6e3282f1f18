package replicate

import "time"

// BackoffPolicy governs the poll loop: delays start at InitialDelay and
// double up to MaxDelay, and the whole wait is bounded by Deadline.
type BackoffPolicy struct {
	InitialDelay time.Duration
	Multiplier   int
	MaxDelay     time.Duration
	Deadline     time.Duration
}

// DefaultBackoffPolicy matches the production poll cadence: 1s, 2s, 4s,
// 8s, then 10s flat until the 5 minute deadline.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		InitialDelay: time.Second,
		Multiplier:   2,
		MaxDelay:     10 * time.Second,
		Deadline:     5 * time.Minute,
	}
}

// Next returns the delay that follows current, capped at MaxDelay.
func (p BackoffPolicy) Next(current time.Duration) time.Duration {
	next := current * time.Duration(p.Multiplier)
	if next > p.MaxDelay {
		return p.MaxDelay
	}
	return next
}
