package retry

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Profile is the floor and cap of a backoff schedule.
type Profile struct {
	Floor time.Duration
	Cap   time.Duration
}

var (
	// FastProfile suits background bulk backups (payments, contacts, cards).
	FastProfile = Profile{Floor: 250 * time.Millisecond, Cap: 512 * time.Second}
	// SlowProfile suits user-visible backups (seed).
	SlowProfile = Profile{Floor: 5 * time.Second, Cap: 600 * time.Second}
)

// Backoff is a deterministic doubling schedule that counts attempts.
// It is not safe for concurrent use.
type Backoff struct {
	eb       *backoff.ExponentialBackOff
	attempts int
}

// NewBackoff returns a schedule for p. The first delay is p.Floor.
func NewBackoff(p Profile) *Backoff {
	eb := &backoff.ExponentialBackOff{
		InitialInterval:     p.Floor,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         p.Cap,
	}
	eb.Reset()

	return &Backoff{eb: eb}
}

// Next returns the next delay, clamped up to hint.
func (b *Backoff) Next(hint time.Duration) time.Duration {
	b.attempts++
	d := b.eb.NextBackOff()
	if hint > d {
		d = hint
	}
	return d
}

// Attempts returns the number of delays handed out since the last reset.
func (b *Backoff) Attempts() int {
	return b.attempts
}

// Reset returns the schedule to its floor.
func (b *Backoff) Reset() {
	b.attempts = 0
	b.eb.Reset()
}
