package retry

import "time"

// Decision tells the caller how to react to an operation failure.
type Decision struct {
	Class Class

	// Wait is the delay before the next attempt. Zero means retry as soon
	// as the state machine allows.
	Wait time.Duration

	// Attempt is the backoff attempt the wait belongs to (1-based), or zero
	// when no wait is needed.
	Attempt int
}

// ShouldWait reports whether the decision carries a delay.
func (d Decision) ShouldWait() bool {
	return d.Wait > 0
}

// Policy turns whole-operation failures into wait decisions. It is owned by
// one coordinator and is not safe for concurrent use.
type Policy struct {
	backoff   *Backoff
	lastClass Class
	failed    bool
}

// NewPolicy returns a policy using profile p.
func NewPolicy(p Profile) *Policy {
	return &Policy{backoff: NewBackoff(p)}
}

// Decide classifies err and computes the wait before the next attempt.
//
//   - Cancelled never waits and does not count as a failure.
//   - AuthRequired and ContainerMissing wait only when the same class failed
//     the previous attempt too.
//   - Conflict never waits.
//   - TransientAccount and Other always wait.
//   - A server hint forces a wait of at least the hint.
func (p *Policy) Decide(err error) Decision {
	class := Classify(err)
	if class == ClassCancelled {
		return Decision{Class: class}
	}

	hint := MinRetryHint(err)
	repeated := p.failed && p.lastClass == class
	p.failed = true
	p.lastClass = class

	wait := hint > 0
	switch class {
	case ClassTransientAccount, ClassOther:
		wait = true
	case ClassAuthRequired, ClassContainerMissing:
		wait = wait || repeated
	}

	if !wait {
		return Decision{Class: class}
	}

	d := p.backoff.Next(hint)
	return Decision{Class: class, Wait: d, Attempt: p.backoff.Attempts()}
}

// Succeeded resets the backoff after a fully successful operation.
func (p *Policy) Succeeded() {
	p.failed = false
	p.lastClass = ClassOther
	p.backoff.Reset()
}

// Attempts returns the current backoff attempt count.
func (p *Policy) Attempts() int {
	return p.backoff.Attempts()
}
