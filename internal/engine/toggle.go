// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package engine

import (
	"sync"
	"time"
)

// Direction is the direction of a requested toggle.
type Direction int

const (
	WillEnable Direction = iota + 1
	WillDisable
)

func (d Direction) String() string {
	if d == WillEnable {
		return "will_enable"
	}
	return "will_disable"
}

// Enabled returns the enabled value the toggle commits.
func (d Direction) Enabled() bool {
	return d == WillEnable
}

// Pending is a scheduled toggle not yet committed.
type Pending struct {
	Direction Direction
	FireAt    time.Time
}

// PendingToggle debounces user enable/disable requests. A request is
// committed after a fixed delay unless it is cancelled or replaced first.
type PendingToggle struct {
	mu      sync.Mutex
	delay   time.Duration
	current *Pending
	timer   *time.Timer
	seq     uint64

	effective func() bool
	onCommit  func(enabled bool)
	onChange  func(p *Pending)
	now       func() time.Time
}

// NewPendingToggle creates a toggle. effective returns the committed
// enabled state; onCommit runs on the timer goroutine; onChange receives
// every change of the pending value, nil included.
func NewPendingToggle(delay time.Duration, effective func() bool, onCommit func(bool), onChange func(*Pending)) *PendingToggle {
	return &PendingToggle{
		delay:     delay,
		effective: effective,
		onCommit:  onCommit,
		onChange:  onChange,
		now:       time.Now,
	}
}

// Request asks for enabled. Matching the effective state clears any pending
// toggle. The same direction as the pending toggle is a no-op. Otherwise
// the pending toggle is (re)scheduled.
func (t *PendingToggle) Request(enabled bool) {
	t.mu.Lock()

	if enabled == t.effective() {
		had := t.clearLocked()
		t.mu.Unlock()
		if had {
			t.changed(nil)
		}
		return
	}

	dir := WillDisable
	if enabled {
		dir = WillEnable
	}
	if t.current != nil && t.current.Direction == dir {
		t.mu.Unlock()
		return
	}

	t.clearLocked()
	t.seq++
	seq := t.seq
	p := &Pending{Direction: dir, FireAt: t.now().Add(t.delay)}
	t.current = p
	t.timer = time.AfterFunc(t.delay, func() { t.fire(seq) })
	t.mu.Unlock()

	t.changed(p)
}

// Cancel drops the pending toggle. The preference reverts to the effective
// state.
func (t *PendingToggle) Cancel() {
	t.mu.Lock()
	had := t.clearLocked()
	t.mu.Unlock()
	if had {
		t.changed(nil)
	}
}

// Current returns a copy of the pending toggle, or nil.
func (t *PendingToggle) Current() *Pending {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return nil
	}
	p := *t.current
	return &p
}

// Preference is the enabled value the user last asked for: the pending
// direction, or the effective state when nothing is pending.
func (t *PendingToggle) Preference() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current != nil {
		return t.current.Direction.Enabled()
	}
	return t.effective()
}

// Stop drops the pending toggle without publishing.
func (t *PendingToggle) Stop() {
	t.mu.Lock()
	t.clearLocked()
	t.mu.Unlock()
}

func (t *PendingToggle) fire(seq uint64) {
	t.mu.Lock()
	if t.current == nil || t.seq != seq {
		t.mu.Unlock()
		return
	}
	enabled := t.current.Direction.Enabled()
	t.current, t.timer = nil, nil
	t.mu.Unlock()

	if t.onCommit != nil {
		t.onCommit(enabled)
	}
	t.changed(nil)
}

func (t *PendingToggle) clearLocked() bool {
	if t.current == nil {
		return false
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.current, t.timer = nil, nil
	return true
}

func (t *PendingToggle) changed(p *Pending) {
	if t.onChange != nil {
		t.onChange(p)
	}
}
