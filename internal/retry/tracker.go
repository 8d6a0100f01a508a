package retry

import "sync"

const (
	// DropThreshold is the number of identical consecutive failures after
	// which an item is dropped.
	DropThreshold = 2
	// ConflictDropThreshold applies to conflicts, which usually self-heal.
	ConflictDropThreshold = 3
)

type failure struct {
	count int
	class Class
	code  string
}

// FailureTracker counts consecutive identical failures per entity id.
// It is safe for concurrent use.
type FailureTracker struct {
	mu      sync.Mutex
	entries map[string]failure
}

// NewFailureTracker returns an empty tracker.
func NewFailureTracker() *FailureTracker {
	return &FailureTracker{entries: make(map[string]failure)}
}

// Record registers a failure of id and reports whether it is now permanent.
// A failure with a different class or code than the previous one restarts
// the count at one.
func (t *FailureTracker) Record(id string, class Class, code string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, ok := t.entries[id]
	if ok && f.class == class && f.code == code {
		f.count++
	} else {
		f = failure{count: 1, class: class, code: code}
	}

	threshold := DropThreshold
	if class == ClassConflict {
		threshold = ConflictDropThreshold
	}

	if f.count >= threshold {
		delete(t.entries, id)
		return true
	}

	t.entries[id] = f
	return false
}

// Reset forgets id, typically after a success.
func (t *FailureTracker) Reset(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.entries, id)
}

// Count returns the current streak of id.
func (t *FailureTracker) Count(id string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.entries[id].count
}
