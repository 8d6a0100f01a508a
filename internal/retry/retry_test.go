package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Classify ──────────────────────────────────────────────────────────────────

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Class
	}{
		{nil, ClassOther},
		{context.Canceled, ClassCancelled},
		{fmt.Errorf("upload: %w", context.Canceled), ClassCancelled},
		{fmt.Errorf("modify: %w", ErrAuthRequired), ClassAuthRequired},
		{ErrContainerMissing, ClassContainerMissing},
		{ErrConflict, ClassConflict},
		{WithHint(ErrTransientAccount, time.Second), ClassTransientAccount},
		{context.DeadlineExceeded, ClassOther},
		{errors.New("boom"), ClassOther},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestWithHint(t *testing.T) {
	assert.Nil(t, WithHint(nil, time.Second))
	assert.Equal(t, ErrConflict, WithHint(ErrConflict, 0))

	err := fmt.Errorf("query: %w", WithHint(ErrTransientAccount, 30*time.Second))
	assert.Equal(t, 30*time.Second, MinRetryHint(err))
	assert.ErrorIs(t, err, ErrTransientAccount)
	assert.Zero(t, MinRetryHint(errors.New("plain")))
}

// ── Backoff ───────────────────────────────────────────────────────────────────

func TestBackoff_GrowsToCapThenResets(t *testing.T) {
	b := NewBackoff(FastProfile)

	prev := time.Duration(0)
	var delays []time.Duration
	for i := 0; i < 20; i++ {
		d := b.Next(0)
		require.GreaterOrEqual(t, d, prev, "delays must be non-decreasing")
		require.LessOrEqual(t, d, FastProfile.Cap)
		delays = append(delays, d)
		prev = d
	}

	assert.Equal(t, 250*time.Millisecond, delays[0])
	assert.Equal(t, 500*time.Millisecond, delays[1])
	assert.Equal(t, time.Second, delays[2])
	assert.Equal(t, FastProfile.Cap, delays[len(delays)-1])
	assert.Equal(t, 20, b.Attempts())

	b.Reset()
	assert.Zero(t, b.Attempts())
	assert.Equal(t, FastProfile.Floor, b.Next(0))
}

func TestBackoff_SlowProfile(t *testing.T) {
	b := NewBackoff(SlowProfile)

	assert.Equal(t, 5*time.Second, b.Next(0))
	assert.Equal(t, 10*time.Second, b.Next(0))
	for i := 0; i < 10; i++ {
		b.Next(0)
	}
	assert.Equal(t, 600*time.Second, b.Next(0))
}

func TestBackoff_ClampedToHint(t *testing.T) {
	b := NewBackoff(FastProfile)

	assert.Equal(t, time.Minute, b.Next(time.Minute))
	assert.Equal(t, 500*time.Millisecond, b.Next(time.Millisecond))
}

// ── Policy ────────────────────────────────────────────────────────────────────

func TestPolicy_CancelledNeverWaits(t *testing.T) {
	p := NewPolicy(FastProfile)

	d := p.Decide(context.Canceled)
	assert.Equal(t, ClassCancelled, d.Class)
	assert.False(t, d.ShouldWait())
	assert.Zero(t, p.Attempts())
}

func TestPolicy_ConflictNeverWaits(t *testing.T) {
	p := NewPolicy(FastProfile)

	for i := 0; i < 3; i++ {
		assert.False(t, p.Decide(ErrConflict).ShouldWait())
	}
}

func TestPolicy_TransientAlwaysWaits(t *testing.T) {
	p := NewPolicy(FastProfile)

	first := p.Decide(ErrTransientAccount)
	second := p.Decide(ErrTransientAccount)

	assert.Equal(t, 250*time.Millisecond, first.Wait)
	assert.Equal(t, 1, first.Attempt)
	assert.Equal(t, 500*time.Millisecond, second.Wait)
	assert.Equal(t, 2, second.Attempt)
}

func TestPolicy_StructuralWaitsOnlyWhenRepeated(t *testing.T) {
	p := NewPolicy(FastProfile)

	assert.False(t, p.Decide(ErrAuthRequired).ShouldWait())
	assert.True(t, p.Decide(ErrAuthRequired).ShouldWait())

	assert.False(t, p.Decide(ErrContainerMissing).ShouldWait(), "class changed")
	assert.True(t, p.Decide(ErrContainerMissing).ShouldWait())
}

func TestPolicy_HintForcesWait(t *testing.T) {
	p := NewPolicy(FastProfile)

	d := p.Decide(WithHint(ErrConflict, 3*time.Second))
	assert.Equal(t, 3*time.Second, d.Wait)
}

func TestPolicy_SuccessResets(t *testing.T) {
	p := NewPolicy(FastProfile)

	for i := 0; i < 5; i++ {
		p.Decide(errors.New("network down"))
	}
	require.Equal(t, 5, p.Attempts())

	p.Succeeded()
	assert.Zero(t, p.Attempts())
	assert.Equal(t, FastProfile.Floor, p.Decide(errors.New("again")).Wait)
	assert.False(t, NewPolicy(FastProfile).Decide(ErrAuthRequired).ShouldWait())
}

// ── FailureTracker ────────────────────────────────────────────────────────────

func TestFailureTracker_DropsAfterTwoIdentical(t *testing.T) {
	tr := NewFailureTracker()

	assert.False(t, tr.Record("a", ClassOther, "invalid"))
	assert.Equal(t, 1, tr.Count("a"))
	assert.True(t, tr.Record("a", ClassOther, "invalid"))
	assert.Zero(t, tr.Count("a"), "dropped ids are forgotten")
}

func TestFailureTracker_ConflictNeedsThree(t *testing.T) {
	tr := NewFailureTracker()

	assert.False(t, tr.Record("a", ClassConflict, "conflict"))
	assert.False(t, tr.Record("a", ClassConflict, "conflict"))
	assert.True(t, tr.Record("a", ClassConflict, "conflict"))
}

func TestFailureTracker_ClassChangeRestarts(t *testing.T) {
	tr := NewFailureTracker()

	assert.False(t, tr.Record("a", ClassOther, "invalid"))
	assert.False(t, tr.Record("a", ClassConflict, "conflict"))
	assert.False(t, tr.Record("a", ClassOther, "invalid"))
	assert.Equal(t, 1, tr.Count("a"))
}

func TestFailureTracker_ResetOnSuccess(t *testing.T) {
	tr := NewFailureTracker()

	tr.Record("a", ClassOther, "invalid")
	tr.Reset("a")
	assert.False(t, tr.Record("a", ClassOther, "invalid"))
}

func TestFailureTracker_Independent(t *testing.T) {
	tr := NewFailureTracker()

	tr.Record("a", ClassOther, "x")
	assert.False(t, tr.Record("b", ClassOther, "x"))
	assert.True(t, tr.Record("a", ClassOther, "x"))
}
