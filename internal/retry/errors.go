// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package retry classifies sync failures, computes exponential backoff
// delays and tracks consecutive per-entity failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Class is the retry class of a failure.
type Class int

const (
	// ClassOther is any failure without a more specific class.
	ClassOther Class = iota
	// ClassCancelled means the operation was aborted on purpose.
	ClassCancelled
	// ClassAuthRequired means the remote account needs (new) credentials.
	ClassAuthRequired
	// ClassContainerMissing means the remote container does not exist.
	ClassContainerMissing
	// ClassConflict means a write carried a stale change tag.
	ClassConflict
	// ClassTransientAccount means the account is temporarily unavailable
	// (throttled, quota, maintenance).
	ClassTransientAccount
)

func (c Class) String() string {
	switch c {
	case ClassCancelled:
		return "cancelled"
	case ClassAuthRequired:
		return "auth_required"
	case ClassContainerMissing:
		return "container_missing"
	case ClassConflict:
		return "conflict"
	case ClassTransientAccount:
		return "transient_account"
	default:
		return "other"
	}
}

// Sentinel errors that transports wrap to signal a class.
var (
	ErrAuthRequired     = errors.New("authentication required")
	ErrContainerMissing = errors.New("container not found")
	ErrConflict         = errors.New("record changed on server")
	ErrTransientAccount = errors.New("account temporarily unavailable")
)

// HintError carries the server's minimum retry delay.
type HintError struct {
	Err      error
	MinRetry time.Duration
}

func (e *HintError) Error() string {
	return fmt.Sprintf("%v (retry after %s)", e.Err, e.MinRetry)
}

func (e *HintError) Unwrap() error {
	return e.Err
}

// WithHint attaches a minimum retry delay to err. A non-positive delay
// returns err unchanged.
func WithHint(err error, minRetry time.Duration) error {
	if err == nil || minRetry <= 0 {
		return err
	}
	return &HintError{Err: err, MinRetry: minRetry}
}

// MinRetryHint returns the server hint carried by err, or zero.
func MinRetryHint(err error) time.Duration {
	var hint *HintError
	if errors.As(err, &hint) {
		return hint.MinRetry
	}
	return 0
}

// Classify maps err to its retry class. A nil error is ClassOther; callers
// only classify failures.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassOther
	case errors.Is(err, context.Canceled):
		return ClassCancelled
	case errors.Is(err, ErrAuthRequired):
		return ClassAuthRequired
	case errors.Is(err, ErrContainerMissing):
		return ClassContainerMissing
	case errors.Is(err, ErrConflict):
		return ClassConflict
	case errors.Is(err, ErrTransientAccount):
		return ClassTransientAccount
	default:
		return ClassOther
	}
}
