package engine

import "errors"

var (
	ErrUnknownDomain      = errors.New("unknown sync domain")
	ErrCoordinatorClosed  = errors.New("coordinator is closed")
	ErrCoordinatorStarted = errors.New("coordinator already started")
	ErrMissingDependency  = errors.New("coordinator dependency is nil")
)
