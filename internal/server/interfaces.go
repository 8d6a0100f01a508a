package server

import "context"

// Server defines the lifecycle contract for the transport servers managed
// by this package.
type Server interface {
	// Run serves requests until ctx is done or a transport fails, then
	// shuts every transport down.
	Run(ctx context.Context) error
}

// transport is one listener managed by the composite server.
type transport interface {
	name() string
	serve() error
	shutdown(ctx context.Context) error
}
