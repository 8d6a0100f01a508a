// Package server runs the record store's transports.
//
// It starts the HTTP API and the gRPC health service side by side and shuts
// both down gracefully when the context ends or one of them fails.
package server
