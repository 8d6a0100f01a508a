// Package http implements the record store's REST API.
//
// It exposes route wiring, request handlers and middleware. Authentication,
// request tracing, access logging and response compression are handled in
// this package before requests are delegated to the service layer.
package http
