// Package config loads, merges and validates configuration for the sync
// client and the record store server.
//
// Values come from command-line flags, environment variables, an optional
// JSON or YAML file and built-in defaults. For every field the first source
// with a non-zero value wins, in that order.
//
// Entry points are [GetClientConfig] and [GetServerConfig]; both build on
// [GetStructuredConfig].
package config
