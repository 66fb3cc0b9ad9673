// Package repository holds the process-wide mutable state of the forwarder:
// the source→destination route table and the activity store, plus the
// optional archive mirror behind them. All mutation goes through their APIs.
package repository

import "errors"

var (
	// ErrSelfRoute is returned when a mutation would map a source chat to
	// itself. Self-routing is rejected everywhere, never silently accepted.
	ErrSelfRoute = errors.New("source cannot route to itself")

	// ErrRouteNotFound is returned by Remove for a source with no routes.
	ErrRouteNotFound = errors.New("route not found")

	// ErrInvalidChatID is returned for zero chat IDs in route mutations.
	ErrInvalidChatID = errors.New("chat id must be non-zero")
)
