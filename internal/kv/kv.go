// Package kv is the durable key-value gateway used for session continuity:
// staged carts, selected merchant, panel visibility and unread-notification
// state survive a reload through it. Values are JSON documents keyed by a
// buyer-scoped string.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for an absent key. Callers that rehydrate
// treat it as "start fresh", not as a failure.
var ErrNotFound = errors.New("kv: key not found")

// Store is the persistence gateway contract.
type Store interface {
	// Get unmarshals the value stored under key into out.
	Get(ctx context.Context, key string, out interface{}) error
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value interface{}) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
