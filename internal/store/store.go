// Package store abstracts the key-value backend events are persisted in.
//
// Backends are eventually consistent from the caller's point of view: a key
// written immediately before a List call may not be returned by it, and a
// listed key may be gone by the time it is fetched. Callers must not assume
// read-after-write consistency.
package store

import (
	"context"
	"errors"
	"time"
)

// MaxListLimit bounds the number of keys a single List call returns.
const MaxListLimit = 1000

var (
	// ErrNotFound is returned by Get for absent or expired keys.
	ErrNotFound = errors.New("key not found")

	// ErrUnavailable wraps every failure of the underlying backend.
	ErrUnavailable = errors.New("store unavailable")

	// ErrInvalidCursor is returned for cursors that were not produced by a
	// List call with the same prefix.
	ErrInvalidCursor = errors.New("invalid cursor")
)

// ListOptions selects one page of keys.
type ListOptions struct {
	// Prefix restricts the listing to keys starting with it. Empty lists all keys.
	Prefix string

	// Cursor continues a previous incomplete listing.
	Cursor string

	// Limit is clamped to [1, MaxListLimit].
	Limit int
}

// ListResult is one page of keys in ascending lexicographic order.
type ListResult struct {
	Keys []string

	// Cursor is set if and only if Complete is false.
	Cursor string

	Complete bool
}

// EventStore is the persistence contract for events.
type EventStore interface {
	// Put stores value under key, replacing any previous value. A positive
	// ttl lets the backend remove the key no earlier than ttl from now.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns up to opts.Limit keys with opts.Prefix.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// ClampLimit bounds a requested page size to [1, MaxListLimit].
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// page trims candidates, which must hold up to limit+1 sorted keys, into a
// ListResult. The extra key only signals that more keys follow.
func page(candidates []string, limit int) *ListResult {
	if len(candidates) <= limit {
		return &ListResult{Keys: candidates, Complete: true}
	}
	keys := candidates[:limit]
	return &ListResult{
		Keys:     keys,
		Cursor:   EncodeCursor(keys[len(keys)-1]),
		Complete: false,
	}
}
