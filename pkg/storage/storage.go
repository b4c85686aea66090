// Package storage defines the key-value storage medium that synced values
// are mirrored to, and ships several implementations:
//
//   - Memory: in-process map, supports change watching (like browser storage events)
//   - File: a single JSON file written atomically, the localStorage analogue
//   - Pebble: an embedded LSM store
//   - S3: one object per key in a bucket
//   - Cached: LRU read-through cache in front of a slower medium
//   - Instrumented: Prometheus metrics and OpenTelemetry spans around any medium
package storage

import (
	"context"
	"errors"
)

// Medium is a string key-value store.
// Implementations must be safe for concurrent use.
type Medium interface {
	// Get returns the stored value. ok is false when the key is absent;
	// absence is not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// Lister is implemented by mediums that can enumerate their keys.
type Lister interface {
	Keys(ctx context.Context) ([]string, error)
}

// Event describes a change made to a key.
type Event struct {
	Key     string
	Value   string
	Removed bool
}

// Watcher is implemented by mediums that can report changes made through
// any handle to the same store.
type Watcher interface {
	// Watch calls fn after every change to key. The returned function
	// stops the watch. fn must not block.
	Watch(key string, fn func(Event)) (cancel func())
}

// ErrClosed is returned when operations are attempted on a closed medium.
var ErrClosed = errors.New("storage: medium is closed")

// Keys lists m's keys, or returns ErrNotListable if m cannot enumerate them.
func Keys(ctx context.Context, m Medium) ([]string, error) {
	l, ok := m.(Lister)
	if !ok {
		return nil, ErrNotListable
	}
	return l.Keys(ctx)
}

// ErrNotListable is returned by Keys for mediums without a Lister.
var ErrNotListable = errors.New("storage: medium cannot list keys")

// Wrapper is implemented by mediums that decorate another medium.
type Wrapper interface {
	Unwrap() Medium
}

// AsWatcher returns m as a Watcher if the innermost medium behind any
// wrappers supports watching.
func AsWatcher(m Medium) (Watcher, bool) {
	w, ok := m.(Watcher)
	if !ok {
		return nil, false
	}
	inner := m
	for {
		u, ok := inner.(Wrapper)
		if !ok {
			break
		}
		inner = u.Unwrap()
	}
	if _, ok := inner.(Watcher); !ok {
		return nil, false
	}
	return w, true
}
