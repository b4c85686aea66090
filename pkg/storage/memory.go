package storage

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-memory medium. It is the default for tests and for
// single-process use, and it notifies watchers on every change.
type Memory struct {
	mu     sync.RWMutex
	data   map[string]string
	closed bool

	watchMu  sync.Mutex
	watchers map[string]map[uint64]func(Event)
	nextID   uint64
}

// NewMemory creates an empty in-memory medium.
func NewMemory() *Memory {
	return &Memory{
		data:     make(map[string]string),
		watchers: make(map[string]map[uint64]func(Event)),
	}
}

// Get implements Medium.
func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.data[key]
	return v, ok, nil
}

// Set implements Medium.
func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.data[key] = value
	m.mu.Unlock()

	m.notify(Event{Key: key, Value: value})
	return nil
}

// Remove implements Medium.
func (m *Memory) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	_, existed := m.data[key]
	delete(m.data, key)
	m.mu.Unlock()

	if existed {
		m.notify(Event{Key: key, Removed: true})
	}
	return nil
}

// Keys implements Lister. Keys are returned sorted.
func (m *Memory) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Watch implements Watcher.
func (m *Memory) Watch(key string, fn func(Event)) func() {
	m.watchMu.Lock()
	defer m.watchMu.Unlock()

	m.nextID++
	id := m.nextID
	if m.watchers[key] == nil {
		m.watchers[key] = make(map[uint64]func(Event))
	}
	m.watchers[key][id] = fn

	return func() {
		m.watchMu.Lock()
		defer m.watchMu.Unlock()
		delete(m.watchers[key], id)
		if len(m.watchers[key]) == 0 {
			delete(m.watchers, key)
		}
	}
}

// notify calls watchers without holding any lock.
func (m *Memory) notify(ev Event) {
	m.watchMu.Lock()
	fns := make([]func(Event), 0, len(m.watchers[ev.Key]))
	for _, fn := range m.watchers[ev.Key] {
		fns = append(fns, fn)
	}
	m.watchMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Close releases the medium. Further operations return ErrClosed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.data = nil
	return nil
}
