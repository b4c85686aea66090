package synced

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/hooks/internal/errors"
	"github.com/vango-dev/hooks/pkg/codec"
	"github.com/vango-dev/hooks/pkg/reactive"
	"github.com/vango-dev/hooks/pkg/storage"
)

// ErrDisposed is wrapped by errors returned from writes after the owning
// component was disposed.
var ErrDisposed = stderrors.New("synced: value disposed")

// entry is the in-memory state. present is false for the none-sentinel.
type entry[T any] struct {
	value   T
	present bool
}

// Value is a piece of state mirrored to one key of a storage medium.
type Value[T any] struct {
	key    string
	medium storage.Medium
	codec  codec.Codec[T]
	logger *slog.Logger
	cfg    config

	state    *reactive.Signal[entry[T]]
	defaults *T

	// writeMu serializes writes so the medium sees them in call order.
	// It is never held while subscribers run.
	writeMu sync.Mutex
	// pending is the encoded form of the write in progress, used to
	// recognize our own change when the medium echoes it to watchers.
	pending atomic.Pointer[storage.Event]

	unwatch  func()
	disposed atomic.Bool
}

// New loads key from medium and returns a Value holding it.
//
// If the key is present its stored form is decoded; a decode failure is
// returned (code E101) rather than hidden behind the default. If the key
// is absent the Value starts from a deep copy of defaultValue, or holds
// nothing when defaultValue is nil. New does not write to the medium
// unless WithPersistDefault is given.
func New[T any](ctx context.Context, medium storage.Medium, key string, defaultValue *T, opts ...Option) (*Value[T], error) {
	cfg := config{
		logger:     slog.Default(),
		dispatcher: reactive.Immediate,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var c codec.Codec[T] = codec.JSON[T]{}
	if cfg.codec != nil {
		typed, ok := cfg.codec.(codec.Codec[T])
		if !ok {
			var zero T
			return nil, fmt.Errorf("synced: codec %T does not encode %T", cfg.codec, zero)
		}
		c = typed
	}

	v := &Value[T]{
		key:    key,
		medium: medium,
		codec:  c,
		logger: cfg.logger.With("key", key),
		cfg:    cfg,
	}

	if defaultValue != nil {
		d, err := codec.Clone(c, *defaultValue)
		if err != nil {
			return nil, errors.New("E102").WithKey(key).
				WithDetail("The default value could not be copied").Wrap(err)
		}
		v.defaults = &d
	}

	initial, stored, err := v.load(ctx)
	if err != nil {
		return nil, err
	}
	v.state = reactive.NewSignal(initial)

	if cfg.persistDefault && !stored && initial.present {
		if err := v.writeDefault(ctx, initial.value); err != nil {
			return nil, err
		}
	}

	if cfg.watch && cfg.strategy != LocalWins {
		if w, ok := storage.AsWatcher(medium); ok {
			v.unwatch = w.Watch(key, v.onExternalChange)
		}
	}

	reactive.OnCleanup(v.Dispose)
	return v, nil
}

// load reads the initial state and reports whether the key was stored.
func (v *Value[T]) load(ctx context.Context) (entry[T], bool, error) {
	raw, ok, err := v.medium.Get(ctx, v.key)
	if err != nil {
		return entry[T]{}, false, errors.New("E103").WithKey(v.key).Wrap(err)
	}
	if ok {
		decoded, err := v.codec.Decode(raw)
		if err != nil {
			return entry[T]{}, true, errors.New("E101").WithKey(v.key).Wrap(err)
		}
		return entry[T]{value: decoded, present: true}, true, nil
	}
	e, err := v.defaultEntry()
	return e, false, err
}

// writeDefault stores the default the Value started from.
func (v *Value[T]) writeDefault(ctx context.Context, value T) error {
	raw, err := v.codec.Encode(value)
	if err != nil {
		return errors.New("E102").WithKey(v.key).Wrap(err)
	}
	v.writeMu.Lock()
	defer v.writeMu.Unlock()
	return v.persist(storage.Event{Key: v.key, Value: raw}, func() error {
		return v.medium.Set(ctx, v.key, raw)
	})
}

// defaultEntry returns a fresh copy of the default, or the none-sentinel.
func (v *Value[T]) defaultEntry() (entry[T], error) {
	if v.defaults == nil {
		return entry[T]{}, nil
	}
	d, err := codec.Clone(v.codec, *v.defaults)
	if err != nil {
		return entry[T]{}, errors.New("E102").WithKey(v.key).Wrap(err)
	}
	return entry[T]{value: d, present: true}, nil
}

// Key returns the storage key.
func (v *Value[T]) Key() string {
	return v.key
}

// Get returns the current value, or the zero value when the Value holds
// nothing. Inside an effect the read is tracked.
func (v *Value[T]) Get() T {
	return v.state.Get().value
}

// Lookup returns the current value and whether there is one.
func (v *Value[T]) Lookup() (T, bool) {
	e := v.state.Get()
	return e.value, e.present
}

// Peek returns the current value without tracking.
func (v *Value[T]) Peek() T {
	return v.state.Peek().value
}

// Subscribe calls fn after every change of the in-memory value, including
// changes applied from other writers. The returned function unsubscribes.
func (v *Value[T]) Subscribe(fn func(value T, present bool)) func() {
	return v.state.Subscribe(func(e entry[T]) {
		fn(e.value, e.present)
	})
}

// Set replaces the value and writes it to the medium.
//
// A value the codec cannot encode is rejected (E102) and nothing changes.
// If the medium fails (E104) the in-memory value keeps the new value.
func (v *Value[T]) Set(ctx context.Context, value T) error {
	if v.disposed.Load() {
		return v.disposedError()
	}
	raw, err := v.codec.Encode(value)
	if err != nil {
		return errors.New("E102").WithKey(v.key).Wrap(err)
	}

	return v.commit(entry[T]{value: value, present: true}, storage.Event{Key: v.key, Value: raw}, func() error {
		return v.medium.Set(ctx, v.key, raw)
	})
}

// Clear makes the Value hold nothing and removes the key from the medium.
func (v *Value[T]) Clear(ctx context.Context) error {
	if v.disposed.Load() {
		return v.disposedError()
	}

	return v.commit(entry[T]{}, storage.Event{Key: v.key, Removed: true}, func() error {
		return v.medium.Remove(ctx, v.key)
	})
}

// Update sets the value to fn applied to the current value.
func (v *Value[T]) Update(ctx context.Context, fn func(T) T) error {
	return v.Set(ctx, fn(v.Peek()))
}

// Reset restores the default value, or clears the Value when it has none.
func (v *Value[T]) Reset(ctx context.Context) error {
	if v.defaults == nil {
		return v.Clear(ctx)
	}
	d, err := v.defaultEntry()
	if err != nil {
		return err
	}
	return v.Set(ctx, d.value)
}

// commit writes e to the medium and then publishes it. Subscribers are
// notified after writeMu is released, so they may write the Value again.
func (v *Value[T]) commit(e entry[T], ev storage.Event, write func() error) error {
	v.writeMu.Lock()
	err := v.persist(ev, write)
	v.writeMu.Unlock()

	v.state.Set(e)
	return err
}

func (v *Value[T]) persist(ev storage.Event, write func() error) error {
	v.pending.Store(&ev)
	defer v.pending.Store(nil)

	if err := write(); err != nil {
		v.logger.Error("synced write failed", "removed", ev.Removed, "error", err)
		return errors.New("E104").WithKey(v.key).Wrap(err)
	}
	return nil
}

// onExternalChange runs on the medium's notifying goroutine.
func (v *Value[T]) onExternalChange(ev storage.Event) {
	if p := v.pending.Load(); p != nil && *p == ev {
		return
	}
	v.cfg.dispatcher.Dispatch(func() {
		v.applyExternal(ev)
	})
}

func (v *Value[T]) applyExternal(ev storage.Event) {
	if v.disposed.Load() {
		return
	}
	if ev.Removed {
		v.state.Set(entry[T]{})
		return
	}
	decoded, err := v.codec.Decode(ev.Value)
	if err != nil {
		v.logger.Warn("ignoring undecodable external change", "error", err)
		return
	}
	v.state.Set(entry[T]{value: decoded, present: true})
}

// Dispose detaches the Value from its medium. It runs automatically when
// the owning component is disposed.
func (v *Value[T]) Dispose() {
	if v.disposed.Swap(true) {
		return
	}
	if v.unwatch != nil {
		v.unwatch()
	}
}

func (v *Value[T]) disposedError() error {
	return errors.New("E105").WithKey(v.key).Wrap(ErrDisposed)
}
