// Package debounce delays propagation of a rapidly changing value until it
// has been stable for a while.
//
// A typical use is a search box: the input value changes on every keystroke
// but the query should only run once the user pauses.
//
//	query := debounce.New(loop, "", 300*time.Millisecond)
//	onInput := func(s string) { query.Set(s) }
//
//	reactive.CreateEffect(func() reactive.Cleanup {
//	    search(query.Get()) // runs 300ms after the last keystroke
//	    return nil
//	})
package debounce

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/vango-dev/hooks/pkg/reactive"
)

type config struct {
	clock clock.Clock
}

// Option configures a Debouncer.
type Option func(*config)

// WithClock sets the clock used for timers. Tests pass clock.NewMock().
func WithClock(c clock.Clock) Option {
	return func(cfg *config) {
		cfg.clock = c
	}
}

// Debouncer holds the debounced copy of an input value.
//
// Each Set restarts the wait; the output takes the latest input once no Set
// happened for the delay. The output is updated on the dispatcher, never
// on the timer goroutine.
type Debouncer[T any] struct {
	dispatcher reactive.Dispatcher
	clock      clock.Clock
	out        *reactive.Signal[T]

	mu       sync.Mutex
	delay    time.Duration
	pending  T
	waiting  bool
	timer    *clock.Timer
	gen      uint64
	disposed bool
}

// New creates a Debouncer whose output starts at initial. If an owner is
// current, the pending timer is cancelled when it is disposed.
func New[T any](d reactive.Dispatcher, initial T, delay time.Duration, opts ...Option) *Debouncer[T] {
	cfg := config{clock: clock.New()}
	for _, opt := range opts {
		opt(&cfg)
	}

	db := &Debouncer[T]{
		dispatcher: d,
		clock:      cfg.clock,
		out:        reactive.NewSignal(initial),
		delay:      delay,
	}
	reactive.OnCleanup(db.Dispose)
	return db
}

// Set records a new input value and restarts the wait.
func (d *Debouncer[T]) Set(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.disposed {
		return
	}
	d.pending = value
	d.waiting = true
	d.restartLocked()
}

// SetDelay changes the delay. A pending value waits the full new delay.
func (d *Debouncer[T]) SetDelay(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.delay = delay
	if d.waiting && !d.disposed {
		d.restartLocked()
	}
}

// Delay returns the current delay.
func (d *Debouncer[T]) Delay() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.delay
}

func (d *Debouncer[T]) restartLocked() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.dispatcher.Dispatch(func() { d.emit(gen) })
	})
}

// emit runs on the dispatcher. A timer that was stopped after it had
// already fired carries an old generation and is ignored.
func (d *Debouncer[T]) emit(gen uint64) {
	d.mu.Lock()
	if d.disposed || gen != d.gen || !d.waiting {
		d.mu.Unlock()
		return
	}
	value := d.pending
	d.waiting = false
	d.timer = nil
	d.mu.Unlock()

	d.out.Set(value)
}

// Get returns the debounced value. Inside an effect the read is tracked.
func (d *Debouncer[T]) Get() T {
	return d.out.Get()
}

// Peek returns the debounced value without tracking.
func (d *Debouncer[T]) Peek() T {
	return d.out.Peek()
}

// Pending reports whether an input is waiting to be emitted.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.waiting
}

// Subscribe calls fn with every emitted value.
func (d *Debouncer[T]) Subscribe(fn func(T)) func() {
	return d.out.Subscribe(fn)
}

// Dispose cancels any pending emission. Later Sets are ignored.
func (d *Debouncer[T]) Dispose() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.disposed {
		return
	}
	d.disposed = true
	d.waiting = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
