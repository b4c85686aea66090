package reactive

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
)

// Dispatcher queues a function to run on the update thread.
// Hooks that resume asynchronously (timers, network requests) hand their
// state updates to a Dispatcher instead of writing signals directly.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(fn func())

// Dispatch implements Dispatcher.
func (f DispatcherFunc) Dispatch(fn func()) { f(fn) }

// Immediate runs dispatched functions synchronously on the calling
// goroutine. Useful for CLI tools that have no long-lived loop.
var Immediate Dispatcher = DispatcherFunc(func(fn func()) { fn() })

// ErrLoopClosed is returned by Run and RunOne once the loop is closed.
var ErrLoopClosed = errors.New("reactive: loop closed")

// DefaultQueueSize is the dispatch queue capacity used by NewLoop.
const DefaultQueueSize = 256

// Loop is the single-threaded update loop. Dispatched callbacks run in the
// order they were queued; after each callback the owner's pending effects
// are flushed so changes propagate before the next callback runs.
type Loop struct {
	owner  *Owner
	queue  chan func()
	done   chan struct{}
	closed atomic.Bool
	logger *slog.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLoopLogger sets the logger used for dropped callbacks and panics.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithQueueSize sets the dispatch queue capacity.
func WithQueueSize(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.queue = make(chan func(), n)
		}
	}
}

// NewLoop creates a loop with its own root Owner.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		owner:  NewOwner(nil),
		queue:  make(chan func(), DefaultQueueSize),
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Owner returns the loop's root owner.
func (l *Loop) Owner() *Owner {
	return l.owner
}

// Dispatch queues fn to run on the loop. It never blocks: when the loop is
// closed or the queue is full the callback is dropped.
func (l *Loop) Dispatch(fn func()) {
	if l.closed.Load() {
		return
	}
	select {
	case l.queue <- fn:
	case <-l.done:
	default:
		l.logger.Warn("dispatch queue full, discarding callback")
	}
}

// Run executes dispatched callbacks until ctx is done or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	defer releaseGoroutineContext()

	for {
		select {
		case fn := <-l.queue:
			l.execute(fn)
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return ErrLoopClosed
		}
	}
}

// RunOne waits for a single dispatched callback and executes it.
func (l *Loop) RunOne(ctx context.Context) error {
	select {
	case fn := <-l.queue:
		l.execute(fn)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopClosed
	}
}

// Drain executes every callback already queued and returns how many ran.
// Callbacks queued by the drained callbacks are executed too.
func (l *Loop) Drain() int {
	n := 0
	for {
		select {
		case fn := <-l.queue:
			l.execute(fn)
			n++
		default:
			return n
		}
	}
}

// Close stops the loop and disposes its owner tree. Pending callbacks are
// discarded.
func (l *Loop) Close() {
	if l.closed.Swap(true) {
		return
	}
	close(l.done)
	l.owner.Dispose()
}

// execute runs fn with the loop owner current, then flushes effects.
func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("dispatch panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	WithOwner(l.owner, func() {
		fn()
		l.owner.RunPendingEffects()
	})
}
