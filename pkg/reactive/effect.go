package reactive

import (
	"sync"
	"sync/atomic"
)

// Effect is a reactive side effect that re-runs when the signals it read
// during its last run change.
//
// Effects run immediately when created. When a dependency changes, an effect
// with an owner is scheduled and runs on the owner's next RunPendingEffects
// (the Loop does this after every dispatched callback). An effect without an
// owner re-runs synchronously.
type Effect struct {
	id uint64

	fn      func() Cleanup
	cleanup Cleanup

	sources   []*signalBase
	sourcesMu sync.Mutex

	owner *Owner

	pending  atomic.Bool
	disposed atomic.Bool
}

// MarkDirty implements Listener.
func (e *Effect) MarkDirty() {
	if e.disposed.Load() {
		return
	}
	if e.owner == nil {
		e.run()
		return
	}
	// CAS so the effect is scheduled at most once per tick.
	if e.pending.CompareAndSwap(false, true) {
		e.owner.scheduleEffect(e)
	}
}

// ID implements Listener.
func (e *Effect) ID() uint64 {
	return e.id
}

// run executes the effect function, re-tracking its sources.
func (e *Effect) run() {
	if e.disposed.Load() {
		return
	}
	e.pending.Store(false)

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}

	e.sourcesMu.Lock()
	for _, source := range e.sources {
		source.unsubscribe(e)
	}
	e.sources = e.sources[:0]
	e.sourcesMu.Unlock()

	old := setCurrentListener(e)
	defer setCurrentListener(old)
	e.cleanup = e.fn()
}

func (e *Effect) addSource(source *signalBase) {
	e.sourcesMu.Lock()
	defer e.sourcesMu.Unlock()

	for _, s := range e.sources {
		if s == source {
			return
		}
	}
	e.sources = append(e.sources, source)
}

// Dispose runs the last cleanup and unsubscribes from all sources.
// Disposing twice is a no-op.
func (e *Effect) Dispose() {
	if e.disposed.Swap(true) {
		return
	}

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}

	e.sourcesMu.Lock()
	for _, source := range e.sources {
		source.unsubscribe(e)
	}
	e.sources = nil
	e.sourcesMu.Unlock()
}

// CreateEffect creates and runs a new effect within the current owner.
//
//	reactive.CreateEffect(func() reactive.Cleanup {
//	    ctx, cancel := context.WithCancel(context.Background())
//	    go load(ctx, url.Get())
//	    return cancel
//	})
func CreateEffect(fn func() Cleanup) *Effect {
	owner := CurrentOwner()

	e := &Effect{
		id:    nextID(),
		fn:    fn,
		owner: owner,
	}
	if owner != nil {
		owner.registerEffect(e)
	}

	e.run()
	return e
}

// OnCleanup registers fn to run when the current owner is disposed.
// Without a current owner, fn is never called.
func OnCleanup(fn func()) {
	if owner := CurrentOwner(); owner != nil {
		owner.OnCleanup(fn)
	}
}
