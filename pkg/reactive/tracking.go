package reactive

import (
	"runtime"
	"sync"
)

// trackingContext holds the reactive state for a goroutine.
// Each goroutine has its own context so the Loop and test goroutines do not
// observe each other's listeners or owners.
type trackingContext struct {
	// currentOwner owns newly created effects and hooks.
	currentOwner *Owner

	// currentListener is what's currently tracking dependencies.
	// nil means reads don't create subscriptions.
	currentListener Listener

	// batchDepth tracks nested Batch() calls.
	batchDepth int

	// pendingUpdates accumulates listeners to notify when a batch completes.
	pendingUpdates []Listener
}

var trackingContexts sync.Map

// getGoroutineID extracts the current goroutine's ID from its stack header
// ("goroutine <id> [...]").
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

func (c *trackingContext) idle() bool {
	return c.currentOwner == nil && c.currentListener == nil &&
		c.batchDepth == 0 && len(c.pendingUpdates) == 0
}

// lookupTrackingContext returns the context of the calling goroutine, or nil
// when the goroutine has none. Reads never create a context.
func lookupTrackingContext() *trackingContext {
	if ctx, ok := trackingContexts.Load(getGoroutineID()); ok {
		return ctx.(*trackingContext)
	}
	return nil
}

// updateTrackingContext applies fn to the calling goroutine's context.
// The context is created on demand and dropped again once fn leaves it
// idle, so goroutines that finish with no owner, listener or batch leave
// nothing behind.
func updateTrackingContext(fn func(ctx *trackingContext)) {
	gid := getGoroutineID()
	var ctx *trackingContext
	if v, ok := trackingContexts.Load(gid); ok {
		ctx = v.(*trackingContext)
	} else {
		ctx = &trackingContext{}
	}

	fn(ctx)

	if ctx.idle() {
		trackingContexts.Delete(gid)
	} else {
		trackingContexts.Store(gid, ctx)
	}
}

func getCurrentListener() Listener {
	if ctx := lookupTrackingContext(); ctx != nil {
		return ctx.currentListener
	}
	return nil
}

// setCurrentListener sets the listener and returns the previous one.
func setCurrentListener(l Listener) (old Listener) {
	updateTrackingContext(func(ctx *trackingContext) {
		old = ctx.currentListener
		ctx.currentListener = l
	})
	return old
}

// CurrentOwner returns the owner current on this goroutine, or nil.
func CurrentOwner() *Owner {
	if ctx := lookupTrackingContext(); ctx != nil {
		return ctx.currentOwner
	}
	return nil
}

func setCurrentOwner(o *Owner) (old *Owner) {
	updateTrackingContext(func(ctx *trackingContext) {
		old = ctx.currentOwner
		ctx.currentOwner = o
	})
	return old
}

func getBatchDepth() int {
	if ctx := lookupTrackingContext(); ctx != nil {
		return ctx.batchDepth
	}
	return 0
}

func incrementBatchDepth() {
	updateTrackingContext(func(ctx *trackingContext) {
		ctx.batchDepth++
	})
}

// decrementBatchDepth returns true when the outermost batch completes.
func decrementBatchDepth() (outermost bool) {
	updateTrackingContext(func(ctx *trackingContext) {
		ctx.batchDepth--
		outermost = ctx.batchDepth == 0
	})
	return outermost
}

func queuePendingUpdate(l Listener) {
	updateTrackingContext(func(ctx *trackingContext) {
		ctx.pendingUpdates = append(ctx.pendingUpdates, l)
	})
}

func drainPendingUpdates() (updates []Listener) {
	if lookupTrackingContext() == nil {
		return nil
	}
	updateTrackingContext(func(ctx *trackingContext) {
		updates = ctx.pendingUpdates
		ctx.pendingUpdates = nil
	})
	return updates
}

// trackingContextCount returns how many goroutines hold a tracking context.
func trackingContextCount() int {
	n := 0
	trackingContexts.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// WithOwner runs fn with owner as the current owner.
// Hooks created inside fn register their teardown with owner.
//
//	reactive.WithOwner(component, func() {
//	    prefs, err = synced.New(ctx, medium, "prefs", &defaults)
//	})
func WithOwner(owner *Owner, fn func()) {
	old := setCurrentOwner(owner)
	defer setCurrentOwner(old)
	fn()
}

// WithListener runs fn with l tracking signal reads.
func WithListener(l Listener, fn func()) {
	old := setCurrentListener(l)
	defer setCurrentListener(old)
	fn()
}

// releaseGoroutineContext drops the tracking context of the calling
// goroutine whatever its state. Loop.Run calls it on exit.
func releaseGoroutineContext() {
	trackingContexts.Delete(getGoroutineID())
}
