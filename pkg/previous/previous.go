// Package previous remembers the value a variable had during the previous
// render.
//
//	owner.Render(func() {
//	    prev, ok := previous.Use(count.Get())
//	    if ok && prev != count.Peek() {
//	        log.Printf("count changed from %d", prev)
//	    }
//	})
package previous

import "github.com/vango-dev/hooks/pkg/reactive"

// Tracker holds the value observed in the last cycle.
// The zero value is ready to use.
type Tracker[T any] struct {
	last T
	seen bool
}

// Observe records v for this cycle and returns the value recorded in the
// previous one. ok is false on the first call.
func (t *Tracker[T]) Observe(v T) (prev T, ok bool) {
	prev, ok = t.last, t.seen
	t.last, t.seen = v, true
	return prev, ok
}

// Last returns the most recently observed value without recording one.
func (t *Tracker[T]) Last() (T, bool) {
	return t.last, t.seen
}

// Use is the hook form of Tracker: called during Owner.Render it keeps one
// Tracker per call site, found again on every render by call order.
// Outside a render there is no previous cycle and ok is always false.
func Use[T any](v T) (prev T, ok bool) {
	var t *Tracker[T]
	if slot := reactive.UseHookSlot(); slot != nil {
		existing, isTracker := slot.(*Tracker[T])
		if !isTracker {
			panic("previous: hook slot type mismatch; hooks must be called in the same order on every render")
		}
		t = existing
	} else {
		t = &Tracker[T]{}
		reactive.SetHookSlot(t)
	}
	return t.Observe(v)
}
