// Package reactive provides the reactive runtime that the hooks build on.
//
// Dependencies are tracked automatically at runtime: reading a signal while
// an effect (or any other listener) is running subscribes that listener to
// the signal's changes.
//
// # Core Types
//
// Signal[T] is a reactive value container:
//
//	count := reactive.NewSignal(0)
//	value := count.Get()  // Read (subscribes current listener)
//	count.Set(5)          // Write (notifies subscribers)
//	count.Update(func(n int) int { return n + 1 })
//
// Effect runs side effects when dependencies change:
//
//	reactive.CreateEffect(func() reactive.Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return func() { /* cleanup */ }
//	})
//
// Owner is a component scope. Effects, cleanups and child owners created
// while an Owner is current are disposed together with it.
//
// Loop is the single update thread. Timers and network callbacks never touch
// signals directly; they Dispatch a function onto the loop, which runs it and
// then flushes pending effects:
//
//	loop := reactive.NewLoop()
//	go loop.Run(ctx)
//	time.AfterFunc(time.Second, func() {
//	    loop.Dispatch(func() { count.Set(1) })
//	})
//
// # Batching
//
// Multiple signal updates can be batched to trigger a single notification:
//
//	reactive.Batch(func() {
//	    a.Set(1)
//	    b.Set(2)
//	})
//
// # Thread Safety
//
// Signals are safe for concurrent use, but the runtime assumes one writer
// per value: all writes should happen on the Loop.
package reactive
