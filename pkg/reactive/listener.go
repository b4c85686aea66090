package reactive

// Listener is anything that can be notified when a dependency changes.
// It is implemented by effects and signal subscriptions.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies has changed.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Used for deduplication during batch processing.
	ID() uint64
}

// Cleanup is a function returned by effects to clean up resources.
// It is called before the effect re-runs and when the effect is disposed.
type Cleanup func()

// funcListener adapts a plain callback to the Listener interface.
type funcListener struct {
	id uint64
	fn func()
}

func (l *funcListener) MarkDirty() { l.fn() }

func (l *funcListener) ID() uint64 { return l.id }
