package debounce

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/hooks/pkg/reactive"
)

// waitEmit runs the next dispatched callback, failing if none arrives.
func waitEmit(t *testing.T, loop *reactive.Loop) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := loop.RunOne(ctx); err != nil {
		t.Fatalf("no emission: %v", err)
	}
}

func TestOnlyLastInputIsEmitted(t *testing.T) {
	mock := clock.NewMock()
	loop := reactive.NewLoop()
	defer loop.Close()

	const delay = 500 * time.Millisecond
	d := New(loop, "", delay, WithClock(mock))

	var emitted []string
	d.Subscribe(func(s string) { emitted = append(emitted, s) })

	d.Set("a") // t
	mock.Add(200 * time.Millisecond)
	d.Set("ab") // t+Δ

	// The first input's deadline passes without an emission.
	mock.Add(delay - time.Millisecond)
	if n := loop.Drain(); n != 0 {
		t.Fatalf("emitted before t+Δ+delay (%d callbacks)", n)
	}
	if d.Get() != "" {
		t.Errorf("Get() = %q before deadline, want initial", d.Get())
	}
	if !d.Pending() {
		t.Error("Pending() = false while waiting")
	}

	mock.Add(time.Millisecond)
	waitEmit(t, loop)

	if d.Get() != "ab" {
		t.Errorf("Get() = %q, want ab", d.Get())
	}
	if diff := cmp.Diff([]string{"ab"}, emitted); diff != "" {
		t.Errorf("emissions mismatch (-want +got):\n%s", diff)
	}
	if d.Pending() {
		t.Error("Pending() = true after emission")
	}
}

func TestSetDelayRestartsWait(t *testing.T) {
	mock := clock.NewMock()
	loop := reactive.NewLoop()
	defer loop.Close()

	d := New(loop, 0, 100*time.Millisecond, WithClock(mock))
	d.Set(1)
	mock.Add(50 * time.Millisecond)

	d.SetDelay(300 * time.Millisecond)
	if d.Delay() != 300*time.Millisecond {
		t.Errorf("Delay() = %v", d.Delay())
	}

	mock.Add(299 * time.Millisecond)
	if n := loop.Drain(); n != 0 {
		t.Fatal("emitted before the new delay elapsed")
	}

	mock.Add(time.Millisecond)
	waitEmit(t, loop)
	if d.Get() != 1 {
		t.Errorf("Get() = %d, want 1", d.Get())
	}
}

func TestDisposeCancels(t *testing.T) {
	mock := clock.NewMock()
	loop := reactive.NewLoop()
	defer loop.Close()

	owner := reactive.NewOwner(nil)
	var d *Debouncer[string]
	reactive.WithOwner(owner, func() {
		d = New(loop, "initial", time.Second, WithClock(mock))
	})

	d.Set("typed")
	owner.Dispose()
	mock.Add(2 * time.Second)

	loop.Drain()
	if d.Get() != "initial" {
		t.Errorf("Get() = %q after dispose, want initial", d.Get())
	}

	d.Set("late")
	mock.Add(2 * time.Second)
	loop.Drain()
	if d.Peek() != "initial" {
		t.Errorf("Set after dispose changed the output to %q", d.Peek())
	}
}

func TestStaleTimerIgnored(t *testing.T) {
	loop := reactive.NewLoop()
	defer loop.Close()

	d := New(loop, 0, time.Hour, WithClock(clock.NewMock()))
	d.Set(1)

	d.mu.Lock()
	staleGen := d.gen
	d.mu.Unlock()

	d.Set(2)
	d.emit(staleGen)

	if d.Peek() != 0 {
		t.Errorf("stale emission applied: %d", d.Peek())
	}
}

func TestRealClock(t *testing.T) {
	loop := reactive.NewLoop()
	defer loop.Close()

	d := New(loop, "", 10*time.Millisecond)
	d.Set("x")
	waitEmit(t, loop)

	if d.Get() != "x" {
		t.Errorf("Get() = %q, want x", d.Get())
	}
}
