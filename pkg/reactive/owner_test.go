package reactive

import (
	"sync"
	"testing"
)

func TestOwnerDisposeOrder(t *testing.T) {
	root := NewOwner(nil)
	child := NewOwner(root)

	var order []string
	root.OnCleanup(func() { order = append(order, "root-1") })
	root.OnCleanup(func() { order = append(order, "root-2") })
	child.OnCleanup(func() { order = append(order, "child") })

	root.Dispose()

	want := []string{"child", "root-2", "root-1"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if !child.IsDisposed() {
		t.Fatal("child should be disposed with its parent")
	}
}

func TestOwnerOnCleanupAfterDisposeRunsImmediately(t *testing.T) {
	o := NewOwner(nil)
	o.Dispose()

	ran := false
	o.OnCleanup(func() { ran = true })
	if !ran {
		t.Fatal("cleanup registered after dispose should run immediately")
	}
}

func TestOwnerChildRemovedFromParent(t *testing.T) {
	root := NewOwner(nil)
	defer root.Dispose()

	child := NewOwner(root)
	child.Dispose()

	root.childrenMu.Lock()
	n := len(root.children)
	root.childrenMu.Unlock()
	if n != 0 {
		t.Fatalf("disposed child still registered, children = %d", n)
	}
}

func TestHookSlotsStableAcrossRenders(t *testing.T) {
	o := NewOwner(nil)
	defer o.Dispose()

	var first, second *int
	for i := 0; i < 2; i++ {
		o.Render(func() {
			slot := UseHookSlot()
			var p *int
			if slot == nil {
				p = new(int)
				SetHookSlot(p)
			} else {
				p = slot.(*int)
			}
			*p++
			if i == 0 {
				first = p
			} else {
				second = p
			}
		})
	}

	if first != second {
		t.Fatal("hook slot identity changed between renders")
	}
	if *second != 2 {
		t.Fatalf("slot value = %d, want 2", *second)
	}
}

func TestUseHookSlotOutsideRender(t *testing.T) {
	o := NewOwner(nil)
	defer o.Dispose()

	WithOwner(o, func() {
		if UseHookSlot() != nil {
			t.Fatal("UseHookSlot outside render should return nil")
		}
		SetHookSlot(1)
	})
	if len(o.hookSlots) != 0 {
		t.Fatal("SetHookSlot outside render should not store")
	}
}

func TestTrackingContextsReleasedWhenIdle(t *testing.T) {
	sig := NewSignal(0)
	before := trackingContextCount()

	var wg sync.WaitGroup
	for i := 0; i < 1000; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			own := NewSignal(i)
			WithOwner(NewOwner(nil), func() {
				_ = sig.Get()
				Batch(func() { own.Set(i + 1) })
				Untracked(func() { _ = own.Get() })
			})
		}()
	}
	wg.Wait()

	if after := trackingContextCount(); after != before {
		t.Errorf("tracking contexts = %d after 1000 goroutines, want %d", after, before)
	}
}

func TestTrackingContextKeptWhileOwnerSet(t *testing.T) {
	before := trackingContextCount()
	WithOwner(NewOwner(nil), func() {
		if CurrentOwner() == nil {
			t.Fatal("CurrentOwner() = nil inside WithOwner")
		}
		if got := trackingContextCount(); got != before+1 {
			t.Errorf("tracking contexts = %d inside WithOwner, want %d", got, before+1)
		}
	})
	if CurrentOwner() != nil {
		t.Error("owner still current after WithOwner returned")
	}
	if got := trackingContextCount(); got != before {
		t.Errorf("tracking contexts = %d after WithOwner, want %d", got, before)
	}
}
