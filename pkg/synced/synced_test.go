package synced

import (
	"context"
	stderrors "errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/hooks/internal/errors"
	"github.com/vango-dev/hooks/pkg/reactive"
	"github.com/vango-dev/hooks/pkg/storage"
)

type prefs struct {
	FontSize int      `json:"fontSize"`
	Language string   `json:"language"`
	Tags     []string `json:"tags,omitempty"`
}

func TestRoundTrip(t *testing.T) {
	ctx := t.Context()
	medium := storage.NewMemory()

	defaults := prefs{FontSize: 14, Language: "en"}
	v, err := New(ctx, medium, "prefs", &defaults)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if diff := cmp.Diff(defaults, v.Get()); diff != "" {
		t.Errorf("initial value mismatch (-want +got):\n%s", diff)
	}

	want := prefs{FontSize: 18, Language: "de", Tags: []string{"a"}}
	if err := v.Set(ctx, want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// A fresh Value ignores its default once the key is stored.
	other := prefs{FontSize: 1}
	reloaded, err := New(ctx, medium, "prefs", &other)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if diff := cmp.Diff(want, reloaded.Get()); diff != "" {
		t.Errorf("reloaded value mismatch (-want +got):\n%s", diff)
	}

	raw, _, _ := medium.Get(ctx, "prefs")
	if raw != `{"fontSize":18,"language":"de","tags":["a"]}` {
		t.Errorf("stored form = %s", raw)
	}
}

func TestNew_DoesNotWrite(t *testing.T) {
	medium := storage.NewMemory()
	d := 3
	if _, err := New(t.Context(), medium, "n", &d); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := medium.Get(t.Context(), "n"); ok {
		t.Error("New wrote the default to the medium")
	}
}

func TestWithPersistDefault(t *testing.T) {
	ctx := t.Context()
	medium := storage.NewMemory()

	d := prefs{FontSize: 14, Language: "en"}
	v, err := New(ctx, medium, "prefs", &d, WithPersistDefault())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	raw, ok, _ := medium.Get(ctx, "prefs")
	if !ok || raw != `{"fontSize":14,"language":"en"}` {
		t.Errorf("stored form = %q, %v; want the default", raw, ok)
	}
	if diff := cmp.Diff(d, v.Get()); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}

	// A stored value is never overwritten by the default.
	other := prefs{FontSize: 20}
	if _, err := New(ctx, medium, "prefs", &other, WithPersistDefault()); err != nil {
		t.Fatalf("New: %v", err)
	}
	if raw, _, _ := medium.Get(ctx, "prefs"); raw != `{"fontSize":14,"language":"en"}` {
		t.Errorf("stored form = %q after second New", raw)
	}

	// Without a default there is nothing to store.
	if _, err := New[int](ctx, medium, "n", nil, WithPersistDefault()); err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok, _ := medium.Get(ctx, "n"); ok {
		t.Error("New stored a key with no default")
	}
}

func TestClearRemovesKey(t *testing.T) {
	ctx := t.Context()
	medium := storage.NewMemory()

	d := 1
	v, _ := New(ctx, medium, "count", &d)
	_ = v.Set(ctx, 5)

	if err := v.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got, ok := v.Lookup(); ok {
		t.Errorf("Lookup after Clear = %v, true; want nothing", got)
	}
	if v.Get() != 0 {
		t.Errorf("Get after Clear = %d, want zero value", v.Get())
	}
	if _, ok, _ := medium.Get(ctx, "count"); ok {
		t.Error("key still stored after Clear")
	}

	fresh, _ := New(ctx, medium, "count", &d)
	if got, ok := fresh.Lookup(); !ok || got != 1 {
		t.Errorf("re-initialized Lookup = %d, %v; want default 1", got, ok)
	}
}

func TestAbsentWithoutDefault(t *testing.T) {
	v, err := New[string](t.Context(), storage.NewMemory(), "name", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := v.Lookup(); ok || got != "" {
		t.Errorf("Lookup = %q, %v; want nothing", got, ok)
	}
}

func TestStoredNullIsPresent(t *testing.T) {
	ctx := t.Context()
	medium := storage.NewMemory()
	_ = medium.Set(ctx, "p", "null")

	d := &prefs{FontSize: 10}
	v, err := New(ctx, medium, "p", &d)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := v.Lookup()
	if !ok {
		t.Fatal("stored null reported as absent")
	}
	if got != nil {
		t.Errorf("Lookup = %+v, want nil pointer", got)
	}
}

func TestDecodeFailure(t *testing.T) {
	ctx := t.Context()
	medium := storage.NewMemory()
	_ = medium.Set(ctx, "prefs", "{not json")

	d := prefs{FontSize: 14}
	_, err := New(ctx, medium, "prefs", &d)
	if !errors.HasCode(err, "E101") {
		t.Fatalf("err = %v, want E101", err)
	}

	raw, _, _ := medium.Get(ctx, "prefs")
	if raw != "{not json" {
		t.Errorf("stored value changed to %q", raw)
	}
}

func TestDefaultIsCopied(t *testing.T) {
	ctx := t.Context()
	d := map[string]int{"a": 1}

	v, err := New(ctx, storage.NewMemory(), "m", &d)
	if err != nil {
		t.Fatal(err)
	}
	d["a"] = 99
	d["b"] = 2

	if diff := cmp.Diff(map[string]int{"a": 1}, v.Get()); diff != "" {
		t.Errorf("value aliased the default (-want +got):\n%s", diff)
	}

	_ = v.Set(ctx, map[string]int{"x": 1})
	if err := v.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]int{"a": 1}, v.Get()); diff != "" {
		t.Errorf("Reset mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdate(t *testing.T) {
	ctx := t.Context()
	medium := storage.NewMemory()
	d := 1
	v, _ := New(ctx, medium, "n", &d)

	for range 3 {
		if err := v.Update(ctx, func(n int) int { return n * 2 }); err != nil {
			t.Fatal(err)
		}
	}
	if v.Get() != 8 {
		t.Errorf("Get = %d, want 8", v.Get())
	}
	raw, _, _ := medium.Get(ctx, "n")
	if raw != "8" {
		t.Errorf("stored = %q, want 8", raw)
	}
}

func TestResetWithoutDefaultClears(t *testing.T) {
	ctx := t.Context()
	medium := storage.NewMemory()
	v, _ := New[int](ctx, medium, "n", nil)
	_ = v.Set(ctx, 4)

	if err := v.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := v.Lookup(); ok {
		t.Error("Reset without default should clear")
	}
}

func TestEncodeFailureLeavesValue(t *testing.T) {
	ctx := t.Context()
	medium := storage.NewMemory()
	var d any = "ok"
	v, _ := New(ctx, medium, "k", &d)

	err := v.Set(ctx, make(chan int))
	if !errors.HasCode(err, "E102") {
		t.Fatalf("err = %v, want E102", err)
	}
	if v.Get() != "ok" {
		t.Errorf("Get = %v, want unchanged", v.Get())
	}
	if _, ok, _ := medium.Get(ctx, "k"); ok {
		t.Error("unencodable value reached the medium")
	}
}

type failingMedium struct {
	*storage.Memory
	err error
}

func (f failingMedium) Set(ctx context.Context, key, value string) error {
	return f.err
}

func TestWriteFailure(t *testing.T) {
	ctx := t.Context()
	boom := stderrors.New("disk full")
	medium := failingMedium{Memory: storage.NewMemory(), err: boom}

	v, _ := New[int](ctx, medium, "n", nil)
	err := v.Set(ctx, 7)
	if !errors.HasCode(err, "E104") || !stderrors.Is(err, boom) {
		t.Fatalf("err = %v, want E104 wrapping cause", err)
	}
	if v.Get() != 7 {
		t.Errorf("Get = %d, want in-memory value kept", v.Get())
	}
}

func TestDisposedOwnerStopsWrites(t *testing.T) {
	ctx := t.Context()
	medium := storage.NewMemory()
	owner := reactive.NewOwner(nil)

	var v *Value[int]
	var err error
	reactive.WithOwner(owner, func() {
		v, err = New[int](ctx, medium, "n", nil)
	})
	if err != nil {
		t.Fatal(err)
	}
	_ = v.Set(ctx, 1)

	owner.Dispose()

	for name, write := range map[string]func() error{
		"Set":    func() error { return v.Set(ctx, 2) },
		"Clear":  func() error { return v.Clear(ctx) },
		"Update": func() error { return v.Update(ctx, func(n int) int { return n + 1 }) },
	} {
		err := write()
		if !stderrors.Is(err, ErrDisposed) || !errors.HasCode(err, "E105") {
			t.Errorf("%s after dispose: err = %v, want ErrDisposed", name, err)
		}
	}

	raw, _, _ := medium.Get(ctx, "n")
	if raw != "1" {
		t.Errorf("stored = %q, want 1", raw)
	}
}

func TestGetIsTracked(t *testing.T) {
	ctx := t.Context()
	v, _ := New[int](ctx, storage.NewMemory(), "n", nil)

	var seen []int
	e := reactive.CreateEffect(func() reactive.Cleanup {
		seen = append(seen, v.Get())
		return nil
	})
	defer e.Dispose()

	_ = v.Set(ctx, 1)
	_ = v.Set(ctx, 1) // unchanged, no re-run
	_ = v.Set(ctx, 2)

	if diff := cmp.Diff([]int{0, 1, 2}, seen); diff != "" {
		t.Errorf("effect runs mismatch (-want +got):\n%s", diff)
	}
}

func TestSubscribe(t *testing.T) {
	ctx := t.Context()
	v, _ := New[string](ctx, storage.NewMemory(), "s", nil)

	var got []string
	unsubscribe := v.Subscribe(func(s string, present bool) {
		got = append(got, s+":"+strconv.FormatBool(present))
	})
	_ = v.Set(ctx, "a")
	_ = v.Clear(ctx)
	unsubscribe()
	_ = v.Set(ctx, "b")

	if diff := cmp.Diff([]string{"a:true", ":false"}, got); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestSubscriberCanWrite(t *testing.T) {
	ctx := t.Context()
	medium := storage.NewMemory()
	v, _ := New[int](ctx, medium, "n", nil)

	// Clamp negative values back to zero from inside the notification.
	v.Subscribe(func(n int, present bool) {
		if present && n < 0 {
			_ = v.Set(ctx, 0)
		}
	})

	done := make(chan error, 1)
	go func() { done <- v.Set(ctx, -5) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Set: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Set did not return while a subscriber wrote the value")
	}

	if got := v.Peek(); got != 0 {
		t.Errorf("value = %d, want 0", got)
	}
	if raw, _, _ := medium.Get(ctx, "n"); raw != "0" {
		t.Errorf("stored form = %q, want 0", raw)
	}
}

func TestWatchAppliesExternalChanges(t *testing.T) {
	ctx := t.Context()
	medium := storage.NewMemory()
	loop := reactive.NewLoop()
	defer loop.Close()

	a, _ := New[int](ctx, medium, "n", nil, WithWatch(loop))
	b, _ := New[int](ctx, medium, "n", nil, WithWatch(loop))

	_ = a.Set(ctx, 5)
	if n := loop.Drain(); n != 1 {
		t.Errorf("dispatched = %d, want 1 (the writer skips its own change)", n)
	}
	if b.Get() != 5 {
		t.Errorf("b = %d, want 5", b.Get())
	}

	_ = b.Clear(ctx)
	loop.Drain()
	if _, ok := a.Lookup(); ok {
		t.Error("a still holds a value after b cleared the key")
	}

	// Written by something that is not a Value, e.g. the CLI.
	_ = medium.Set(ctx, "n", "9")
	loop.Drain()
	if a.Get() != 9 || b.Get() != 9 {
		t.Errorf("a, b = %d, %d; want 9, 9", a.Get(), b.Get())
	}

	// Undecodable changes are ignored.
	_ = medium.Set(ctx, "n", "nine")
	loop.Drain()
	if a.Get() != 9 {
		t.Errorf("a = %d after undecodable change, want 9", a.Get())
	}
}

func TestWatchLocalWins(t *testing.T) {
	ctx := t.Context()
	medium := storage.NewMemory()

	v, _ := New[int](ctx, medium, "n", nil,
		WithWatch(reactive.Immediate), WithMergeStrategy(LocalWins))
	_ = medium.Set(ctx, "n", "3")

	if _, ok := v.Lookup(); ok {
		t.Error("LocalWins applied an external change")
	}
}

func TestWatchStopsOnDispose(t *testing.T) {
	ctx := t.Context()
	medium := storage.NewMemory()

	v, _ := New[int](ctx, medium, "n", nil, WithWatch(reactive.Immediate))
	v.Dispose()
	_ = medium.Set(ctx, "n", "3")

	if _, ok := v.Lookup(); ok {
		t.Error("disposed value applied an external change")
	}
}

type upperCodec struct{}

func (upperCodec) Encode(s string) (string, error) { return "s:" + s, nil }
func (upperCodec) Decode(s string) (string, error) {
	if len(s) < 2 || s[:2] != "s:" {
		return "", stderrors.New("missing prefix")
	}
	return s[2:], nil
}

func TestWithCodec(t *testing.T) {
	ctx := t.Context()
	medium := storage.NewMemory()

	v, err := New[string](ctx, medium, "k", nil, WithCodec[string](upperCodec{}))
	if err != nil {
		t.Fatal(err)
	}
	_ = v.Set(ctx, "hello")
	raw, _, _ := medium.Get(ctx, "k")
	if raw != "s:hello" {
		t.Errorf("stored = %q", raw)
	}

	if _, err := New[int](ctx, medium, "k", nil, WithCodec[string](upperCodec{})); err == nil {
		t.Error("expected error for mismatched codec type")
	}
}

func TestMergeStrategyString(t *testing.T) {
	if LWW.String() != "lww" || LocalWins.String() != "local-wins" {
		t.Error("unexpected strategy names")
	}
}
