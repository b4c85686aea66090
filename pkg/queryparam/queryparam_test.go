package queryparam

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vango-dev/hooks/pkg/reactive"
)

func mustLocation(t *testing.T, raw string) *MemoryLocation {
	t.Helper()
	loc, err := NewMemoryLocation(raw)
	if err != nil {
		t.Fatal(err)
	}
	return loc
}

func TestSetAddsParam(t *testing.T) {
	loc := mustLocation(t, "/search")
	New(loc, "q").Set("x")

	if loc.String() != "/search?q=x" {
		t.Errorf("location = %q, want /search?q=x", loc.String())
	}
	if loc.Replacements() != 1 {
		t.Errorf("Replacements() = %d, want 1", loc.Replacements())
	}
}

func TestDeleteKeepsOtherParams(t *testing.T) {
	loc := mustLocation(t, "/search?q=x&y=1")
	New(loc, "q").Delete()

	if loc.String() != "/search?y=1" {
		t.Errorf("location = %q, want /search?y=1", loc.String())
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		present bool
	}{
		{"/search?q=go", "go", true},
		{"/search?q=", "", true},
		{"/search?q", "", true},
		{"/search?q=a&q=b", "a", true},
		{"/search?q=hello%20world", "hello world", true},
		{"/search", "", false},
		{"/search?y=1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := New(mustLocation(t, tt.url), "q").Get()
			if got != tt.want || ok != tt.present {
				t.Errorf("Get() = %q, %v; want %q, %v", got, ok, tt.want, tt.present)
			}
		})
	}
}

func TestSetReplacesAllOccurrences(t *testing.T) {
	loc := mustLocation(t, "/s?q=a&q=b&page=2")
	New(loc, "q").Set("c & d")

	if loc.String() != "/s?q=c+%26+d&page=2" {
		t.Errorf("location = %q", loc.String())
	}
}

func TestWriteKeepsOtherPairsVerbatim(t *testing.T) {
	tests := []struct {
		name string
		url  string
		set  string
		want string
	}{
		{"invalid escape", "/p?a=%zz&q=1", "2", "/p?a=%zz&q=2"},
		{"semicolon", "/p?a=1;b=2&q=1", "2", "/p?a=1;b=2&q=2"},
		{"fragment", "/p?q=1#section", "2", "/p?q=2#section"},
		{"order", "/p?z=1&q=1&a=1", "2", "/p?z=1&q=2&a=1"},
		{"encoded name", "/p?%71=1&b=2", "x y", "/p?q=x+y&b=2"},
		{"append", "/p?b=%2F#top", "1", "/p?b=%2F&q=1#top"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := mustLocation(t, tt.url)
			New(loc, "q").Set(tt.set)
			if loc.String() != tt.want {
				t.Errorf("location = %q, want %q", loc.String(), tt.want)
			}
		})
	}
}

func TestDeleteKeepsFragment(t *testing.T) {
	loc := mustLocation(t, "/p?q=1&a=%zz#section")
	New(loc, "q").Delete()

	if loc.String() != "/p?a=%zz#section" {
		t.Errorf("location = %q, want /p?a=%%zz#section", loc.String())
	}
}

func TestSetPtr(t *testing.T) {
	loc := mustLocation(t, "/s")
	b := New(loc, "sort")

	v := "asc"
	b.SetPtr(&v)
	if b.Value() != "asc" {
		t.Errorf("Value() = %q", b.Value())
	}

	b.SetPtr(nil)
	if _, ok := b.Get(); ok {
		t.Error("SetPtr(nil) did not remove the parameter")
	}
	if loc.String() != "/s" {
		t.Errorf("location = %q, want /s", loc.String())
	}
}

func TestBindingIsReactive(t *testing.T) {
	loc := mustLocation(t, "/s")
	b := New(loc, "q")

	var seen []string
	e := reactive.CreateEffect(func() reactive.Cleanup {
		seen = append(seen, b.Value())
		return nil
	})
	defer e.Dispose()

	b.Set("a")
	New(loc, "page").Set("2") // other params re-run too
	if len(seen) != 3 || seen[1] != "a" {
		t.Errorf("seen = %q", seen)
	}
}

func TestRequestLocation(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/search?q=x&y=1", nil)
	loc := FromRequest(r)

	w := httptest.NewRecorder()
	if loc.Redirect(w, r) {
		t.Fatal("redirected without a change")
	}

	New(loc, "q").Delete()
	if !loc.Changed() {
		t.Fatal("Changed() = false after Delete")
	}
	if !loc.Redirect(w, r) {
		t.Fatal("Redirect() = false after change")
	}
	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d", w.Code)
	}
	if got := w.Header().Get("Location"); got != "/search?y=1" {
		t.Errorf("Location = %q", got)
	}
}

func TestName(t *testing.T) {
	if New(mustLocation(t, "/"), "q").Name() != "q" {
		t.Error("Name() mismatch")
	}
}
