package queryparam

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/vango-dev/hooks/pkg/reactive"
)

// MemoryLocation is a Location held in memory, for tests and for
// server-side components. Reads are tracked, so effects reading a Binding
// re-run when the location changes.
type MemoryLocation struct {
	current *reactive.Signal[string]

	mu       sync.Mutex
	replaced int
}

// NewMemoryLocation starts at rawURL, e.g. "/search?q=go".
func NewMemoryLocation(rawURL string) (*MemoryLocation, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	return &MemoryLocation{current: reactive.NewSignal(u.String())}, nil
}

// URL implements Location.
func (l *MemoryLocation) URL() *url.URL {
	// Only ever holds strings produced by url.URL.String.
	u, _ := url.Parse(l.current.Get())
	return u
}

// Replace implements Location. The current fragment is kept.
func (l *MemoryLocation) Replace(path, rawQuery string) {
	u := url.URL{Path: path, RawQuery: rawQuery}
	if cur, err := url.Parse(l.current.Peek()); err == nil {
		u.Fragment, u.RawFragment = cur.Fragment, cur.RawFragment
	}
	l.mu.Lock()
	l.replaced++
	l.mu.Unlock()
	l.current.Set(u.String())
}

// String returns the current path and query.
func (l *MemoryLocation) String() string {
	return l.current.Peek()
}

// Replacements returns how many times Replace was called.
func (l *MemoryLocation) Replacements() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.replaced
}

// RequestLocation is the Location of an incoming HTTP request. A server
// renders from it, lets bindings change it, and then calls Redirect so the
// browser's address bar follows.
type RequestLocation struct {
	url     *url.URL
	changed bool
}

// FromRequest returns the Location of r.
func FromRequest(r *http.Request) *RequestLocation {
	u := &url.URL{
		Path:        r.URL.Path,
		RawQuery:    r.URL.RawQuery,
		Fragment:    r.URL.Fragment,
		RawFragment: r.URL.RawFragment,
	}
	return &RequestLocation{url: u}
}

// URL implements Location.
func (l *RequestLocation) URL() *url.URL {
	return l.url
}

// Replace implements Location. The current fragment is kept.
func (l *RequestLocation) Replace(path, rawQuery string) {
	l.url = &url.URL{
		Path:        path,
		RawQuery:    rawQuery,
		Fragment:    l.url.Fragment,
		RawFragment: l.url.RawFragment,
	}
	l.changed = true
}

// Changed reports whether Replace was called.
func (l *RequestLocation) Changed() bool {
	return l.changed
}

// Redirect sends the browser to the replaced location with 303 See Other,
// which browsers follow with a GET. It reports whether it wrote a response.
func (l *RequestLocation) Redirect(w http.ResponseWriter, r *http.Request) bool {
	if !l.changed {
		return false
	}
	http.Redirect(w, r, l.url.String(), http.StatusSeeOther)
	return true
}
