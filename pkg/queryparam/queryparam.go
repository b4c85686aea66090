// Package queryparam binds a single query-string parameter of the current
// location to component state.
//
// Writes replace the current history entry instead of pushing a new one,
// so typing into a search box does not fill the back button. Other
// parameters are preserved byte for byte, in their original order, even
// when they are not valid query encoding. The fragment is kept.
//
//	q := queryparam.New(loc, "q")
//	q.Set("golang")  // /search -> /search?q=golang
//	q.Delete()       // back to /search
package queryparam

import (
	"net/url"
	"strings"
)

// Location is the URL surface a Binding reads and writes.
type Location interface {
	// URL returns the current location. Callers must not modify it.
	URL() *url.URL

	// Replace navigates to path?rawQuery without adding a history entry.
	Replace(path, rawQuery string)
}

// Binding is one named parameter of a Location.
type Binding struct {
	loc  Location
	name string
}

// New binds the parameter name of loc.
func New(loc Location, name string) *Binding {
	return &Binding{loc: loc, name: name}
}

// Name returns the parameter name.
func (b *Binding) Name() string {
	return b.name
}

// Get returns the parameter's first value and whether it is present.
// A parameter given without a value (?q or ?q=) is present and empty.
func (b *Binding) Get() (string, bool) {
	for _, pair := range splitQuery(b.loc.URL().RawQuery) {
		key, value, _ := strings.Cut(pair, "=")
		if unescape(key) == b.name {
			return unescape(value), true
		}
	}
	return "", false
}

// Value returns the parameter's value, or "" when it is absent.
func (b *Binding) Value() string {
	v, _ := b.Get()
	return v
}

// Set sets the parameter to value. The first occurrence is replaced in
// place and any later ones are removed.
func (b *Binding) Set(value string) {
	b.write(&value)
}

// Delete removes every occurrence of the parameter.
func (b *Binding) Delete() {
	b.write(nil)
}

// SetPtr sets the parameter to *value, or removes it when value is nil.
func (b *Binding) SetPtr(value *string) {
	if value == nil {
		b.Delete()
		return
	}
	b.Set(*value)
}

// write rewrites the raw query pair by pair. Pairs for other names are
// copied unchanged.
func (b *Binding) write(value *string) {
	u := b.loc.URL()

	var pairs []string
	found := false
	for _, pair := range splitQuery(u.RawQuery) {
		key, _, _ := strings.Cut(pair, "=")
		if unescape(key) != b.name {
			pairs = append(pairs, pair)
			continue
		}
		if value != nil && !found {
			pairs = append(pairs, b.encode(*value))
		}
		found = true
	}
	if value != nil && !found {
		pairs = append(pairs, b.encode(*value))
	}
	b.loc.Replace(u.Path, strings.Join(pairs, "&"))
}

func (b *Binding) encode(value string) string {
	return url.QueryEscape(b.name) + "=" + url.QueryEscape(value)
}

func splitQuery(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "&")
}

// unescape decodes s, or returns it unchanged when it is not valid query
// encoding.
func unescape(s string) string {
	if d, err := url.QueryUnescape(s); err == nil {
		return d
	}
	return s
}
