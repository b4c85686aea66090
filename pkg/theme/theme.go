// Package theme stores whether the dark color scheme is enabled.
//
// The first time a user is seen, the preference comes from the ambient
// signal (the browser's prefers-color-scheme, sent as a client hint).
// After the user chooses, the stored choice wins.
package theme

import (
	"context"
	"net/http"
	"strings"

	"github.com/vango-dev/hooks/pkg/storage"
	"github.com/vango-dev/hooks/pkg/synced"
)

// Key is the storage key holding the preference.
const Key = "darkModeEnabled"

// HeaderPrefersColorScheme is the client hint carrying the browser's
// color scheme preference.
const HeaderPrefersColorScheme = "Sec-CH-Prefers-Color-Scheme"

// Mode is a color scheme name, usable as a CSS class or data attribute.
type Mode string

const (
	Light Mode = "light"
	Dark  Mode = "dark"
)

// Source reports the ambient color scheme preference.
// It is consulted once, when a Preference is created.
type Source interface {
	PrefersDark() bool
}

// Static is a fixed Source.
type Static bool

// PrefersDark implements Source.
func (s Static) PrefersDark() bool { return bool(s) }

// FromRequest reads the Sec-CH-Prefers-Color-Scheme client hint.
// Browsers only send it after the server asked for it with
// Accept-CH; see RequestHint. Without the hint, light is assumed.
func FromRequest(r *http.Request) Source {
	v := strings.Trim(r.Header.Get(HeaderPrefersColorScheme), `" `)
	return Static(strings.EqualFold(v, string(Dark)))
}

// RequestHint asks the browser to send the color scheme client hint on
// subsequent requests.
func RequestHint(w http.ResponseWriter) {
	w.Header().Add("Accept-CH", HeaderPrefersColorScheme)
	w.Header().Add("Vary", HeaderPrefersColorScheme)
}

// Preference is the dark mode flag.
type Preference struct {
	value *synced.Value[bool]
}

// New loads the preference from medium, defaulting to what source reports
// when nothing is stored.
func New(ctx context.Context, medium storage.Medium, source Source, opts ...synced.Option) (*Preference, error) {
	prefersDark := source.PrefersDark()
	v, err := synced.New(ctx, medium, Key, &prefersDark, opts...)
	if err != nil {
		return nil, err
	}
	return &Preference{value: v}, nil
}

// Enabled reports whether dark mode is on.
func (p *Preference) Enabled() bool {
	return p.value.Get()
}

// Set stores the preference.
func (p *Preference) Set(ctx context.Context, enabled bool) error {
	return p.value.Set(ctx, enabled)
}

// Toggle flips the preference.
func (p *Preference) Toggle(ctx context.Context) error {
	return p.value.Update(ctx, func(enabled bool) bool { return !enabled })
}

// Mode returns Dark or Light.
func (p *Preference) Mode() Mode {
	if p.Enabled() {
		return Dark
	}
	return Light
}

// Value exposes the underlying synced value, e.g. to Subscribe.
func (p *Preference) Value() *synced.Value[bool] {
	return p.value
}
