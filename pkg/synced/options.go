package synced

import (
	"log/slog"

	"github.com/vango-dev/hooks/pkg/codec"
	"github.com/vango-dev/hooks/pkg/reactive"
)

// MergeStrategy decides how changes made by other writers of the same key
// are applied when watching.
type MergeStrategy int

const (
	// LWW applies every external change as it arrives: the last writer wins.
	LWW MergeStrategy = iota

	// LocalWins ignores external changes after creation.
	LocalWins
)

// String returns the strategy name.
func (s MergeStrategy) String() string {
	switch s {
	case LWW:
		return "lww"
	case LocalWins:
		return "local-wins"
	default:
		return "unknown"
	}
}

type config struct {
	codec          any
	logger         *slog.Logger
	watch          bool
	strategy       MergeStrategy
	dispatcher     reactive.Dispatcher
	persistDefault bool
}

// Option configures a Value.
type Option func(*config)

// WithCodec sets the codec used to store the value. Its type parameter must
// match the Value's; New returns an error otherwise. Default: JSON.
func WithCodec[T any](c codec.Codec[T]) Option {
	return func(cfg *config) {
		cfg.codec = c
	}
}

// WithLogger sets the logger used to report write failures.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithWatch applies changes made to the key by other writers (another
// component, another tab, the CLI) to this Value, when the medium can
// report them. Changes are delivered through d, normally the reactive.Loop
// the component runs on.
func WithWatch(d reactive.Dispatcher) Option {
	return func(cfg *config) {
		cfg.watch = true
		cfg.dispatcher = d
	}
}

// WithMergeStrategy sets how watched changes are applied. Default: LWW.
func WithMergeStrategy(s MergeStrategy) Option {
	return func(cfg *config) {
		cfg.strategy = s
	}
}

// WithPersistDefault makes New store the default value when the key is
// absent, so other readers of the medium see it too. A failed write makes
// New return E104.
func WithPersistDefault() Option {
	return func(cfg *config) {
		cfg.persistDefault = true
	}
}
