package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cockroachdb/pebble/v2"
	"github.com/cockroachdb/pebble/v2/vfs"
)

// Pebble stores keys in a pebble database under an optional prefix.
type Pebble struct {
	db     *pebble.DB
	prefix string
	owned  bool
	logger *slog.Logger
}

// PebbleOption configures a Pebble medium.
type PebbleOption func(*Pebble)

// WithPebblePrefix namespaces all keys under prefix, so one database can
// host several mediums.
func WithPebblePrefix(prefix string) PebbleOption {
	return func(p *Pebble) {
		p.prefix = prefix
	}
}

// WithPebbleLogger routes pebble's internal log output to logger.
// Only used by OpenPebble.
func WithPebbleLogger(logger *slog.Logger) PebbleOption {
	return func(p *Pebble) {
		p.logger = logger
	}
}

// NewPebble wraps an already open database. Close does not close db.
func NewPebble(db *pebble.DB, opts ...PebbleOption) *Pebble {
	p := &Pebble{db: db}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OpenPebble opens (or creates) a database in dir. An empty dir opens an
// in-memory database. Close closes the database.
func OpenPebble(dir string, opts ...PebbleOption) (*Pebble, error) {
	p := NewPebble(nil, opts...)
	if p.logger == nil {
		p.logger = slog.Default()
	}

	options := &pebble.Options{
		LoggerAndTracer: pebbleLogger{logger: p.logger.With("component", "pebble")},
	}
	if dir == "" {
		options.FS = vfs.NewMem()
	}
	db, err := pebble.Open(dir, options)
	if err != nil {
		return nil, fmt.Errorf("storage: open pebble %q: %w", dir, err)
	}
	p.db = db
	p.owned = true
	return p, nil
}

func (p *Pebble) key(key string) []byte {
	return []byte(p.prefix + key)
}

// Get implements Medium.
func (p *Pebble) Get(ctx context.Context, key string) (string, bool, error) {
	value, closer, err := p.db.Get(p.key(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	// value is only valid until closer.Close.
	s := string(value)
	if err := closer.Close(); err != nil {
		return "", false, err
	}
	return s, true, nil
}

// Set implements Medium.
func (p *Pebble) Set(ctx context.Context, key, value string) error {
	return p.db.Set(p.key(key), []byte(value), pebble.Sync)
}

// Remove implements Medium.
func (p *Pebble) Remove(ctx context.Context, key string) error {
	return p.db.Delete(p.key(key), pebble.Sync)
}

// Keys implements Lister. Keys are returned in byte order, without prefix.
func (p *Pebble) Keys(ctx context.Context) ([]string, error) {
	iterOptions := &pebble.IterOptions{}
	if p.prefix != "" {
		iterOptions.LowerBound = []byte(p.prefix)
		iterOptions.UpperBound = prefixUpperBound([]byte(p.prefix))
	}

	it, err := p.db.NewIter(iterOptions)
	if err != nil {
		return nil, err
	}

	var keys []string
	for it.First(); it.Valid(); it.Next() {
		keys = append(keys, strings.TrimPrefix(string(it.Key()), p.prefix))
	}
	if err := it.Error(); err != nil {
		_ = it.Close()
		return nil, err
	}
	return keys, it.Close()
}

// Close closes the database if it was opened by OpenPebble.
func (p *Pebble) Close() error {
	if !p.owned {
		return nil
	}
	return p.db.Close()
}

// prefixUpperBound returns the smallest key greater than every key starting
// with prefix, or nil if there is none.
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		upper[i]++
		if upper[i] != 0 {
			return upper[:i+1]
		}
	}
	return nil
}

// pebbleLogger adapts slog to pebble's logger. Info output is demoted to
// debug; pebble is chatty about compactions.
type pebbleLogger struct {
	logger *slog.Logger
}

func (l pebbleLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l pebbleLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l pebbleLogger) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.logger.Error(msg)
	panic(msg)
}

func (l pebbleLogger) Eventf(_ context.Context, format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (pebbleLogger) IsTracingEnabled(context.Context) bool { return false }
