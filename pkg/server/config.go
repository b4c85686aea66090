package server

import (
	"time"

	"github.com/vango-dev/hooks/internal/errors"
)

// Config holds the HTTP server settings.
type Config struct {
	// Address is the listen address (default "localhost:8080").
	Address string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// MaxValueBytes limits the body of a value PUT.
	MaxValueBytes int64
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:           "localhost:8080",
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		MaxValueBytes:     1 << 20,
	}
}

// withDefaults returns a copy of c with unset fields taken from
// DefaultConfig.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if out.ReadTimeout == 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.IdleTimeout == 0 {
		out.IdleTimeout = d.IdleTimeout
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	if out.MaxValueBytes == 0 {
		out.MaxValueBytes = d.MaxValueBytes
	}
	return &out
}

// Validate checks for values the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.ReadHeaderTimeout < 0, c.ReadTimeout < 0, c.WriteTimeout < 0,
		c.IdleTimeout < 0, c.ShutdownTimeout < 0:
		return errors.New("E301").WithDetail("server timeouts must not be negative")
	case c.MaxValueBytes < 0:
		return errors.New("E301").WithDetail("server MaxValueBytes must not be negative")
	}
	return nil
}
