package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"

	"github.com/vango-dev/hooks/internal/errors"
	"github.com/vango-dev/hooks/pkg/storage"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "hooks.json"

	// DefaultAddr is the default demo server address.
	DefaultAddr = "localhost:8080"

	// DefaultFetchTimeout is the default timeout for fetch requests.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "hooks"
)

// Environment variables that override the file.
const (
	EnvStorageBackend = "HOOKS_STORAGE_BACKEND"
	EnvStoragePath    = "HOOKS_STORAGE_PATH"
	EnvServerAddr     = "HOOKS_SERVER_ADDR"
)

// Config represents the complete hooks.json configuration.
type Config struct {
	// Storage selects the medium synced values are mirrored to.
	Storage storage.Config `json:"storage,omitempty"`

	// Server contains demo server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Fetch contains HTTP fetch configuration.
	Fetch FetchConfig `json:"fetch,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains demo server configuration.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty"`
}

// FetchConfig contains HTTP fetch configuration.
type FetchConfig struct {
	// Timeout is a Go duration string such as "10s".
	Timeout string `json:"timeout,omitempty"`
}

// MetricsConfig contains Prometheus configuration.
type MetricsConfig struct {
	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty"`
}

// New returns a Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads hooks.json from dir. A missing file yields the defaults.
// Environment overrides are applied in both cases.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)

	var cfg *Config
	if Exists(dir) {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = New()
		cfg.configPath = path
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads the configuration stored at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E301").
				WithDetail("No hooks.json found in " + filepath.Dir(path)).
				Wrap(err)
		}
		return nil, errors.New("E301").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E301").
			WithDetail("Failed to parse hooks.json: " + err.Error()).
			WithSuggestion("Check that hooks.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration back to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path atomically.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E301").Wrap(err)
	}
	data = append(data, '\n')

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return errors.New("E301").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// ApplyEnv overrides fields from HOOKS_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvStorageBackend); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv(EnvStoragePath); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv(EnvServerAddr); v != "" {
		c.Server.Addr = v
	}
}

func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = storage.BackendMemory
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Fetch.Timeout == "" {
		c.Fetch.Timeout = DefaultFetchTimeout.String()
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if !storage.ValidBackend(c.Storage.Backend) {
		return errors.New("E302").WithKey(c.Storage.Backend).
			WithSuggestion("Set storage.backend to memory, file, pebble or s3")
	}
	if c.Storage.Backend == storage.BackendS3 && c.Storage.Bucket == "" {
		return errors.New("E301").
			WithDetail("storage.bucket is required for the s3 backend")
	}
	if c.Storage.CacheSize < 0 {
		return errors.New("E301").
			WithDetail("storage.cacheSize must not be negative")
	}
	if d, err := time.ParseDuration(c.Fetch.Timeout); err != nil || d <= 0 {
		return errors.New("E301").
			WithDetail("fetch.timeout must be a positive duration such as \"10s\"")
	}
	return nil
}

// FetchTimeout returns the parsed fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Fetch.Timeout)
	if err != nil || d <= 0 {
		return DefaultFetchTimeout
	}
	return d
}

// Exists reports whether dir contains a hooks.json.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
