package storage

import (
	"context"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/hooks/internal/errors"
	"github.com/vango-dev/hooks/pkg/telemetry"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendPebble = "pebble"
	BackendS3     = "s3"
)

// Config selects and configures a medium.
type Config struct {
	// Backend is one of memory, file, pebble or s3 (default: memory).
	Backend string `json:"backend,omitempty"`

	// Path is the JSON file (file) or database directory (pebble).
	Path string `json:"path,omitempty"`

	// Bucket is the S3 bucket.
	Bucket string `json:"bucket,omitempty"`

	// Prefix namespaces keys (pebble and s3).
	Prefix string `json:"prefix,omitempty"`

	// Region is the S3 region.
	Region string `json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint, e.g. for MinIO.
	Endpoint string `json:"endpoint,omitempty"`

	// CacheSize puts an LRU cache of this many keys in front of the medium.
	// 0 disables the cache except for s3, which always gets one.
	CacheSize int `json:"cacheSize,omitempty"`
}

// ValidBackend reports whether name is a backend Open understands.
func ValidBackend(name string) bool {
	switch name {
	case "", BackendMemory, BackendFile, BackendPebble, BackendS3:
		return true
	}
	return false
}

// Open builds the medium described by cfg, wrapped with a cache when
// configured and instrumented with metrics (which may be nil).
// The returned close function releases the backend.
func Open(ctx context.Context, cfg Config, metrics *telemetry.Metrics) (Medium, func() error, error) {
	var (
		base    Medium
		closeFn = func() error { return nil }
	)

	backend := cfg.Backend
	if backend == "" {
		backend = BackendMemory
	}

	switch backend {
	case BackendMemory:
		m := NewMemory()
		base, closeFn = m, m.Close

	case BackendFile:
		path := cfg.Path
		if path == "" {
			path = filepath.Join(".hooks", "storage.json")
		}
		f, err := OpenFile(path)
		if err != nil {
			return nil, nil, errors.New("E103").WithKey(path).Wrap(err)
		}
		base, closeFn = f, f.Close

	case BackendPebble:
		p, err := OpenPebble(cfg.Path, WithPebblePrefix(cfg.Prefix))
		if err != nil {
			return nil, nil, errors.New("E103").WithKey(cfg.Path).Wrap(err)
		}
		base, closeFn = p, p.Close

	case BackendS3:
		if cfg.Bucket == "" {
			return nil, nil, errors.New("E301").
				WithDetail("storage.bucket is required for the s3 backend")
		}
		client, err := newS3Client(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		base = NewS3(client, cfg.Bucket, cfg.Prefix)
		if cfg.CacheSize == 0 {
			cfg.CacheSize = DefaultCacheSize
		}

	default:
		return nil, nil, errors.New("E302").WithKey(backend).
			WithSuggestion("Set storage.backend to memory, file, pebble or s3")
	}

	m := base
	if cfg.CacheSize > 0 {
		cached, err := NewCached(m, cfg.CacheSize, metrics)
		if err != nil {
			_ = closeFn()
			return nil, nil, err
		}
		m = cached
	}

	return Instrument(m, backend, metrics, nil), closeFn, nil
}

// newS3Client loads the shared AWS configuration (environment, shared
// config and credentials files, instance roles). cfg.Region overrides the
// configured region; an endpoint switches to path-style addressing.
func newS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.New("E301").WithDetail("load AWS config").Wrap(err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}
