package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/vango-dev/hooks/internal/errors"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"default", Config{}},
		{"memory with cache", Config{Backend: BackendMemory, CacheSize: 16}},
		{"file", Config{Backend: BackendFile, Path: filepath.Join(dir, "s.json")}},
		{"pebble in memory", Config{Backend: BackendPebble, Prefix: "hooks/"}},
		{"pebble on disk", Config{Backend: BackendPebble, Path: filepath.Join(dir, "db")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, closeFn, err := Open(context.Background(), tt.cfg, nil)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer closeFn()

			if err := m.Set(context.Background(), "k", "v"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			v, ok, err := m.Get(context.Background(), "k")
			if err != nil || !ok || v != "v" {
				t.Errorf("Get = %q, %v, %v", v, ok, err)
			}
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	_, _, err := Open(context.Background(), Config{Backend: "etcd"}, nil)
	if !errors.HasCode(err, "E302") {
		t.Errorf("unknown backend: err = %v, want E302", err)
	}

	_, _, err = Open(context.Background(), Config{Backend: BackendS3}, nil)
	if !errors.HasCode(err, "E301") {
		t.Errorf("s3 without bucket: err = %v, want E301", err)
	}
}

func TestOpen_S3(t *testing.T) {
	m, closeFn, err := Open(context.Background(), Config{
		Backend:  BackendS3,
		Bucket:   "prefs",
		Region:   "us-east-1",
		Endpoint: "http://127.0.0.1:9000",
	}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer closeFn()

	inst, ok := m.(*Instrumented)
	if !ok {
		t.Fatalf("medium = %T, want *Instrumented", m)
	}
	if _, ok := inst.Unwrap().(*Cached); !ok {
		t.Errorf("s3 medium = %T, want cached", inst.Unwrap())
	}
}

func TestNewS3Client_SharedConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_REGION", "eu-central-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")

	ctx := context.Background()

	client, err := newS3Client(ctx, Config{Bucket: "prefs"})
	if err != nil {
		t.Fatalf("newS3Client: %v", err)
	}
	o := client.Options()
	if o.Region != "eu-central-1" {
		t.Errorf("region = %q, want eu-central-1 from the environment", o.Region)
	}
	creds, err := o.Credentials.Retrieve(ctx)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if creds.AccessKeyID != "AKIDEXAMPLE" {
		t.Errorf("access key = %q", creds.AccessKeyID)
	}
	if o.UsePathStyle {
		t.Error("UsePathStyle set without an endpoint")
	}

	client, err = newS3Client(ctx, Config{Bucket: "prefs", Region: "us-west-2", Endpoint: "http://127.0.0.1:9000"})
	if err != nil {
		t.Fatalf("newS3Client: %v", err)
	}
	o = client.Options()
	if o.Region != "us-west-2" {
		t.Errorf("region = %q, want the configured us-west-2", o.Region)
	}
	if !o.UsePathStyle || o.BaseEndpoint == nil || *o.BaseEndpoint != "http://127.0.0.1:9000" {
		t.Errorf("endpoint = %v, path style = %v", o.BaseEndpoint, o.UsePathStyle)
	}
}

func TestValidBackend(t *testing.T) {
	for _, name := range []string{"", "memory", "file", "pebble", "s3"} {
		if !ValidBackend(name) {
			t.Errorf("ValidBackend(%q) = false", name)
		}
	}
	if ValidBackend("redis") {
		t.Error("ValidBackend(redis) = true")
	}
}
