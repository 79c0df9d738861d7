package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/quantmind-br/sri-ingest/internal/config"
	"github.com/quantmind-br/sri-ingest/internal/storage"
	"github.com/quantmind-br/sri-ingest/internal/utils"
)

// BackendType represents the kind of storage a target points at
type BackendType string

const (
	BackendLocal   BackendType = "local"
	BackendGCS     BackendType = "gcs"
	BackendUnknown BackendType = "unknown"
)

// Target is a parsed storage location
type Target struct {
	Backend BackendType
	BaseDir string
	Bucket  string
	Prefix  string
}

// DetectTarget determines the backend from a target string:
//
//	gs://bucket/prefix   object store
//	file:///var/data     local directory
//	./output             local directory
func DetectTarget(raw string) Target {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{Backend: BackendUnknown}
	}

	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "gs://") {
		rest := strings.Trim(raw[len("gs://"):], "/")
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return Target{Backend: BackendUnknown}
		}
		return Target{Backend: BackendGCS, Bucket: bucket, Prefix: strings.Trim(prefix, "/")}
	}

	if strings.HasPrefix(lower, "file://") {
		dir := raw[len("file://"):]
		if dir == "" {
			return Target{Backend: BackendUnknown}
		}
		return Target{Backend: BackendLocal, BaseDir: dir}
	}

	// Any other scheme is unsupported
	if i := strings.Index(raw, "://"); i > 0 {
		return Target{Backend: BackendUnknown}
	}

	return Target{Backend: BackendLocal, BaseDir: raw}
}

// ApplyTarget overrides the storage section with a target string
func ApplyTarget(cfg *config.StorageConfig, raw string) error {
	t := DetectTarget(raw)
	switch t.Backend {
	case BackendLocal:
		cfg.Backend = string(BackendLocal)
		cfg.BaseDir = t.BaseDir
	case BackendGCS:
		cfg.Backend = string(BackendGCS)
		cfg.Bucket = t.Bucket
		if t.Prefix != "" {
			cfg.Prefix = t.Prefix
		}
	default:
		return fmt.Errorf("unsupported storage target: %q", raw)
	}
	return nil
}

// CreateBackend opens the backend the storage section selects
func CreateBackend(ctx context.Context, cfg config.StorageConfig) (storage.Backend, error) {
	switch BackendType(cfg.Backend) {
	case BackendLocal, "":
		return storage.NewLocal(utils.ExpandPath(cfg.BaseDir))
	case BackendGCS:
		return storage.NewGCS(ctx, storage.GCSOptions{
			Bucket:   cfg.Bucket,
			Endpoint: cfg.Endpoint,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
