package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/quantmind-br/sri-ingest/internal/config"
	"github.com/quantmind-br/sri-ingest/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDetectTarget tests storage target detection
func TestDetectTarget(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		expected Target
	}{
		{"bucket only", "gs://datalake", Target{Backend: BackendGCS, Bucket: "datalake"}},
		{"bucket with prefix", "gs://datalake/bronze/sri/", Target{Backend: BackendGCS, Bucket: "datalake", Prefix: "bronze/sri"}},
		{"uppercase scheme", "GS://datalake/x", Target{Backend: BackendGCS, Bucket: "datalake", Prefix: "x"}},
		{"empty bucket", "gs://", Target{Backend: BackendUnknown}},
		{"file uri", "file:///var/data", Target{Backend: BackendLocal, BaseDir: "/var/data"}},
		{"relative path", "./output", Target{Backend: BackendLocal, BaseDir: "./output"}},
		{"home path", "~/sri", Target{Backend: BackendLocal, BaseDir: "~/sri"}},
		{"unsupported scheme", "s3://bucket/key", Target{Backend: BackendUnknown}},
		{"empty", "  ", Target{Backend: BackendUnknown}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectTarget(tt.target))
		})
	}
}

// TestApplyTarget tests overriding the storage section
func TestApplyTarget(t *testing.T) {
	cfg := config.Default().Storage
	require.NoError(t, ApplyTarget(&cfg, "gs://datalake/bronze"))
	assert.Equal(t, "gcs", cfg.Backend)
	assert.Equal(t, "datalake", cfg.Bucket)
	assert.Equal(t, "bronze", cfg.Prefix)

	require.NoError(t, ApplyTarget(&cfg, "/tmp/sri"))
	assert.Equal(t, "local", cfg.Backend)
	assert.Equal(t, "/tmp/sri", cfg.BaseDir)
	assert.Equal(t, "bronze", cfg.Prefix, "prefix survives a backend switch")

	assert.Error(t, ApplyTarget(&cfg, "ftp://host/dir"))
}

// TestCreateBackend tests backend construction
func TestCreateBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("local", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested")
		b, err := CreateBackend(ctx, config.StorageConfig{Backend: "local", BaseDir: dir})
		require.NoError(t, err)
		defer b.Close()

		local, ok := b.(*storage.Local)
		require.True(t, ok)
		assert.Equal(t, dir, local.BaseDir())
		assert.DirExists(t, dir)
	})

	t.Run("gcs emulator", func(t *testing.T) {
		b, err := CreateBackend(ctx, config.StorageConfig{
			Backend:  "gcs",
			Bucket:   "datalake",
			Endpoint: "http://127.0.0.1:4443/storage/v1/",
		})
		require.NoError(t, err)
		defer b.Close()

		assert.Equal(t, "gcs", b.Name())
		assert.Equal(t, "gs://datalake/metadata/vehiculos/state.json", b.Location("metadata/vehiculos/state.json"))
	})

	t.Run("gcs without bucket", func(t *testing.T) {
		_, err := CreateBackend(ctx, config.StorageConfig{Backend: "gcs"})
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := CreateBackend(ctx, config.StorageConfig{Backend: "s3"})
		assert.Error(t, err)
	})
}
