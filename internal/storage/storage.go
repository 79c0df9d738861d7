// Package storage persists artifacts under slash-separated keys on either the
// local filesystem or a Google Cloud Storage bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound indicates the key does not exist
	ErrNotFound = errors.New("object not found")

	// ErrExists indicates a create-only write hit an existing key
	ErrExists = errors.New("object already exists")

	// ErrInvalidKey indicates a key that is empty, absolute or escapes the root
	ErrInvalidKey = errors.New("invalid object key")
)

// Content types used by the ingester
const (
	ContentTypeCSV   = "text/csv"
	ContentTypeJSON  = "application/json"
	ContentTypeJSONL = "application/x-ndjson"
)

// ObjectInfo describes a stored object
type ObjectInfo struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Backend is an object store addressed by slash-separated keys
type Backend interface {
	// Name identifies the backend kind ("local" or "gcs")
	Name() string
	// Write stores data under key, replacing any previous object
	Write(ctx context.Context, key string, data []byte, contentType string) error
	// Create stores data under key only if the key is free; otherwise ErrExists
	Create(ctx context.Context, key string, data []byte, contentType string) error
	// Read returns the object, or ErrNotFound
	Read(ctx context.Context, key string) ([]byte, error)
	// Exists reports whether key is present
	Exists(ctx context.Context, key string) (bool, error)
	// List returns objects whose key starts with prefix, sorted by key
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// Location renders key as a user-facing path or URI
	Location(key string) string
	// Close releases resources
	Close() error
}

// ValidateKey rejects keys that could escape the storage root
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
