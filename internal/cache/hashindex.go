package cache

import (
	"context"
	"errors"
	"time"

	"github.com/quantmind-br/sri-ingest/internal/domain"
)

// HashIndex remembers the sha256 of stored files so a partition scan only
// reads files it has not seen before.
type HashIndex struct {
	cache domain.Cache
	ttl   time.Duration
}

// NewHashIndex wraps c. Entries expire after ttl; zero keeps them forever.
func NewHashIndex(c domain.Cache, ttl time.Duration) *HashIndex {
	return &HashIndex{cache: c, ttl: ttl}
}

// Lookup returns the remembered digest for this version of the file
func (h *HashIndex) Lookup(ctx context.Context, location string, size int64, modTime time.Time) (string, bool, error) {
	v, err := h.cache.Get(ctx, FileHashKey(location, size, modTime))
	if errors.Is(err, domain.ErrCacheMiss) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(v), true, nil
}

// Remember stores digest for this version of the file
func (h *HashIndex) Remember(ctx context.Context, location string, size int64, modTime time.Time, digest string) error {
	return h.cache.Set(ctx, FileHashKey(location, size, modTime), []byte(digest), h.ttl)
}

// Close closes the underlying cache
func (h *HashIndex) Close() error {
	return h.cache.Close()
}
