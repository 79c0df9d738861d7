package domain

import (
	"context"
	"net/http"
	"time"
)

// MetadataProvider returns the portal metadata for one dataset year
type MetadataProvider interface {
	Fetch(ctx context.Context, year int) (*Metadata, error)
}

// ContentProvider downloads the dataset file for one year.
// A missing file is reported with an error wrapping ErrNotFound.
type ContentProvider interface {
	Fetch(ctx context.Context, year int) (*Content, error)
}

// Fetcher defines the interface for HTTP fetching with stealth capabilities
type Fetcher interface {
	// Get fetches content from a URL
	Get(ctx context.Context, url string) (*Response, error)
	// GetWithHeaders fetches content with custom headers
	GetWithHeaders(ctx context.Context, url string, headers map[string]string) (*Response, error)
	// Post sends body and returns the response
	Post(ctx context.Context, url string, headers map[string]string, body []byte) (*Response, error)
	// Close releases resources
	Close() error
}

// Response represents an HTTP response
type Response struct {
	StatusCode  int
	Body        []byte
	Headers     http.Header
	ContentType string
	URL         string
}

// Cache defines the interface for a key/value cache
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value in cache with TTL; zero TTL never expires
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Has checks if a key exists in cache
	Has(ctx context.Context, key string) bool
	// Delete removes a key from cache
	Delete(ctx context.Context, key string) error
	// Close releases cache resources
	Close() error
}
