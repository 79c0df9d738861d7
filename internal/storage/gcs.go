package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCS stores objects in a Google Cloud Storage bucket
type GCS struct {
	client *gcs.Client
	bucket *gcs.BucketHandle
	name   string
	owned  bool
}

// GCSOptions configures the GCS backend
type GCSOptions struct {
	Bucket string
	// Endpoint overrides the API endpoint, e.g. for a local emulator.
	// Authentication is disabled when set.
	Endpoint string
}

// NewGCS opens a client using application default credentials
func NewGCS(ctx context.Context, opts GCSOptions) (*GCS, error) {
	if opts.Bucket == "" {
		return nil, errors.New("gcs: bucket is required")
	}

	var clientOpts []option.ClientOption
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint), option.WithoutAuthentication())
	}

	client, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: create client: %w", err)
	}
	g := NewGCSWithClient(client, opts.Bucket)
	g.owned = true
	return g, nil
}

// NewGCSWithClient wraps an existing client; Close leaves the client open
func NewGCSWithClient(client *gcs.Client, bucket string) *GCS {
	return &GCS{
		client: client,
		bucket: client.Bucket(bucket),
		name:   bucket,
	}
}

// Name implements Backend
func (g *GCS) Name() string { return "gcs" }

// Write implements Backend
func (g *GCS) Write(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return g.write(ctx, g.bucket.Object(key), key, data, contentType)
}

// Create writes with a DoesNotExist precondition
func (g *GCS) Create(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	obj := g.bucket.Object(key).If(gcs.Conditions{DoesNotExist: true})
	return g.write(ctx, obj, key, data, contentType)
}

func (g *GCS) write(ctx context.Context, obj *gcs.ObjectHandle, key string, data []byte, contentType string) error {
	w := obj.NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return g.writeError(key, err)
	}
	if err := w.Close(); err != nil {
		return g.writeError(key, err)
	}
	return nil
}

func (g *GCS) writeError(key string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
		return fmt.Errorf("%w: %s", ErrExists, g.Location(key))
	}
	return fmt.Errorf("gcs: write %s: %w", g.Location(key), err)
}

// Read implements Backend
func (g *GCS) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	r, err := g.bucket.Object(key).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, g.Location(key))
	}
	if err != nil {
		return nil, fmt.Errorf("gcs: open %s: %w", g.Location(key), err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gcs: read %s: %w", g.Location(key), err)
	}
	return data, nil
}

// Exists implements Backend
func (g *GCS) Exists(ctx context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}
	_, err := g.bucket.Object(key).Attrs(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("gcs: stat %s: %w", g.Location(key), err)
	}
	return true, nil
}

// List implements Backend
func (g *GCS) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	it := g.bucket.Objects(ctx, &gcs.Query{Prefix: prefix})

	var out []ObjectInfo
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcs: list %s: %w", g.Location(prefix), err)
		}
		out = append(out, ObjectInfo{Key: attrs.Name, Size: attrs.Size, ModTime: attrs.Updated})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Location returns gs://bucket/key
func (g *GCS) Location(key string) string {
	return "gs://" + g.name + "/" + key
}

// Close closes the client if this backend created it
func (g *GCS) Close() error {
	if g.owned && g.client != nil {
		return g.client.Close()
	}
	return nil
}
