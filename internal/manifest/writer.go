package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/quantmind-br/sri-ingest/internal/storage"
)

// Accumulator collects the entries of one run
type Accumulator struct {
	runTS   string
	mu      sync.Mutex
	entries []Entry
}

// NewAccumulator creates an empty accumulator for the run identified by runTS
func NewAccumulator(runTS string) *Accumulator {
	return &Accumulator{runTS: runTS}
}

// RunTS returns the run identifier
func (a *Accumulator) RunTS() string {
	return a.runTS
}

// Add appends e. Entries without notes get DefaultNote.
func (a *Accumulator) Add(e Entry) {
	if e.Notes == "" {
		e.Notes = DefaultNote
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

// Len returns the number of entries
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Entries returns a copy of the entries in insertion order
func (a *Accumulator) Entries() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Encode renders the entries as JSON Lines
func (a *Accumulator) Encode() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, e := range a.entries {
		if err := enc.Encode(e); err != nil {
			return nil, fmt.Errorf("encode entry %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Write persists the manifest under key and returns its location.
// It returns ErrNothingWritten when empty and ErrManifestExists when a
// manifest is already stored under key.
func (a *Accumulator) Write(ctx context.Context, backend storage.Backend, key string) (string, error) {
	if a.Len() == 0 {
		return "", ErrNothingWritten
	}

	data, err := a.Encode()
	if err != nil {
		return "", err
	}

	if err := backend.Create(ctx, key, data, storage.ContentTypeJSONL); err != nil {
		if errors.Is(err, storage.ErrExists) {
			return "", fmt.Errorf("%w: %s", ErrManifestExists, backend.Location(key))
		}
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return backend.Location(key), nil
}
