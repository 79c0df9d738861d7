// Package trigger notifies a downstream job once a run has finished.
package trigger

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a trigger lacks host, token or job id
var ErrNotConfigured = errors.New("trigger not configured")

// Result describes an accepted trigger
type Result struct {
	// RunID is the downstream run identifier, zero when the target has none
	RunID int64 `json:"run_id,omitempty"`
	// Message is a human readable summary
	Message string `json:"message"`
}

// Trigger starts downstream processing
type Trigger interface {
	Name() string
	Fire(ctx context.Context) (*Result, error)
}

// Noop is used when no downstream job is configured
type Noop struct{}

// Name returns "noop"
func (Noop) Name() string { return "noop" }

// Fire does nothing
func (Noop) Fire(context.Context) (*Result, error) {
	return &Result{Message: "no trigger configured"}, nil
}
