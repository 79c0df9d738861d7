package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check string
	}{
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrCacheMiss", ErrCacheMiss, "cache miss"},
		{"ErrRateLimited", ErrRateLimited, "rate limited"},
		{"ErrTimeout", ErrTimeout, "timeout"},
		{"ErrMetadataUnavailable", ErrMetadataUnavailable, "metadata unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.Contains(t, tt.err.Error(), tt.check)
		})
	}
}

func TestFetchError(t *testing.T) {
	t.Run("with status code", func(t *testing.T) {
		err := NewFetchError("https://descargas.sri.gob.ec/x.csv", 503, errors.New("unavailable"))

		assert.Contains(t, err.Error(), "x.csv")
		assert.Contains(t, err.Error(), "503")
		assert.Contains(t, err.Error(), "unavailable")
	})

	t.Run("without status code", func(t *testing.T) {
		err := NewFetchError("https://descargas.sri.gob.ec/x.csv", 0, errors.New("connection refused"))

		assert.Contains(t, err.Error(), "connection refused")
		assert.NotContains(t, err.Error(), "status")
	})

	t.Run("unwraps", func(t *testing.T) {
		base := errors.New("base")
		err := NewFetchError("u", 0, base)
		assert.Equal(t, base, errors.Unwrap(err))
		assert.ErrorIs(t, fmt.Errorf("outer: %w", err), base)
	})
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		status   int
		sentinel error
	}{
		{404, ErrNotFound},
		{410, ErrNotFound},
		{429, ErrRateLimited},
		{504, ErrTimeout},
		{408, ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := StatusError("https://example.com/a.csv", tt.status)
			assert.Equal(t, tt.status, err.StatusCode)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}

	t.Run("server error is not a sentinel", func(t *testing.T) {
		err := StatusError("https://example.com/a.csv", 500)
		assert.False(t, IsNotFound(err))
		assert.Contains(t, err.Error(), "Internal Server Error")
	})
}

func TestRetryableError(t *testing.T) {
	withDelay := &RetryableError{Err: errors.New("too many requests"), RetryAfter: 120}
	assert.Contains(t, withDelay.Error(), "retry after 120s")

	plain := &RetryableError{Err: errors.New("gateway timeout")}
	assert.Contains(t, plain.Error(), "retryable error")
	assert.NotContains(t, plain.Error(), "retry after")
	assert.Equal(t, plain.Err, errors.Unwrap(plain))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"RetryableError", &RetryableError{Err: errors.New("x")}, true},
		{"429", StatusError("u", 429), true},
		{"502", NewFetchError("u", 502, errors.New("bad gateway")), true},
		{"503", NewFetchError("u", 503, errors.New("unavailable")), true},
		{"504", StatusError("u", 504), true},
		{"cloudflare 520", NewFetchError("u", 520, errors.New("cf")), true},
		{"cloudflare 530", NewFetchError("u", 530, errors.New("cf")), true},
		{"404", StatusError("u", 404), false},
		{"500", StatusError("u", 500), false},
		{"ErrTimeout", ErrTimeout, true},
		{"wrapped ErrRateLimited", fmt.Errorf("post: %w", ErrRateLimited), true},
		{"generic", errors.New("some error"), false},
		{"ErrNotFound", ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("content: %w", StatusError("u", 404))))
	assert.False(t, IsNotFound(errors.New("not found")))
	assert.False(t, IsNotFound(nil))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("run.default_start", "must be a year")
	assert.Equal(t, "validation error for run.default_start: must be a year", err.Error())
}
