package mocks

import (
	"context"

	"github.com/quantmind-br/sri-ingest/internal/storage"
	"github.com/stretchr/testify/mock"
)

// MockBackend mocks storage.Backend
type MockBackend struct {
	mock.Mock
}

// Name mocks the backend name
func (m *MockBackend) Name() string {
	return m.Called().String(0)
}

// Write mocks an overwriting write
func (m *MockBackend) Write(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

// Create mocks a create-only write
func (m *MockBackend) Create(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

// Read mocks reading an object
func (m *MockBackend) Read(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Exists mocks the existence check
func (m *MockBackend) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// List mocks listing a prefix
func (m *MockBackend) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.ObjectInfo), args.Error(1)
}

// Location mocks key rendering
func (m *MockBackend) Location(key string) string {
	return m.Called(key).String(0)
}

// Close mocks releasing resources
func (m *MockBackend) Close() error {
	return m.Called().Error(0)
}
