// Package mocks holds test doubles for the ingester's collaborators.
//
//go:generate mockgen -destination=providers_mock.go -package=mocks github.com/quantmind-br/sri-ingest/internal/domain MetadataProvider,ContentProvider
//go:generate mockgen -destination=trigger_mock.go -package=mocks github.com/quantmind-br/sri-ingest/internal/trigger Trigger
package mocks
