package portal

import (
	"context"
	"fmt"

	"github.com/quantmind-br/sri-ingest/internal/domain"
	"github.com/quantmind-br/sri-ingest/internal/utils"
)

// Ensure ContentProvider implements domain.ContentProvider
var _ domain.ContentProvider = (*ContentProvider)(nil)

// ContentProvider downloads the yearly CSV
type ContentProvider struct {
	fetcher  domain.Fetcher
	template string
}

// NewContentProvider creates a provider for the CSV URL template
func NewContentProvider(fetcher domain.Fetcher, csvURL string) *ContentProvider {
	if csvURL == "" {
		csvURL = DefaultCSVURL
	}
	return &ContentProvider{fetcher: fetcher, template: csvURL}
}

// URL returns the download URL for year
func (p *ContentProvider) URL(year int) string {
	return Expand(p.template, year)
}

// Fetch downloads the file for year. A missing file yields an error wrapping
// domain.ErrNotFound.
func (p *ContentProvider) Fetch(ctx context.Context, year int) (*domain.Content, error) {
	target := p.URL(year)
	resp, err := p.fetcher.Get(ctx, target)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, fmt.Errorf("no file for year %d: %w", year, err)
		}
		return nil, fmt.Errorf("download failed for year %d: %w", year, err)
	}

	name := utils.BaseNameFromURL(target)
	if name == "" {
		name = fmt.Sprintf("dataset_%d.csv", year)
	}

	return &domain.Content{
		Body: resp.Body,
		Name: name,
		URL:  target,
	}, nil
}
