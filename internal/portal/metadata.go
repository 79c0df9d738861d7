package portal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/quantmind-br/sri-ingest/internal/domain"
	"github.com/quantmind-br/sri-ingest/internal/utils"
)

// Ensure MetadataProvider implements domain.MetadataProvider
var _ domain.MetadataProvider = (*MetadataProvider)(nil)

var errNoDataset = errors.New("dataset not listed in CKAN")

// MetadataOptions configures a MetadataProvider
type MetadataOptions struct {
	// CKANAPIURL is the action API base; empty disables the CKAN lookup
	CKANAPIURL string
	// DatasetID is the CKAN dataset name template
	DatasetID string
	// PageURL is the dataset page template used for the HTML fallback
	PageURL string
	// CSVURL is recorded as the file URL when metadata comes from HTML
	CSVURL string
	// CKANTimeout bounds the CKAN lookup. It never takes more than half of
	// the time left on the caller's deadline, so the dataset page always
	// gets the rest.
	CKANTimeout time.Duration
	Logger      *utils.Logger
}

// MetadataProvider fetches the portal record for a dataset year
type MetadataProvider struct {
	fetcher domain.Fetcher
	opts    MetadataOptions
	logger  *utils.Logger
}

// NewMetadataProvider creates a provider. Empty templates take the defaults
// except CKANAPIURL.
func NewMetadataProvider(fetcher domain.Fetcher, opts MetadataOptions) *MetadataProvider {
	if opts.DatasetID == "" {
		opts.DatasetID = DefaultDatasetID
	}
	if opts.PageURL == "" {
		opts.PageURL = DefaultMetaPageURL
	}
	if opts.CSVURL == "" {
		opts.CSVURL = DefaultCSVURL
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &MetadataProvider{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger.WithComponent("metadata"),
	}
}

// Fetch tries CKAN and falls back to the dataset page. The returned error
// wraps domain.ErrMetadataUnavailable when neither source answers.
func (p *MetadataProvider) Fetch(ctx context.Context, year int) (*domain.Metadata, error) {
	if p.opts.CKANAPIURL != "" {
		ckanCtx, cancel := p.ckanContext(ctx)
		meta, err := p.fetchCKAN(ckanCtx, year)
		cancel()
		if err == nil {
			return meta, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMetadataUnavailable, ctx.Err())
		}
		p.logger.Debug().Err(err).Int("year", year).Msg("CKAN lookup failed, falling back to dataset page")
	}

	meta, err := p.fetchHTML(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("%w: year %d: %v", domain.ErrMetadataUnavailable, year, err)
	}
	return meta, nil
}

// ckanContext derives the context of the CKAN attempt
func (p *MetadataProvider) ckanContext(ctx context.Context) (context.Context, context.CancelFunc) {
	budget := p.opts.CKANTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if half := time.Until(deadline) / 2; budget <= 0 || half < budget {
			budget = half
		}
	}
	if budget <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, budget)
}

func (p *MetadataProvider) fetchCKAN(ctx context.Context, year int) (*domain.Metadata, error) {
	id := Expand(p.opts.DatasetID, year)
	endpoint := strings.TrimRight(p.opts.CKANAPIURL, "/") + "/package_search?" + url.Values{"q": {id}}.Encode()

	resp, err := p.fetcher.GetWithHeaders(ctx, endpoint, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}

	dataset, err := parseCKANSearch(resp.Body, id)
	if err != nil {
		return nil, err
	}
	if dataset == nil {
		return nil, fmt.Errorf("%w: %s", errNoDataset, id)
	}

	meta := &domain.Metadata{
		Page:         Expand(p.opts.PageURL, year),
		Author:       dataset.Author,
		ContactEmail: dataset.AuthorEmail,
		CreatedAt:    domain.StringPtr(dataset.MetadataCreated),
		LicenseName:  dataset.LicenseTitle,
		LicenseURL:   dataset.LicenseURL,
		FetchedVia:   domain.MetadataSourceCKAN,
	}
	meta.Source = dataset.Author
	if dataset.Organization != nil && dataset.Organization.Title != "" {
		meta.Source = dataset.Organization.Title
	}
	if res := selectCSVResource(dataset.Resources, year); res != nil {
		meta.FileURL = res.URL
		meta.UpdatedAt = domain.StringPtr(res.MetadataModified)
	}

	p.logger.WithURL(endpoint).Debug().Int("year", year).Str("dataset", id).Msg("Metadata fetched from CKAN")
	return meta, nil
}

func (p *MetadataProvider) fetchHTML(ctx context.Context, year int) (*domain.Metadata, error) {
	page := Expand(p.opts.PageURL, year)
	resp, err := p.fetcher.Get(ctx, page)
	if err != nil {
		return nil, err
	}

	fields, err := parseDatasetPage(resp.Body, resp.ContentType)
	if err != nil {
		return nil, err
	}

	p.logger.WithURL(page).Debug().Int("year", year).Msg("Metadata scraped from dataset page")
	return &domain.Metadata{
		Page:         page,
		Source:       fields.Source,
		Author:       fields.Author,
		ContactEmail: fields.ContactEmail,
		UpdatedAt:    fields.UpdatedAt,
		CreatedAt:    fields.CreatedAt,
		LicenseName:  fields.LicenseName,
		LicenseURL:   fields.LicenseURL,
		FileURL:      Expand(p.opts.CSVURL, year),
		FetchedVia:   domain.MetadataSourceHTML,
	}, nil
}
