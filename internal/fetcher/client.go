package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/quantmind-br/sri-ingest/internal/domain"
)

// Client is a stealth HTTP client using tls-client
type Client struct {
	tlsClient tls_client.HttpClient
	userAgent string
	retrier   *Retrier
	maxBody   int64
}

// ClientOptions contains options for creating a Client
type ClientOptions struct {
	Timeout    time.Duration
	MaxRetries int
	UserAgent  string
	ProxyURL   string
	// MaxBodyBytes caps response bodies; zero means DefaultMaxBodyBytes
	MaxBodyBytes int64
}

// DefaultMaxBodyBytes bounds a single download. Yearly CSVs are tens of MB.
const DefaultMaxBodyBytes int64 = 1 << 30

// DefaultClientOptions returns default client options
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout:      120 * time.Second,
		MaxRetries:   0,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// NewClient creates a new stealth HTTP client
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	tlsOpts := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(int(opts.Timeout.Seconds())),
		tls_client.WithClientProfile(profiles.Chrome_131),
		tls_client.WithRandomTLSExtensionOrder(),
	}

	if opts.ProxyURL != "" {
		tlsOpts = append(tlsOpts, tls_client.WithProxyUrl(opts.ProxyURL))
	}

	tlsClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), tlsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tls client: %w", err)
	}

	retrier := NewRetrier(RetrierOptions{
		MaxRetries:      opts.MaxRetries,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
	})

	return &Client{
		tlsClient: tlsClient,
		userAgent: opts.UserAgent,
		retrier:   retrier,
		maxBody:   opts.MaxBodyBytes,
	}, nil
}

// Get fetches content from a URL
func (c *Client) Get(ctx context.Context, url string) (*domain.Response, error) {
	return c.GetWithHeaders(ctx, url, nil)
}

// GetWithHeaders fetches content with custom headers
func (c *Client) GetWithHeaders(ctx context.Context, url string, extraHeaders map[string]string) (*domain.Response, error) {
	return RetryWithValue(ctx, c.retrier, func() (*domain.Response, error) {
		return c.doRequest(ctx, fhttp.MethodGet, url, extraHeaders, nil)
	})
}

// Post sends body to url. The body is replayed on every retry attempt.
func (c *Client) Post(ctx context.Context, url string, extraHeaders map[string]string, body []byte) (*domain.Response, error) {
	return RetryWithValue(ctx, c.retrier, func() (*domain.Response, error) {
		return c.doRequest(ctx, fhttp.MethodPost, url, extraHeaders, body)
	})
}

// doRequest performs the actual HTTP request
func (c *Client) doRequest(ctx context.Context, method, targetURL string, extraHeaders map[string]string, body []byte) (*domain.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := fhttp.NewRequestWithContext(ctx, method, targetURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range StealthHeaders(c.userAgent) {
		req.Header.Set(k, v)
	}
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.tlsClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return nil, domain.NewFetchError(targetURL, 0, fmt.Errorf("%w: %v", domain.ErrTimeout, err))
			}
			return nil, domain.NewFetchError(targetURL, 0, ctxErr)
		}
		return nil, domain.NewFetchError(targetURL, 0, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		statusErr := domain.StatusError(targetURL, resp.StatusCode)
		if ShouldRetryStatus(resp.StatusCode) {
			return nil, &domain.RetryableError{
				Err:        statusErr,
				RetryAfter: int(ParseRetryAfter(resp.Header.Get("Retry-After")).Seconds()),
			}
		}
		return nil, statusErr
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, domain.NewFetchError(targetURL, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
	}
	if int64(len(data)) > c.maxBody {
		return nil, domain.NewFetchError(targetURL, resp.StatusCode, fmt.Errorf("response body exceeds %d bytes", c.maxBody))
	}

	// Convert fhttp.Header to http.Header
	httpHeaders := make(http.Header)
	for k, v := range resp.Header {
		httpHeaders[k] = v
	}

	return &domain.Response{
		StatusCode:  resp.StatusCode,
		Body:        data,
		Headers:     httpHeaders,
		ContentType: resp.Header.Get("Content-Type"),
		URL:         targetURL,
	}, nil
}

// Close releases client resources
func (c *Client) Close() error {
	// tls-client has no Close; kept for domain.Fetcher
	return nil
}
