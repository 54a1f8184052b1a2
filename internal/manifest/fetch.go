package manifest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxBytes = 4 << 20
)

// ErrTooLarge is returned when the manifest exceeds the configured size cap.
var ErrTooLarge = errors.New("manifest response too large")

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
}

// FetcherConfig configures a Fetcher. Zero values select defaults.
type FetcherConfig struct {
	URL       string
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Fetcher performs the manifest GET.
type Fetcher struct {
	url       string
	maxBytes  int64
	userAgent string
	client    *http.Client
}

// NewFetcher validates cfg and returns a Fetcher.
func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	raw := cfg.URL
	if raw == "" {
		raw = DefaultURL
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported manifest URL scheme: %s", parsed.Scheme)
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Fetcher{
		url:       parsed.String(),
		maxBytes:  maxBytes,
		userAgent: cfg.UserAgent,
		client:    client,
	}, nil
}

// URL returns the manifest location.
func (f *Fetcher) URL() string { return f.url }

// Fetch downloads the manifest. Any transport error, non-2xx status or
// oversized body is a failure.
func (f *Fetcher) Fetch(ctx context.Context) (Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, http.NoBody)
	if err != nil {
		return Manifest{}, fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Manifest{}, fmt.Errorf("fetch %s: %w", f.url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Manifest{}, &StatusError{URL: f.url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Manifest{}, fmt.Errorf("read response: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return Manifest{}, ErrTooLarge
	}
	return Manifest{URL: f.url, Body: string(data), FetchedAt: time.Now()}, nil
}
