// Package fetch implements the Fetcher interface.
// It performs HTTP GET requests with automatic retries and sensible
// defaults for fetching real-world pages.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/kunal-varma/pagemark/core"
	"github.com/kunal-varma/pagemark/internal/logger"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRetries = 3
	// Some hosts serve SSR payloads only to browser-like user agents.
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// HTTPFetcher fetches web pages via HTTP with retry and backoff.
type HTTPFetcher struct {
	client    *retryablehttp.Client
	userAgent string
}

// New creates an HTTPFetcher with default timeout and retry settings.
func New() *HTTPFetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = defaultRetries
	client.HTTPClient.Timeout = defaultTimeout
	client.Logger = nil
	client.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			logger.Debug("retrying fetch", "url", req.URL.String(), "attempt", attempt)
		}
	}
	return &HTTPFetcher{
		client:    client,
		userAgent: defaultUserAgent,
	}
}

// Fetch retrieves the HTML content of the given URL.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*core.FetchResult, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &core.FetchResult{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		HTML:       string(body),
	}, nil
}

// FetchBytes retrieves a binary resource (e.g. an image) and returns its
// bytes along with the response Content-Type.
func (f *HTTPFetcher) FetchBytes(ctx context.Context, url string) ([]byte, string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading response body: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
