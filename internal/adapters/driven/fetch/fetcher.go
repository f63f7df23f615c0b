// Package fetch downloads web pages and extracts their visible text.
package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/normalisers/html"
)

// maxBody bounds the bytes read from one page.
const maxBody = 10 << 20

// Ensure Fetcher implements the interface.
var _ driven.PageFetcher = (*Fetcher)(nil)

// Config holds fetcher settings.
type Config struct {
	// UserAgent is sent with every request.
	UserAgent string

	// Timeout bounds one fetch.
	Timeout time.Duration

	// RequestsPerSecond throttles fetches. Zero disables throttling.
	RequestsPerSecond float64
}

// Fetcher performs throttled GET requests.
type Fetcher struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// NewFetcher creates a fetcher with defaults applied.
func NewFetcher(cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = domain.DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// FetchVisibleText fetches url and returns its visible text.
// Non-HTML text responses are returned as-is.
func (f *Fetcher) FetchVisibleText(ctx context.Context, url string) (*domain.Document, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %s", domain.ErrFetch, url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", domain.ErrFetch, err)
	}

	content := string(body)
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	text := strings.TrimSpace(content)
	if mediaType == "" || strings.Contains(mediaType, "html") {
		text = html.VisibleText(content)
	}

	return &domain.Document{
		URI:     url,
		Title:   html.Title(content, url),
		Content: text,
		Metadata: map[string]any{
			"mime_type":   mediaType,
			"status_code": resp.StatusCode,
		},
	}, nil
}
