// Package tavily answers queries with the Tavily search API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.tavily.com"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxResults = 5

	// requestsPerSecond keeps bursts of fallbacks under the API quota.
	requestsPerSecond = 1
)

// Ensure Searcher implements the interface.
var _ driven.WebSearcher = (*Searcher)(nil)

// Config holds Tavily settings.
type Config struct {
	// APIKey is the Tavily API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.tavily.com).
	BaseURL string

	// MaxResults bounds the results considered (default: 5).
	MaxResults int

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Searcher calls /search with answer generation enabled.
type Searcher struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	maxResults int
	limiter    *rate.Limiter
}

type searchRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

type searchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type searchResponse struct {
	Answer  string         `json:"answer"`
	Results []searchResult `json:"results"`
	Detail  any            `json:"detail,omitempty"`
}

// NewSearcher creates a Tavily searcher.
func NewSearcher(cfg Config) (*Searcher, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("tavily: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Searcher{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxResults: cfg.MaxResults,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 2),
	}, nil
}

// Search returns Tavily's generated answer. When the API returns results
// without an answer, the result snippets are listed instead.
func (s *Searcher) Search(ctx context.Context, query string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSearchFallback, err)
	}

	body, err := json.Marshal(searchRequest{
		Query:         query,
		SearchDepth:   "basic",
		IncludeAnswer: true,
		MaxResults:    s.maxResults,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSearchFallback, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSearchFallback, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSearchFallback, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %w", domain.ErrSearchFallback, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: tavily returned status %d: %s",
			domain.ErrSearchFallback, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out searchResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: decoding response: %w", domain.ErrSearchFallback, err)
	}

	if answer := strings.TrimSpace(out.Answer); answer != "" {
		return answer, nil
	}
	return summarise(out.Results), nil
}

func summarise(results []searchResult) string {
	var b strings.Builder
	for _, r := range results {
		content := strings.TrimSpace(r.Content)
		if content == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s: %s (%s)", r.Title, content, r.URL)
	}
	return b.String()
}
