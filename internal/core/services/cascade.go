package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/logger"
)

// Retriever is the query side of a source index.
type Retriever interface {
	Kind() domain.SourceKind
	Query(ctx context.Context, text string, k int, threshold float64) (domain.RetrievalResult, error)
}

var _ Retriever = (*SourceIndex)(nil)

// RetrievalCascade queries sources in priority order and stops at the
// first one that yields admitted chunks. When no source matches it asks
// the web searcher instead.
type RetrievalCascade struct {
	sources   []Retriever
	web       driven.WebSearcher
	k         int
	threshold float64
}

// CascadeOption configures a RetrievalCascade.
type CascadeOption func(*RetrievalCascade)

// WithK sets how many nearest chunks are requested per source.
func WithK(k int) CascadeOption {
	return func(c *RetrievalCascade) {
		if k > 0 {
			c.k = k
		}
	}
}

// WithThreshold sets the distance a chunk must be strictly below to be admitted.
func WithThreshold(t float64) CascadeOption {
	return func(c *RetrievalCascade) {
		if t > 0 {
			c.threshold = t
		}
	}
}

// NewRetrievalCascade creates a cascade over sources, queried in the order given.
// The web searcher may be nil, in which case unmatched queries fail.
func NewRetrievalCascade(sources []Retriever, web driven.WebSearcher, opts ...CascadeOption) *RetrievalCascade {
	c := &RetrievalCascade{
		sources:   sources,
		web:       web,
		k:         domain.DefaultK,
		threshold: domain.DefaultThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// K returns the per-source result count.
func (c *RetrievalCascade) K() int { return c.k }

// Threshold returns the admission threshold.
func (c *RetrievalCascade) Threshold() float64 { return c.threshold }

// Retrieve resolves a query to local context or a web answer.
// Failures of individual sources are recorded in Skipped and never abort
// the cascade. Only a failed web fallback is returned as an error, wrapping
// domain.ErrSearchFallback.
func (c *RetrievalCascade) Retrieve(ctx context.Context, query string) (*domain.Retrieval, error) {
	logger.Section("Retrieval Cascade")
	logger.Debug("Query: %q (k=%d, threshold=%.2f)", query, c.k, c.threshold)

	result := &domain.Retrieval{}
	for _, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hits, err := src.Query(ctx, query, c.k, c.threshold)
		if err != nil {
			if errors.Is(err, domain.ErrIndexNotFound) {
				logger.Debug("%s: no index yet, skipping", src.Kind())
			} else {
				logger.Warn("%s retrieval failed, skipping: %v", src.Kind(), err)
			}
			result.Skipped = append(result.Skipped, domain.SourceSkip{Kind: src.Kind(), Reason: err})
			continue
		}
		if len(hits) == 0 {
			logger.Debug("%s: no relevant chunks", src.Kind())
			continue
		}

		logger.Debug("%s: matched %d chunks", src.Kind(), len(hits))
		result.Origin = domain.OriginOf(src.Kind())
		result.Chunks = hits
		result.Context = strings.Join(hits.Contents(), "\n\n")
		return result, nil
	}

	logger.Debug("No local source matched, falling back to web search")
	answer, err := c.searchWeb(ctx, query)
	if err != nil {
		return nil, err
	}
	result.Origin = domain.OriginInternet
	result.WebAnswer = answer
	return result, nil
}

func (c *RetrievalCascade) searchWeb(ctx context.Context, query string) (string, error) {
	if c.web == nil {
		return "", fmt.Errorf("%w: no web search provider configured", domain.ErrSearchFallback)
	}
	answer, err := c.web.Search(ctx, query)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSearchFallback, err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("%w: web search returned no answer", domain.ErrSearchFallback)
	}
	return answer, nil
}
