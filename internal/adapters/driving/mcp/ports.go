package mcp

import (
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Answer answers questions from ingested content or live search.
	Answer driving.AnswerService

	// Ingest adds web pages and YouTube videos, and reports source stats.
	Ingest driving.IngestionService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	if p.Ingest == nil {
		return ErrMissingIngestionService
	}
	return nil
}
