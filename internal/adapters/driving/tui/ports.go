// Package tui provides an interactive terminal user interface for recall.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Answer answers questions and lists past exchanges.
	Answer driving.AnswerService

	// Ingest ingests documents, pages and videos and reports statistics.
	Ingest driving.IngestionService

	// Settings manages application settings. Optional.
	Settings driving.SettingsService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	answer driving.AnswerService,
	ingest driving.IngestionService,
	settings driving.SettingsService,
) *Ports {
	return &Ports{
		Answer:   answer,
		Ingest:   ingest,
		Settings: settings,
	}
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
