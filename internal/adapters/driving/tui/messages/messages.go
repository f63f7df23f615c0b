// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/recall/internal/core/domain"
)

// AnswerReceived carries the answer to a submitted question.
type AnswerReceived struct {
	Answer *domain.Answer
}

// HistoryLoaded carries recent exchanges, newest first.
type HistoryLoaded struct {
	Entries []domain.HistoryEntry
	Err     error
}

// IngestCompleted carries the outcome of an ingestion request.
type IngestCompleted struct {
	Outcome *domain.IngestOutcome
}

// StatsLoaded carries per-kind source statistics.
type StatsLoaded struct {
	Stats []domain.SourceStats
	Err   error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewAsk is the question and answer transcript.
	ViewAsk
	// ViewIngest is the ingestion form.
	ViewIngest
	// ViewSources shows per-kind index statistics.
	ViewSources
	// ViewSettings is the settings configuration view.
	ViewSettings
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewAsk:
		return "ask"
	case ViewIngest:
		return "ingest"
	case ViewSources:
		return "sources"
	case ViewSettings:
		return "settings"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// SettingsLoaded carries the application settings.
type SettingsLoaded struct {
	Settings *domain.AppSettings
	Err      error
}

// SettingsSaved signals settings were saved.
type SettingsSaved struct {
	Err error
}
