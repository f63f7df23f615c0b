// Package cli provides the command-line interface for recall.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

// Services used by commands. They are injected by main before Execute.
var (
	ingestService   driving.IngestionService
	answerService   driving.AnswerService
	settingsService driving.SettingsService
)

var (
	errIngestNotConfigured   = errors.New("ingestion service not configured")
	errAnswerNotConfigured   = errors.New("answer service not configured")
	errSettingsNotConfigured = errors.New("settings service not configured")
)

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Ask questions of your documents, web pages and videos",
	Long: `Recall ingests documents, scraped web pages and video transcripts into
separate vector indexes, then answers questions from whichever source
matches best. Documents are consulted first, then scraped pages, then
videos. When nothing matches closely enough, recall falls back to a live
internet search.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print progress to stderr")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetIngestionService injects the ingestion service.
func SetIngestionService(s driving.IngestionService) {
	ingestService = s
}

// SetAnswerService injects the answer service.
func SetAnswerService(s driving.AnswerService) {
	answerService = s
}

// SetSettingsService injects the settings service.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// Execute runs the root command. Long-running commands stop when ctx is done.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
