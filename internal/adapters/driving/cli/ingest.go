package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// outcomeError makes rejected and failed ingestions exit non-zero.
type outcomeError struct {
	outcome *domain.IngestOutcome
}

func (e *outcomeError) Error() string {
	if e.outcome.Err != nil {
		return e.outcome.Err.Error()
	}
	return string(e.outcome.State)
}

func (e *outcomeError) Unwrap() error {
	return e.outcome.Err
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Add content to the knowledge base",
	Long: `Ingest documents, web pages and videos.

Each item is fingerprinted first; content that was already ingested is
skipped. Documents, scraped pages and videos are stored in separate
indexes.`,
}

var ingestDocumentCmd = &cobra.Command{
	Use:   "document [path]",
	Short: "Ingest a PDF, DOCX, PPTX, HTML, Markdown or text file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd, func(ctx context.Context) *domain.IngestOutcome {
			return ingestService.IngestDocument(ctx, args[0])
		})
	},
}

var ingestURLCmd = &cobra.Command{
	Use:   "url [url]",
	Short: "Scrape and ingest the visible text of a web page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd, func(ctx context.Context) *domain.IngestOutcome {
			return ingestService.IngestURL(ctx, args[0])
		})
	},
}

var ingestVideoCmd = &cobra.Command{
	Use:   "video [path]",
	Short: "Transcribe and ingest a local video file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd, func(ctx context.Context) *domain.IngestOutcome {
			return ingestService.IngestVideo(ctx, args[0])
		})
	},
}

var ingestYouTubeCmd = &cobra.Command{
	Use:   "youtube [url]",
	Short: "Download, transcribe and ingest a YouTube video",
	Long: `Download the audio track of a YouTube video with yt-dlp, transcribe
it and ingest the transcript. Requires yt-dlp and ffmpeg on PATH.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd, func(ctx context.Context) *domain.IngestOutcome {
			return ingestService.IngestYouTube(ctx, args[0])
		})
	},
}

func init() {
	ingestCmd.AddCommand(ingestDocumentCmd)
	ingestCmd.AddCommand(ingestURLCmd)
	ingestCmd.AddCommand(ingestVideoCmd)
	ingestCmd.AddCommand(ingestYouTubeCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, ingest func(context.Context) *domain.IngestOutcome) error {
	if ingestService == nil {
		return errIngestNotConfigured
	}

	out := ingest(cmd.Context())
	cmd.Println(out.Message())

	switch {
	case out.Succeeded():
		cmd.Printf("  %s -> %s, %d chunks, %s\n", out.SourceID, out.Kind, out.Chunks, out.Fingerprint.Short())
		return nil
	case out.Duplicate():
		return nil
	default:
		return &outcomeError{outcome: out}
	}
}

// formatOutcomeState renders a state for tabular output.
func formatOutcomeState(state domain.IngestState) string {
	if state == "" {
		return "-"
	}
	return fmt.Sprint(state)
}
