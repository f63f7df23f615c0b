package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui"
	"github.com/custodia-labs/recall/internal/adapters/driving/watch"
	"github.com/custodia-labs/recall/internal/logger"
)

var tuiWatchDir string

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for recall.

The TUI lets you ask questions, ingest documents, pages and videos, and
inspect the source indexes with keyboard navigation.

Controls:
  ↑/k, ↓/j   - Navigate
  Enter      - Ask / Select
  PgUp/PgDn  - Scroll the conversation
  Esc        - Back / Cancel
  ?          - Toggle help
  q          - Quit

Use --watch to ingest files dropped into a folder while the TUI is open.`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&tuiWatchDir, "watch", "", "folder to watch and ingest in the background")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// The watcher is long-running; it stops with the TUI.
	if tuiWatchDir != "" && ingestService != nil {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		w := watch.New(tuiWatchDir, ingestService, watch.Config{})
		go func() {
			if err := w.Run(watchCtx); err != nil {
				// Output would corrupt the alt screen; the log file keeps it.
				logger.Warn("watcher stopped: %v", err)
			}
		}()
	}

	app, err := tui.NewApp(tui.NewPorts(answerService, ingestService, settingsService))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(ctx)

	if err := app.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
