package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/adapters/driving/watch"
	"github.com/custodia-labs/recall/internal/core/domain"
)

var (
	watchDebounce time.Duration
	watchExisting bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest files as they appear in a folder",
	Long: `Watches a folder tree and ingests documents and videos dropped into it.

Files are routed by extension: video files are transcribed, everything
else is treated as a document. A file is ingested once it has stopped
changing for the debounce period. Already ingested content is skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a changed file is ingested")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "ingest files already in the folder at start")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errIngestNotConfigured
	}

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cannot watch %s: not a directory", dir)
	}

	w := watch.New(dir, ingestService, watch.Config{
		Debounce:     watchDebounce,
		ScanExisting: watchExisting,
		OnOutcome: func(out *domain.IngestOutcome) {
			cmd.Println(out.Message())
		},
	})

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)
	return w.Run(cmd.Context())
}
