package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Show the state of each source index",
	Long: `Lists the document, scraped and video indexes in the order they are
consulted, with their chunk counts and the embedding model each was
built with.`,
	Args: cobra.NoArgs,
	RunE: runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errIngestNotConfigured
	}

	stats, err := ingestService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read sources: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tINDEX\tCHUNKS\tINGESTED\tEMBEDDING")
	for _, s := range stats {
		index, stamp := "missing", "-"
		if s.IndexExists {
			index = "ready"
			stamp = s.Stamp.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", s.Kind, index, s.Chunks, s.Fingerprints, stamp)
	}
	return w.Flush()
}
