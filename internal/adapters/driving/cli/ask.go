package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
)

var (
	askJSON        bool
	askShowContext bool

	historyLimit  int
	historyIngest bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question",
	Long: `Answers a question from ingested content.

Sources are consulted in order: uploaded documents, scraped websites,
then videos. The first source with chunks closer than the retrieval
threshold answers. If none does, the question is sent to a live
internet search instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent questions or ingestions",
	RunE:  runHistory,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askShowContext, "show-context", false, "print the chunks used as context")
	rootCmd.AddCommand(askCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries")
	historyCmd.Flags().BoolVar(&historyIngest, "ingest", false, "show ingestion attempts instead of questions")
	rootCmd.AddCommand(historyCmd)
}

// answerJSON is the --json rendering of an answer.
type answerJSON struct {
	Query  string      `json:"query"`
	Origin string      `json:"origin,omitempty"`
	Answer string      `json:"answer"`
	Failed bool        `json:"failed"`
	Error  string      `json:"error,omitempty"`
	Chunks []chunkJSON `json:"chunks,omitempty"`
}

type chunkJSON struct {
	Source   string  `json:"source"`
	Kind     string  `json:"kind"`
	Distance float64 `json:"distance"`
	Content  string  `json:"content"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errAnswerNotConfigured
	}

	query := strings.Join(args, " ")
	answer := answerService.Ask(cmd.Context(), query)

	if askJSON {
		if err := outputAnswerJSON(cmd, answer); err != nil {
			return err
		}
	} else {
		outputAnswerText(cmd, answer)
	}

	if answer.Failed() {
		return fmt.Errorf("no answer: %w", answer.Err)
	}
	return nil
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	out := answerJSON{
		Query:  answer.Query,
		Origin: string(answer.Origin),
		Answer: answer.Text,
		Failed: answer.Failed(),
	}
	if answer.Err != nil {
		out.Error = answer.Err.Error()
	}
	for _, sc := range answer.Chunks {
		out.Chunks = append(out.Chunks, chunkJSON{
			Source:   sc.Chunk.SourceID,
			Kind:     string(sc.Chunk.Kind),
			Distance: sc.Distance,
			Content:  sc.Chunk.Content,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Text)

	if !askShowContext || len(answer.Chunks) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Context:")
	for i, sc := range answer.Chunks {
		cmd.Printf("  [%d] %s (distance %.3f)\n", i+1, sc.Chunk.SourceID, sc.Distance)
		cmd.Printf("      %s\n", preview(sc.Chunk.Content, 160))
	}
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if answerService == nil {
		return errAnswerNotConfigured
	}

	if historyIngest {
		records, err := answerService.IngestHistory(cmd.Context(), historyLimit)
		if err != nil {
			return fmt.Errorf("failed to load ingestion history: %w", err)
		}
		if len(records) == 0 {
			cmd.Println("Nothing ingested yet.")
			return nil
		}
		for i := range records {
			r := &records[i]
			cmd.Printf("%s  %-8s %-18s %s (%d chunks)\n",
				r.CreatedAt.Format(time.DateTime), r.Via, formatOutcomeState(r.State), r.SourceID, r.Chunks)
		}
		return nil
	}

	entries, err := answerService.History(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(entries) == 0 {
		cmd.Println("No questions asked yet.")
		return nil
	}
	for i := range entries {
		e := &entries[i]
		origin := string(e.Origin)
		if e.Failed {
			origin = "failed"
		}
		cmd.Printf("%s  [%s] %s\n", e.AskedAt.Format(time.DateTime), origin, e.Query)
		cmd.Printf("    %s\n", preview(e.Answer, 120))
	}
	return nil
}

// preview flattens s to one line and truncates it to n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
