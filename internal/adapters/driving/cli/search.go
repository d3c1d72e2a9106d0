package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
)

var (
	searchTopK  int
	searchAlpha float64
	searchPool  int
	searchDecay int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run one hybrid retrieval against the archive",
	Long: `Runs a single hybrid retrieval over the indexed chunks and prints the
fused hits. Useful for tuning alpha and the candidate pool before a
generation run.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "n", 0, "maximum number of hits (0 = configured default)")
	searchCmd.Flags().Float64Var(&searchAlpha, "alpha", 0, "lexical weight in fused scoring (an explicit 0 is semantic-only)")
	searchCmd.Flags().IntVar(&searchPool, "lexical-pool", 0, "FTS candidate pool size (0 = configured default)")
	searchCmd.Flags().IntVar(&searchDecay, "decay-days", 0, "recency decay window in days (0 = disabled)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output hits as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := initPipeline(); err != nil {
		return err
	}
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	opts := settings.Retrieval
	if searchTopK > 0 {
		opts.TopK = searchTopK
	}
	if cmd.Flags().Changed("alpha") {
		opts.Alpha = flagAlpha(searchAlpha)
	}
	if searchPool > 0 {
		opts.LexicalPool = searchPool
	}
	if searchDecay > 0 {
		opts.TimeDecayDays = searchDecay
	}

	hits, err := retrievalService.Retrieve(context.Background(), args[0], opts)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, hits)
	}
	return outputSearchTable(cmd, hits)
}

func outputSearchJSON(cmd *cobra.Command, hits []domain.RetrievalHit) error {
	data, err := json.MarshalIndent(hits, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal hits: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, hits []domain.RetrievalHit) error {
	if len(hits) == 0 {
		cmd.Println("No hits found.")
		return nil
	}

	cmd.Println("Hits:")
	cmd.Println()
	for i := range hits {
		title := hits[i].Title
		if title == "" {
			title = hits[i].URL
		}

		cmd.Printf("  [%d] %s (%.3f)\n", i+1, title, hits[i].Score)
		if hits[i].URL != "" {
			cmd.Printf("      %s", hits[i].URL)
			if hits[i].PublishedAt != nil {
				cmd.Printf("  (%s)", hits[i].PublishedAt.Format(time.DateOnly))
			}
			cmd.Println()
		}
		if snippet := searchSnippet(hits[i].Text); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
	return nil
}

// flagAlpha maps an explicit --alpha value onto RetrievalOptions.Alpha,
// where zero means "use the configured default". An explicit 0 asks for
// pure-semantic fusion, so it becomes the sentinel.
func flagAlpha(v float64) float64 {
	if v == 0 {
		return domain.AlphaSemanticOnly
	}
	return v
}

// searchSnippet flattens a chunk to a single short line.
func searchSnippet(text string) string {
	flat := strings.Join(strings.Fields(text), " ")
	const maxLen = 180
	if len(flat) > maxLen {
		flat = flat[:maxLen] + "…"
	}
	return flat
}
