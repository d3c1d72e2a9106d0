package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
	"github.com/newsquill-labs/newsquill-cli/internal/core/ports/driving"
)

var (
	indexRebuildFTS bool
	indexRecompute  bool
	indexModel      string
	indexBatch      int
	indexFrom       string
	indexTo         string
	indexTopics     []string
	indexLimit      int
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Chunk articles and backfill embedding vectors",
	Long: `Splits stored article bodies into chunks (kept consistent with the
full-text index) and embeds chunks that lack a vector under the configured
embedding model.

With --recompute, existing vectors for the filtered set are deleted and
rebuilt; with --rebuild-fts, only the full-text index is rebuilt from the
chunks table.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexRebuildFTS, "rebuild-fts", false, "rebuild the full-text index and exit")
	indexCmd.Flags().BoolVar(&indexRecompute, "recompute", false, "recompute vectors even where one exists")
	indexCmd.Flags().StringVar(&indexModel, "model", "", "override the configured embedding model")
	indexCmd.Flags().IntVar(&indexBatch, "batch", 0, "texts per embedding request (0 = configured default)")
	indexCmd.Flags().StringVar(&indexFrom, "from", "", "only articles published on/after this date (YYYY-MM-DD)")
	indexCmd.Flags().StringVar(&indexTo, "to", "", "only articles published on/before this date (YYYY-MM-DD)")
	indexCmd.Flags().StringSliceVar(&indexTopics, "topic", nil, "only articles carrying any of these topics")
	indexCmd.Flags().IntVar(&indexLimit, "limit", 0, "cap the number of chunks considered")

	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if err := initPipeline(); err != nil {
		return err
	}
	if indexService == nil {
		return errors.New("index service not configured")
	}

	ctx := context.Background()

	if indexRebuildFTS {
		if err := indexService.RebuildLexicalIndex(ctx); err != nil {
			return fmt.Errorf("rebuilding full-text index: %w", err)
		}
		cmd.Println("Full-text index rebuilt.")
		return nil
	}

	total, err := indexService.ChunkAll(ctx)
	if err != nil {
		return fmt.Errorf("chunking articles: %w", err)
	}
	cmd.Printf("Chunked archive: %d chunks.\n", total)

	filter, err := buildVectorFilter()
	if err != nil {
		return err
	}

	stats, err := indexService.BackfillVectors(ctx, driving.BackfillOptions{
		BatchSize:    indexBatch,
		RecomputeAll: indexRecompute,
		Filter:       filter,
	})
	if err != nil {
		return fmt.Errorf("backfilling vectors: %w", err)
	}

	cmd.Printf("Vectors: %d considered, %d embedded, %d skipped, %d replaced.\n",
		stats.Considered, stats.Embedded, stats.Skipped, stats.Replaced)
	return nil
}

func buildVectorFilter() (domain.VectorFilter, error) {
	filter := domain.VectorFilter{
		Topics: indexTopics,
		Limit:  indexLimit,
	}

	if indexFrom != "" {
		from, err := time.Parse("2006-01-02", indexFrom)
		if err != nil {
			return filter, fmt.Errorf("invalid --from date %q: %w", indexFrom, err)
		}
		filter.DateFrom = &from
	}
	if indexTo != "" {
		to, err := time.Parse("2006-01-02", indexTo)
		if err != nil {
			return filter, fmt.Errorf("invalid --to date %q: %w", indexTo, err)
		}
		filter.DateTo = &to
	}
	return filter, nil
}
