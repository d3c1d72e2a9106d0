package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
	"github.com/newsquill-labs/newsquill-cli/internal/logger"
)

var ingestChunk bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [file.jsonl]",
	Short: "Load articles from a JSON-lines file",
	Long: `Loads articles into the archive from a JSON-lines file: one JSON
object per line. Re-ingesting the same canonical URL updates the stored
article. Recognised fields:

  url (required), title, source_domain, source_type, author,
  published_at (RFC 3339 or YYYY-MM-DD), lang, summary, body, body_clean,
  topics (array of strings)

Run 'newsquill index' afterwards to embed the new chunks.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestChunk, "chunk", true, "chunk each article after upserting")
	rootCmd.AddCommand(ingestCmd)
}

// ingestRecord is the wire shape of one JSONL line.
type ingestRecord struct {
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	SourceDomain string   `json:"source_domain"`
	SourceType   string   `json:"source_type"`
	Author       string   `json:"author"`
	PublishedAt  string   `json:"published_at"`
	Lang         string   `json:"lang"`
	Summary      string   `json:"summary"`
	Body         string   `json:"body"`
	BodyClean    string   `json:"body_clean"`
	Topics       []string `json:"topics"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := initPipeline(); err != nil {
		return err
	}
	if articleStore == nil {
		return errors.New("article store not configured")
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	ctx := context.Background()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	line, stored, chunked := 0, 0, 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var rec ingestRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			logger.Warn("Line %d: skipping malformed JSON: %v", line, err)
			continue
		}
		article, err := rec.toArticle()
		if err != nil {
			logger.Warn("Line %d: %v", line, err)
			continue
		}

		id, err := articleStore.UpsertArticle(ctx, article)
		if err != nil {
			return fmt.Errorf("line %d: storing article: %w", line, err)
		}
		stored++

		if ingestChunk {
			n, err := indexService.ChunkArticle(ctx, id)
			if err != nil {
				return fmt.Errorf("line %d: chunking article: %w", line, err)
			}
			chunked += n
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	cmd.Printf("Ingested %d articles (%d chunks).\n", stored, chunked)
	if stored > 0 {
		cmd.Println("Run 'newsquill index' to embed the new chunks.")
	}
	return nil
}

func (r ingestRecord) toArticle() (*domain.Article, error) {
	if strings.TrimSpace(r.URL) == "" {
		return nil, errors.New("missing required field 'url'")
	}

	var publishedAt *time.Time
	if r.PublishedAt != "" {
		t, err := parseArticleDate(r.PublishedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid published_at %q: %w", r.PublishedAt, err)
		}
		publishedAt = &t
	}

	body := r.Body
	bodyClean := r.BodyClean
	if bodyClean == "" {
		bodyClean = body
	}

	return &domain.Article{
		SourceDomain: r.SourceDomain,
		SourceType:   r.SourceType,
		CanonicalURL: r.URL,
		Title:        r.Title,
		Author:       r.Author,
		PublishedAt:  publishedAt,
		FetchedAt:    time.Now(),
		Lang:         r.Lang,
		Summary:      r.Summary,
		Body:         body,
		BodyClean:    bodyClean,
		WordCount:    len(strings.Fields(bodyClean)),
		Topics:       r.Topics,
	}, nil
}

func parseArticleDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognised date format")
}
