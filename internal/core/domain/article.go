package domain

import "time"

// Article is a fetched news item. The canonical URL is the natural key:
// re-ingesting the same URL updates the existing row.
type Article struct {
	// ID is the store-assigned identifier (0 until saved).
	ID int64

	// SourceDomain is the publisher host (e.g. "theguardian.com").
	SourceDomain string

	// SourceType describes how the article was obtained (e.g. "api", "rss").
	SourceType string

	// CanonicalURL uniquely identifies the article.
	CanonicalURL string

	// Title is the headline.
	Title string

	// Author is the byline, if known.
	Author string

	// PublishedAt is the publication timestamp. Nil when the source
	// did not provide one; retrieval never penalises undated articles.
	PublishedAt *time.Time

	// FetchedAt is when the article was ingested.
	FetchedAt time.Time

	// Lang is the BCP-47 language tag, if known.
	Lang string

	// Summary is a short source-provided abstract.
	Summary string

	// Body is the raw article text as fetched.
	Body string

	// BodyClean is the cleaned text used for chunking.
	BodyClean string

	// WordCount is the word count of BodyClean.
	WordCount int

	// Topics are editorial topic labels attached to the article.
	Topics []string
}

// Chunk is a contiguous slice of an article's cleaned body.
// Chunks for an article are rewritten wholesale when the body changes,
// so (ArticleID, Seq) is stable only between rewrites.
type Chunk struct {
	ArticleID int64
	Seq       int
	Text      string

	// TextHash is the SHA-1 of Text, used for cross-query deduplication
	// and for detecting stale vectors.
	TextHash string
}

// ChunkVector is a stored embedding for one chunk under one model.
// The same chunk may carry vectors from several models; scoring only
// ever compares vectors within a single model's space.
type ChunkVector struct {
	ArticleID int64
	Seq       int
	Model     string
	Embedding []float32
	TextHash  string

	// Denormalised article metadata, carried so that time-decay and
	// source filters never need a join back to articles.
	PublishedAt  *time.Time
	Topics       []string
	SourceType   string
	SourceDomain string
}

// ChunkKey identifies a chunk without its payload.
type ChunkKey struct {
	ArticleID int64
	Seq       int
}

// RunRecord is an audit entry for one generation run. Write-only:
// nothing in the pipeline reads it back.
type RunRecord struct {
	ID int64

	// RunUID correlates the audit row with the run's log output.
	RunUID string

	Topic     string
	Prompt    string
	Output    string
	CreatedAt time.Time
}
