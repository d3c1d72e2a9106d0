package domain

import "time"

// Default retrieval tuning. These mirror the values the pipeline was
// calibrated with; callers override per run via RetrievalOptions.
const (
	// DefaultLexicalPool is the size of the FTS candidate pool.
	DefaultLexicalPool = 120

	// DefaultTopK is the number of hits returned after fusion.
	DefaultTopK = 18

	// DefaultAlpha is the lexical weight in the fused score.
	// fused = alpha*lexical + (1-alpha)*cosine.
	DefaultAlpha = 0.45

	// AlphaSemanticOnly requests a zero lexical weight. The Alpha zero
	// value means unset, so pure-semantic fusion needs a sentinel.
	AlphaSemanticOnly = -1.0
)

// RetrievalOptions tunes one hybrid retrieval call.
type RetrievalOptions struct {
	// LexicalPool is how many FTS candidates to fetch before vector
	// re-scoring. Zero means DefaultLexicalPool.
	LexicalPool int

	// TopK caps the returned hits. Zero means DefaultTopK.
	TopK int

	// Alpha weights the lexical score against cosine similarity.
	// Zero means DefaultAlpha; use AlphaSemanticOnly for a zero lexical
	// weight. Values outside [0,1] are clamped.
	Alpha float64

	// TimeDecayDays applies exponential recency decay when positive:
	// score *= exp(-ageDays/TimeDecayDays). Zero disables decay.
	TimeDecayDays int
}

// Normalise fills zero fields with defaults and clamps Alpha to [0,1].
func (o RetrievalOptions) Normalise() RetrievalOptions {
	if o.LexicalPool <= 0 {
		o.LexicalPool = DefaultLexicalPool
	}
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	switch {
	case o.Alpha == 0:
		o.Alpha = DefaultAlpha
	case o.Alpha < 0:
		o.Alpha = 0
	case o.Alpha > 1:
		o.Alpha = 1
	}
	return o
}

// LexicalHit is a raw full-text match, ordered by FTS rank.
type LexicalHit struct {
	ArticleID   int64
	Seq         int
	Text        string
	Title       string
	URL         string
	PublishedAt *time.Time
}

// RetrievalHit is a fused, deduplicated retrieval result.
// Fields are structural; citation formatting is left to the consumer.
type RetrievalHit struct {
	Text        string
	Title       string
	URL         string
	PublishedAt *time.Time

	// Score is the fused relevance score (higher is better).
	Score float64
}

// VectorFilter restricts which chunks a backfill pass considers.
type VectorFilter struct {
	// DateFrom/DateTo clamp by article published_at (inclusive).
	// Undated articles are excluded only when a bound is set.
	DateFrom *time.Time
	DateTo   *time.Time

	// Topics keeps articles carrying ANY of the listed topics.
	Topics []string

	// Limit caps the candidate set. Zero means no limit.
	Limit int
}

// BackfillStats summarises one vector backfill pass.
type BackfillStats struct {
	Considered int
	Embedded   int
	Skipped    int
	Replaced   int
}
