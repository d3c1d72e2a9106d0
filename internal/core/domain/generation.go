package domain

import (
	"regexp"
	"strings"
	"time"
)

// Default generation tuning.
const (
	// DefaultNumSubtasks is how many sections the planner targets.
	DefaultNumSubtasks = 5

	// DefaultQueriesPerSubtask is how many retrieval queries are built
	// per subtask.
	DefaultQueriesPerSubtask = 3

	// DefaultWordTargetMin and DefaultWordTargetMax bound the advisory
	// length of the consolidated post.
	DefaultWordTargetMin = 900
	DefaultWordTargetMax = 1400
)

// ProfanityLevel controls how edgy the generated prose may be.
type ProfanityLevel string

// Available profanity levels.
const (
	ProfanityClean   ProfanityLevel = "clean"
	ProfanityMild    ProfanityLevel = "mild"
	ProfanitySpicy   ProfanityLevel = "spicy"
	ProfanityBleeped ProfanityLevel = "bleeped"
)

// IsValid returns true if the level is recognised.
func (p ProfanityLevel) IsValid() bool {
	switch p {
	case ProfanityClean, ProfanityMild, ProfanitySpicy, ProfanityBleeped:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p ProfanityLevel) String() string {
	return string(p)
}

// ProfanityFrequency controls how often profanity appears across sections.
type ProfanityFrequency string

// Available profanity frequencies.
const (
	FrequencyScarce   ProfanityFrequency = "scarce"
	FrequencyModerate ProfanityFrequency = "moderate"
	FrequencyHeavy    ProfanityFrequency = "heavy"
	FrequencyCustom   ProfanityFrequency = "custom"
)

// IsValid returns true if the frequency is recognised.
func (f ProfanityFrequency) IsValid() bool {
	switch f {
	case FrequencyScarce, FrequencyModerate, FrequencyHeavy, FrequencyCustom:
		return true
	default:
		return false
	}
}

// CitationStyle controls how evidence is presented to the drafter.
type CitationStyle string

// Available citation styles.
const (
	// CitationInline prefixes each snippet with a [SOURCE] header line
	// carrying title, URL and date.
	CitationInline CitationStyle = "inline"

	// CitationNone passes bare snippet text with no attribution header.
	CitationNone CitationStyle = "none"
)

// StyleOptions shapes the voice of drafted and consolidated prose.
type StyleOptions struct {
	// Profanity is the allowed edge level. Empty means clean.
	Profanity ProfanityLevel

	// Frequency is how often profanity appears. Empty means moderate.
	Frequency ProfanityFrequency

	// PerSection is the per-section target when Frequency is custom.
	PerSection int

	// GradeLevel targets readability: a number ("9".."16") or "auto".
	GradeLevel string

	// Citations controls evidence formatting for the drafter.
	Citations CitationStyle
}

// Normalise fills empty fields with defaults.
func (s StyleOptions) Normalise() StyleOptions {
	if s.Profanity == "" {
		s.Profanity = ProfanityClean
	}
	if s.Frequency == "" {
		s.Frequency = FrequencyModerate
	}
	if s.GradeLevel == "" {
		s.GradeLevel = "12"
	}
	if s.Citations == "" {
		s.Citations = CitationInline
	}
	return s
}

// BlogTask is one blog assignment: what to write about and how.
type BlogTask struct {
	// Title is the post headline (required).
	Title string

	// Topic is the subject the post analyses (required).
	Topic string

	// Angle frames the argument. Empty picks a verification-first default.
	Angle string

	// Audience describes the reader (default "informed general").
	Audience string

	// Tone sets the register (default "analytical").
	Tone string

	// Author is the byline for the front matter.
	Author string

	// Category is the front-matter category (default "analysis").
	Category string

	// Tags become front-matter tags. Empty derives from category/tone/topic.
	Tags []string

	// Brief is optional extra guidance appended to the master prompt.
	Brief string

	// NumSubtasks is the planner's section count. Zero means default.
	NumSubtasks int

	// QueriesPerSubtask is queries built per section. Zero means default.
	QueriesPerSubtask int

	// Retrieval tunes the hybrid retrieval behind each query.
	Retrieval RetrievalOptions

	// Style shapes the prose.
	Style StyleOptions

	// IncludeSocial requests a short social teaser alongside the post.
	IncludeSocial bool
}

// Normalise fills zero fields with defaults.
func (t BlogTask) Normalise() BlogTask {
	if t.Audience == "" {
		t.Audience = "informed general"
	}
	if t.Tone == "" {
		t.Tone = "analytical"
	}
	if t.Author == "" {
		t.Author = "Editorial Desk"
	}
	if t.Category == "" {
		t.Category = "analysis"
	}
	if t.NumSubtasks <= 0 {
		t.NumSubtasks = DefaultNumSubtasks
	}
	if t.QueriesPerSubtask <= 0 {
		t.QueriesPerSubtask = DefaultQueriesPerSubtask
	}
	t.Retrieval = t.Retrieval.Normalise()
	t.Style = t.Style.Normalise()
	return t
}

// Subtask is one planned section of the post, accumulating state as it
// moves through the pipeline: queries, evidence, then a draft.
type Subtask struct {
	// ID is a stable identifier for logging and error attribution.
	ID string

	// Instruction is the one-sentence section brief from the planner.
	Instruction string

	// Context is the full task prompt the subtask was planned from.
	Context string

	// Queries are the retrieval queries built for this section.
	Queries []string

	// Evidence holds the deduplicated retrieval hits for this section.
	Evidence []RetrievalHit

	// Draft is the written section prose.
	Draft string
}

// BlogResult is the finished output of a generation run.
type BlogResult struct {
	// Markdown is the full document: front matter, title heading, body.
	Markdown string

	// Social is the optional teaser blurb. Empty unless requested.
	Social string

	// Subtasks carries the per-section pipeline state, useful for
	// tracing and for salvage after a partial failure.
	Subtasks []Subtask

	// GeneratedAt is when consolidation finished.
	GeneratedAt time.Time
}

var (
	slugStripRe    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapseRe = regexp.MustCompile(`[\s_-]+`)
)

// Slugify converts a title into a URL-safe slug, capped at 80 characters.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugStripRe.ReplaceAllString(s, "")
	s = slugCollapseRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 80 {
		s = strings.Trim(s[:80], "-")
	}
	return s
}
