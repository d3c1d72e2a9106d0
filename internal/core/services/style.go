package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
)

// Style guidance is injected as auxiliary instruction text so presentation
// never changes what facts are retrievable.

// profanityStyle returns explicit guidance on how and how often the prose
// may swear. Slurs and harassment are always disallowed.
func profanityStyle(style domain.StyleOptions) string {
	var base string
	switch style.Profanity {
	case domain.ProfanityMild:
		base = "Style: allow mild and standard profanity for emphasis. No slurs or harassment."
	case domain.ProfanitySpicy:
		base = "Style: include exaggerated profanity without restraint - for emphasis and to promote a harsh conversational style. Avoid slurs and harassment."
	case domain.ProfanityBleeped:
		base = "Style: profanity is allowed but must be **bleeped** (e.g., f**k, sh*t). No slurs or harassment."
	default:
		base = "Style: no profanity. Use precision and wit; absolutely avoid slurs and harassment."
	}

	var freqRule string
	if style.Profanity == domain.ProfanityMild ||
		style.Profanity == domain.ProfanitySpicy ||
		style.Profanity == domain.ProfanityBleeped {
		switch style.Frequency {
		case domain.FrequencyScarce:
			freqRule = "Distribution: about 0-1 profanities per section on average; some sections may have none."
		case domain.FrequencyModerate:
			freqRule = "Distribution: around 2-3 profanities per section; vary placement naturally."
		case domain.FrequencyHeavy:
			freqRule = "Distribution: up to 4-6 profanities per section, spread across the post."
		case domain.FrequencyCustom:
			n := style.PerSection
			if n < 0 {
				n = 0
			}
			freqRule = fmt.Sprintf("Distribution: target ~%d profanities in each section.", n)
		}
	}

	rails := "Constraints: never use slurs; never target protected classes; do not harass individuals."
	return base + "\n" + freqRule + "\n" + rails
}

// readabilityStyle guides clarity and cadence. "auto" lets the model choose;
// a numeric grade clamps to [2,18].
func readabilityStyle(gradeLevel string) string {
	natural := "Readability: choose a natural cadence for policy-curious adults; " +
		"prefer clarity over flourish; define any necessary jargon once."

	if strings.EqualFold(gradeLevel, "auto") {
		return natural
	}
	g, err := strconv.Atoi(strings.TrimSpace(gradeLevel))
	if err != nil {
		return natural
	}
	if g < 2 {
		g = 2
	}
	if g > 18 {
		g = 18
	}
	return fmt.Sprintf("Readability: target roughly grade %d. Prefer short sentences, concrete nouns/verbs, "+
		"limit subordinate clauses, explain jargon once, and keep average sentence length appropriate "+
		"to that level.", g)
}

// sectionProfanityTarget is the per-section swear count hint for the drafter.
func sectionProfanityTarget(style domain.StyleOptions) int {
	if style.Profanity != domain.ProfanityMild &&
		style.Profanity != domain.ProfanitySpicy &&
		style.Profanity != domain.ProfanityBleeped {
		return 0
	}
	switch style.Frequency {
	case domain.FrequencyScarce:
		return 1
	case domain.FrequencyModerate:
		return 2
	case domain.FrequencyHeavy:
		return 3
	default:
		if style.PerSection > 0 {
			return style.PerSection
		}
		return 0
	}
}

// overallProfanityTarget is the whole-post swear count hint for the consolidator.
func overallProfanityTarget(style domain.StyleOptions, sections int) int {
	switch style.Frequency {
	case domain.FrequencyScarce:
		return maxInt(1, sections/2)
	case domain.FrequencyModerate:
		return maxInt(2, sections)
	case domain.FrequencyHeavy:
		return maxInt(3, sections*3/2)
	case domain.FrequencyCustom:
		return maxInt(0, style.PerSection) * maxInt(1, sections)
	default:
		return 0
	}
}

var profanityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bfuck(ing|er|ers|ed|s)?\b`),
	regexp.MustCompile(`(?i)\bshit(ty|s)?\b`),
	regexp.MustCompile(`(?i)\bass(hole|holes)?\b`),
	regexp.MustCompile(`(?i)\bdamn\b`),
	regexp.MustCompile(`(?i)\bhell\b`),
	regexp.MustCompile(`(?i)\bpiss(ed)?\b`),
	regexp.MustCompile(`(?i)\bcrap\b`),
}

var vowelRe = regexp.MustCompile(`[aeiouAEIOU]`)

// applyProfanityFilter is a deterministic safety net over the LLM output:
// 'bleeped' censors vowels in common profanities, 'clean' softens or removes
// the same set. Other levels pass text through unchanged. Slurs are never
// transformed; they are disallowed by instruction.
func applyProfanityFilter(text string, level domain.ProfanityLevel) string {
	switch level {
	case domain.ProfanityBleeped:
		for _, pat := range profanityPatterns {
			text = pat.ReplaceAllStringFunc(text, func(w string) string {
				return vowelRe.ReplaceAllString(w, "*")
			})
		}
	case domain.ProfanityClean:
		for _, pat := range profanityPatterns {
			text = pat.ReplaceAllStringFunc(text, func(w string) string {
				switch strings.ToLower(w) {
				case "damn", "hell", "crap":
					return ""
				}
				return w[:1] + "—"
			})
		}
	}
	return text
}

var headingRe = regexp.MustCompile(`(?m)^#{1,6}\s+`)

// stripHeadings demotes markdown heading lines to plain paragraph text.
// The consolidator is told to return prose only; this repairs the cases
// where the model produced headings anyway.
func stripHeadings(text string) string {
	return headingRe.ReplaceAllString(text, "")
}

// socialBlurb builds the teaser line, capped at 42 words.
func socialBlurb(topic, hook string) string {
	base := fmt.Sprintf("Reality-check %s. %s Receipts > press releases.", topic, hook)
	words := strings.Fields(base)
	if len(words) <= 42 {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:42], " ") + "…"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
