package services

import (
	"regexp"
	"strings"

	"github.com/newsquill-labs/newsquill-cli/internal/logger"
)

var (
	numberedLineRe = regexp.MustCompile(`^\s*\d+[.)]\s*(.+)$`)
	looseNumbering = "1234567890). "
)

// parseNumberedList extracts up to max items from an LLM response expected
// to be a numbered list. Parsing is two-tier: lines matching "<n>. text"
// parse strictly; other non-empty lines have loose numbering stripped and
// are kept as-is. If no line yields an item, the whole trimmed response
// becomes a single item. The degraded paths are logged, never fatal.
func parseNumberedList(raw string, max int) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || max <= 0 {
		return nil
	}

	items := make([]string, 0, max)
	degraded := false
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var item string
		if m := numberedLineRe.FindStringSubmatch(line); m != nil {
			item = strings.TrimSpace(m[1])
		} else {
			item = strings.TrimSpace(strings.TrimLeft(line, looseNumbering))
			if item != "" {
				degraded = true
			}
		}
		if item == "" {
			continue
		}

		items = append(items, item)
		if len(items) >= max {
			break
		}
	}

	if len(items) == 0 {
		// Whole response as one item: last-resort recovery for prose
		// answers that ignored the list format.
		logger.Warn("List response had no parseable lines, using whole response")
		return []string{raw}
	}
	if degraded {
		logger.Debug("List response needed loose-numbering fallback")
	}
	return items
}
