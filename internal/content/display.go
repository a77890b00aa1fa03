package content

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	logbookRe      = regexp.MustCompile(`(?is):LOGBOOK:.*?:END:`)
	planningLineRe = regexp.MustCompile(`(?m)^[ \t]*(?:SCHEDULED|DEADLINE):.*$`)
	propertyLineRe = regexp.MustCompile(`(?m)^[ \t]*[A-Za-z][A-Za-z0-9_-]*::.*$`)
	activeStampRe  = regexp.MustCompile(`<\d{4}-\d{2}-\d{2}[^>]*>`)
	rangeStampRe   = regexp.MustCompile(`\[\d{4}-\d{2}-\d{2}[^\]]*\](?:--\[\d{4}-\d{2}-\d{2}[^\]]*\])?`)
	clockLineRe    = regexp.MustCompile(`(?m)^[ \t]*CLOCK:.*$`)
	spaceRunRe     = regexp.MustCompile(`[ \t]+`)
	// Only upper-case markers are stripped for display, so a leading word
	// like "now" in ordinary prose survives.
	displayMarkerRe = regexp.MustCompile(`^\s*(?:NOW|DOING|TODO|LATER|WAITING|WAIT|DONE|CANCELED|CANCELLED)(?:\s+|$)`)
)

// DisplayText strips workflow markers, priority tags, the LOGBOOK drawer,
// planning lines, property lines and inline timestamps, then normalizes
// whitespace. It is idempotent: stripping repeats until nothing changes.
//
// Markers are stripped only in upper case, while ClassifyStatus matches any
// case: "todo buy milk" is a TODO task whose display text keeps "todo".
func DisplayText(text string) string {
	out := text
	for {
		next := stripOnce(out)
		if next == out {
			return out
		}
		out = next
	}
}

func stripOnce(text string) string {
	s := logbookRe.ReplaceAllString(text, "")
	s = planningLineRe.ReplaceAllString(s, "")
	s = clockLineRe.ReplaceAllString(s, "")
	s = propertyLineRe.ReplaceAllString(s, "")
	s = activeStampRe.ReplaceAllString(s, "")
	s = rangeStampRe.ReplaceAllString(s, "")
	s = priorityRe.ReplaceAllString(s, "")
	s = displayMarkerRe.ReplaceAllString(s, "")

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(spaceRunRe.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// Preview returns the first line of DisplayText cut to at most limit runes,
// with an ellipsis when truncated.
func Preview(text string, limit int) string {
	s := DisplayText(text)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	if limit == 1 {
		return "…"
	}
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}
