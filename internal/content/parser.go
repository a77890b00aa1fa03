// Package content extracts task fields from raw outliner block text.
//
// Every function here is pure: the same text (and, where time matters, the
// same clock reading) always yields the same result.
package content

import (
	"regexp"
	"strings"

	"github.com/dotcommander/nowpanel/internal/models"
)

var (
	statusRe    = regexp.MustCompile(`(?i)^\s*(NOW|DOING|TODO|LATER|WAITING|WAIT)(?:\s|$)`)
	anyMarkerRe = regexp.MustCompile(`(?i)^\s*(NOW|DOING|TODO|LATER|WAITING|WAIT|DONE|CANCELED|CANCELLED)(?:\s+|$)`)
	priorityRe  = regexp.MustCompile(`(?i)\[#([ABC])\]`)
	referenceRe = regexp.MustCompile(`\(\(([0-9A-Za-z-]{36})\)\)`)
	onlyRefRe   = regexp.MustCompile(`^\s*\(\(([0-9A-Za-z-]{36})\)\)\s*$`)
)

// markerAliases folds the alternate keywords of each workflow into one
// canonical marker: DOING is NOW, WAIT is WAITING.
var markerAliases = map[string]string{
	"DOING":     string(models.StatusNow),
	"WAIT":      string(models.StatusWaiting),
	"CANCELLED": "CANCELED",
}

func canonicalMarker(raw string) string {
	m := strings.ToUpper(raw)
	if alias, ok := markerAliases[m]; ok {
		return alias
	}
	return m
}

// ClassifyStatus returns the active marker at the start of text, with
// DOING reported as NOW and WAIT as WAITING. DONE, CANCELED and unmarked
// text report false.
func ClassifyStatus(text string) (models.Status, bool) {
	m := statusRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return models.Status(canonicalMarker(m[1])), true
}

// LeadingMarker returns any recognized workflow marker (active or not) in
// canonical form, or "" when the text has none. The block store indexes
// this value, so marker queries for NOW also match DOING blocks.
func LeadingMarker(text string) string {
	m := anyMarkerRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return canonicalMarker(m[1])
}

// ExtractPriority returns the first inline [#A]/[#B]/[#C] marker.
func ExtractPriority(text string) models.Priority {
	m := priorityRe.FindStringSubmatch(text)
	if m == nil {
		return models.PriorityNone
	}
	return models.Priority(strings.ToUpper(m[1]))
}

// PriorityRank maps a priority to its sort rank: A=1, B=2, C=3, none=4.
func PriorityRank(p models.Priority) int {
	switch p {
	case models.PriorityA:
		return 1
	case models.PriorityB:
		return 2
	case models.PriorityC:
		return 3
	default:
		return 4
	}
}

// ExtractReferences returns every ((id)) reference in order of appearance.
// Duplicates are preserved; callers dedupe when they need to.
func ExtractReferences(text string) []string {
	matches := referenceRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// OnlyReference reports whether text consists of exactly one ((id)) reference
// and nothing else besides surrounding whitespace.
func OnlyReference(text string) (string, bool) {
	m := onlyRefRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}
