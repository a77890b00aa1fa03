package content

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dotcommander/nowpanel/internal/models"
)

var (
	priorityTokenRe = regexp.MustCompile(`(?i)[ \t]?\[#[ABC]\]`)
	estimateRe      = regexp.MustCompile(`^(?:(\d+)\s*h(?:ours?|rs?)?)?\s*(?:(\d+)\s*m(?:in(?:ute)?s?)?)?$`)
)

// SetPriority replaces the first priority tag with p, or inserts one right
// after the leading marker (or at the start when there is none).
func SetPriority(text string, p models.Priority) string {
	tag := "[#" + string(p) + "]"
	if loc := priorityRe.FindStringIndex(text); loc != nil {
		return text[:loc[0]] + tag + text[loc[1]:]
	}
	if loc := anyMarkerRe.FindStringIndex(text); loc != nil {
		head := strings.TrimRight(text[:loc[1]], " \t")
		rest := text[loc[1]:]
		if rest == "" {
			return head + " " + tag
		}
		return head + " " + tag + " " + rest
	}
	return tag + " " + text
}

// RemovePriority drops every priority tag together with one leading space.
func RemovePriority(text string) string {
	out := priorityTokenRe.ReplaceAllString(text, "")
	return strings.TrimLeft(out, " \t")
}

// MarkDone rewrites the leading marker to DONE and closes an open clock
// entry at now. Text without a marker gets DONE prepended.
func MarkDone(text string, now time.Time) string {
	out := closeOpenClock(text, now)
	if loc := anyMarkerRe.FindStringIndex(out); loc != nil {
		rest := out[loc[1]:]
		if rest == "" {
			return models.MarkerDone
		}
		return models.MarkerDone + " " + rest
	}
	return models.MarkerDone + " " + out
}

// closeOpenClock turns the last open CLOCK entry into a closed range with the
// elapsed duration appended.
func closeOpenClock(text string, now time.Time) string {
	matches := clockRe.FindAllStringSubmatchIndex(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		if m[4] >= 0 {
			continue
		}
		start, ok := parseStamp(text[m[2]:m[3]], now.Location())
		if !ok {
			continue
		}
		elapsed := now.Sub(start)
		if elapsed < 0 {
			elapsed = 0
		}
		closing := fmt.Sprintf("--[%s] =>  %s", FormatStamp(now), formatClockDuration(elapsed))
		return text[:m[1]] + closing + text[m[1]:]
	}
	return text
}

// FormatStamp renders t the way clock entries store it: 2024-01-19 Fri 10:00:00.
func FormatStamp(t time.Time) string {
	return t.Format("2006-01-02 Mon 15:04:05")
}

func formatClockDuration(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// ParseEstimate reads a time estimate as whole minutes: "90", "45m",
// "1h", "1h30m", "2 hours". Zero or unparseable input reports false.
func ParseEstimate(input string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, n > 0
	}
	m := estimateRe.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0, false
	}
	var minutes int
	if m[1] != "" {
		h, _ := strconv.Atoi(m[1])
		minutes += h * 60
	}
	if m[2] != "" {
		mm, _ := strconv.Atoi(m[2])
		minutes += mm
	}
	return minutes, minutes > 0
}
