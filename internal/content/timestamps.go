package content

import (
	"regexp"
	"strconv"
	"time"
)

var (
	// 2024-01-19 Fri 10:00[:00]; weekday and time are optional.
	stampRe     = regexp.MustCompile(`^\s*(\d{4})-(\d{2})-(\d{2})(?:\s+[A-Za-z]{2,9}\.?)?(?:\s+(\d{1,2}):(\d{2})(?::(\d{2}))?)?`)
	scheduledRe = regexp.MustCompile(`SCHEDULED:\s*<([^>]+)>`)
	clockRe     = regexp.MustCompile(`CLOCK:\s*\[([^\]]+)\](--\[[^\]]+\])?`)
)

// parseStamp parses an org-style timestamp body in loc. A missing time of day
// means midnight.
func parseStamp(s string, loc *time.Location) (time.Time, bool) {
	m := stampRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	var hour, minute, sec int
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		minute, _ = strconv.Atoi(m[5])
		if m[6] != "" {
			sec, _ = strconv.Atoi(m[6])
		}
		if hour > 23 || minute > 59 || sec > 59 {
			return time.Time{}, false
		}
	}
	if loc == nil {
		loc = time.Local
	}
	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, loc)
	// time.Date normalizes Feb 30 into March; reject instead.
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// ExtractScheduled parses the first SCHEDULED: <YYYY-MM-DD Day[ HH:MM]> marker.
func ExtractScheduled(text string, loc *time.Location) *time.Time {
	m := scheduledRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	t, ok := parseStamp(m[1], loc)
	if !ok {
		return nil
	}
	return &t
}

// ExtractActiveClockStart returns the start of the last open clock entry,
// i.e. a CLOCK: [ts] line without a --[ts] range. Entries are assumed to be
// chronological; if several are open the last one wins.
func ExtractActiveClockStart(text string, loc *time.Location) *time.Time {
	var last *time.Time
	for _, m := range clockRe.FindAllStringSubmatch(text, -1) {
		if m[2] != "" {
			continue
		}
		t, ok := parseStamp(m[1], loc)
		if !ok {
			continue
		}
		last = &t
	}
	return last
}

// ElapsedSince is now minus the open clock start, or 0 when no entry is open.
func ElapsedSince(text string, now time.Time) time.Duration {
	start := ExtractActiveClockStart(text, now.Location())
	if start == nil {
		return 0
	}
	return now.Sub(*start)
}
