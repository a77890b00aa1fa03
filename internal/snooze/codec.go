// Package snooze parses snooze input, encodes snooze metadata and derives
// resurface state and countdown labels.
package snooze

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/dotcommander/nowpanel/internal/models"
)

// NaturalParser resolves free-form date text relative to base.
type NaturalParser func(text string, base time.Time) (time.Time, bool)

var shorthandRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(m|mins?|minutes?|h|hrs?|hours?|d|days?|w|wks?|weeks?)$`)

var defaultParser = newWhenParser()

func newWhenParser() NaturalParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return func(text string, base time.Time) (time.Time, bool) {
		r, err := w.Parse(text, base)
		if err != nil || r == nil {
			return time.Time{}, false
		}
		return r.Time, true
	}
}

// ParseDuration turns "30m", "2h", "3 days", "1w" or natural language such as
// "tomorrow 9am" into an absolute time relative to now.
func ParseDuration(input string, now time.Time) (time.Time, bool) {
	return ParseDurationWith(input, now, defaultParser)
}

// ParseDurationWith is ParseDuration with a caller-supplied natural-language
// fallback. A nil parser disables the fallback.
func ParseDurationWith(input string, now time.Time, natural NaturalParser) (time.Time, bool) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return time.Time{}, false
	}
	if m := shorthandRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil || n <= 0 {
			return time.Time{}, false
		}
		return now.Add(time.Duration(n * float64(unitOf(m[2])))), true
	}
	if natural == nil {
		return time.Time{}, false
	}
	return natural(s, now)
}

func unitOf(u string) time.Duration {
	switch u[0] {
	case 'm':
		return time.Minute
	case 'h':
		return time.Hour
	case 'd':
		return 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// Encode renders t as an ISO-8601 annotation value.
func Encode(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Decode parses an annotation value written by Encode. Non-strings and
// unparseable strings report false.
func Decode(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Info is decoded snooze metadata.
type Info struct {
	Until     time.Time
	CreatedAt time.Time
}

// ReadInfo decodes both snooze annotations. A block missing either one, or
// carrying an invalid value, is not snoozed.
func ReadInfo(a models.Annotations) (Info, bool) {
	rawUntil, ok := a.SnoozedUntil()
	if !ok {
		return Info{}, false
	}
	rawAt, ok := a.SnoozedAt()
	if !ok {
		return Info{}, false
	}
	until, ok := Decode(rawUntil)
	if !ok {
		return Info{}, false
	}
	at, ok := Decode(rawAt)
	if !ok {
		return Info{}, false
	}
	return Info{Until: until, CreatedAt: at}, true
}

// IsResurfaced reports whether the snooze has run out at now. The exact
// resurface instant already counts as resurfaced.
func (i Info) IsResurfaced(now time.Time) bool {
	return !now.Before(i.Until)
}

// Label is the display string for the snooze countdown at now.
func (i Info) Label(now time.Time) string {
	if i.IsResurfaced(now) {
		return ResurfacedLabel(i.Until, now)
	}
	return PendingLabel(i.Until, now)
}

// PendingLabel is the countdown shown for a task that is still snoozed.
func PendingLabel(until, now time.Time) string {
	return RelativeLabel(until, now)
}

// ResurfacedLabel is shown once a snooze has run out.
func ResurfacedLabel(until, now time.Time) string {
	return "Resurfaced " + RelativeLabel(until, now)
}

// RelativeLabel renders t relative to now: "now", "in 5m", "3h ago",
// "tomorrow", "in 2d", "1w ago", "in 3mo". Date-only values (midnight) are
// compared by calendar day first so a bare schedule reads "today".
func RelativeLabel(t, now time.Time) string {
	t = t.In(now.Location())
	days := calendarDays(t, now)
	if isMidnight(t) {
		switch days {
		case 0:
			return "today"
		case 1:
			return "tomorrow"
		case -1:
			return "yesterday"
		}
	}

	d := t.Sub(now)
	abs := d
	if abs < 0 {
		abs = -abs
	}
	var mag string
	switch {
	case abs < time.Minute:
		return "now"
	case abs < time.Hour:
		mag = strconv.Itoa(int(abs/time.Minute)) + "m"
	case abs < 24*time.Hour:
		mag = strconv.Itoa(int(abs/time.Hour)) + "h"
	default:
		switch days {
		case 1:
			return "tomorrow"
		case -1:
			return "yesterday"
		}
		n := days
		if n < 0 {
			n = -n
		}
		switch {
		case n < 7:
			mag = strconv.Itoa(n) + "d"
		case n < 28:
			mag = strconv.Itoa(n/7) + "w"
		default:
			mag = strconv.Itoa(int(math.Max(1, float64(n/30)))) + "mo"
		}
	}
	if d > 0 {
		return "in " + mag
	}
	return mag + " ago"
}

// calendarDays is the number of calendar days from now's date to t's date.
func calendarDays(t, now time.Time) int {
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	a := time.Date(ty, tm, td, 12, 0, 0, 0, time.UTC)
	b := time.Date(ny, nm, nd, 12, 0, 0, 0, time.UTC)
	return int(math.Round(a.Sub(b).Hours() / 24))
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}
