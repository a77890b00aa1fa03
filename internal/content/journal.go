package content

import (
	"strconv"
	"strings"
	"time"
)

// DefaultDateFormat is the editor's default journal title format.
const DefaultDateFormat = "MMM do, yyyy"

// journalTokens are the date-fns style tokens understood by JournalTitle,
// longest first so "MMMM" wins over "MMM".
var journalTokens = []string{
	"EEEE", "yyyy", "MMMM",
	"EEE", "MMM",
	"yy", "MM", "do", "dd", "EE",
	"M", "d", "E",
}

// JournalTitle renders the journal page name for t using a date-fns style
// format string (the editor's user preference). Text in single quotes is
// copied literally; unknown letters pass through unchanged.
func JournalTitle(t time.Time, format string) string {
	if strings.TrimSpace(format) == "" {
		format = DefaultDateFormat
	}
	var b strings.Builder
	for i := 0; i < len(format); {
		if format[i] == '\'' {
			end := strings.IndexByte(format[i+1:], '\'')
			if end < 0 {
				b.WriteString(format[i+1:])
				break
			}
			b.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		}
		tok := matchToken(format[i:])
		if tok == "" {
			b.WriteByte(format[i])
			i++
			continue
		}
		b.WriteString(renderToken(t, tok))
		i += len(tok)
	}
	return b.String()
}

func matchToken(s string) string {
	for _, tok := range journalTokens {
		if strings.HasPrefix(s, tok) {
			return tok
		}
	}
	return ""
}

func renderToken(t time.Time, tok string) string {
	switch tok {
	case "yyyy":
		return strconv.Itoa(t.Year())
	case "yy":
		return t.Format("06")
	case "MMMM":
		return t.Month().String()
	case "MMM":
		return t.Format("Jan")
	case "MM":
		return t.Format("01")
	case "M":
		return strconv.Itoa(int(t.Month()))
	case "do":
		return ordinal(t.Day())
	case "dd":
		return t.Format("02")
	case "d":
		return strconv.Itoa(t.Day())
	case "EEEE":
		return t.Weekday().String()
	case "EEE", "EE", "E":
		return t.Format("Mon")
	}
	return tok
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
