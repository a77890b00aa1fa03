package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayText_StripsMarkup(t *testing.T) {
	text := "NOW [#A] Write report\n" +
		"SCHEDULED: <2024-01-20 Sat>\n" +
		"DEADLINE: <2024-01-22 Mon>\n" +
		"estimatedTime:: 30\n" +
		":LOGBOOK:\n" +
		"CLOCK: [2024-01-19 Fri 10:00]\n" +
		":END:"
	assert.Equal(t, "Write report", DisplayText(text))
}

func TestDisplayText_InlineTimestampsAndSpacing(t *testing.T) {
	assert.Equal(t, "call bob about it", DisplayText("TODO   call bob <2024-01-19 Fri> about   it"))
	assert.Equal(t, "now is the time", DisplayText("TODO now is the time"))
}

func TestDisplayText_AliasesAndCase(t *testing.T) {
	assert.Equal(t, "Fix outage", DisplayText("DOING [#A] Fix outage"))
	assert.Equal(t, "Vendor reply", DisplayText("WAIT Vendor reply"))
	assert.Equal(t, "todo buy milk", DisplayText("todo buy milk"))
}

func TestDisplayText_Idempotent(t *testing.T) {
	inputs := []string{
		"NOW [#A] Write report",
		"TODO NOW double marker",
		"[#B] DONE tag first",
		"LATER x [#C]\n\n  second   line ",
		"plain",
		"",
	}
	for _, in := range inputs {
		once := DisplayText(in)
		assert.Equal(t, once, DisplayText(once), in)
	}
}

func TestPreview_Truncates(t *testing.T) {
	assert.Equal(t, "Write report", Preview("NOW Write report\nmore", 40))
	assert.Equal(t, "Write…", Preview("NOW Write report", 6))
}
