package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dotcommander/nowpanel/internal/models"
)

func TestSetPriority(t *testing.T) {
	assert.Equal(t, "TODO [#A] pay rent", SetPriority("TODO pay rent", models.PriorityA))
	assert.Equal(t, "TODO [#C] pay rent", SetPriority("TODO [#A] pay rent", models.PriorityC))
	assert.Equal(t, "[#B] loose note", SetPriority("loose note", models.PriorityB))
	assert.Equal(t, "NOW [#A]", SetPriority("NOW", models.PriorityA))
}

func TestRemovePriority(t *testing.T) {
	assert.Equal(t, "TODO pay rent", RemovePriority("TODO [#A] pay rent"))
	assert.Equal(t, "note", RemovePriority("[#B] note"))
}

func TestMarkDone_ClosesOpenClock(t *testing.T) {
	now := time.Date(2024, 1, 19, 10, 30, 0, 0, time.UTC)
	text := "NOW Write report\n:LOGBOOK:\nCLOCK: [2024-01-19 Fri 10:00:00]\n:END:"

	got := MarkDone(text, now)
	assert.Equal(t, "DONE Write report\n:LOGBOOK:\nCLOCK: [2024-01-19 Fri 10:00:00]--[2024-01-19 Fri 10:30:00] =>  00:30:00\n:END:", got)
	assert.Nil(t, ExtractActiveClockStart(got, time.UTC))
	_, active := ClassifyStatus(got)
	assert.False(t, active)
}

func TestMarkDone_WithoutMarker(t *testing.T) {
	assert.Equal(t, "DONE something", MarkDone("something", time.Now()))
}

func TestMarkDone_ReplacesAliasMarkers(t *testing.T) {
	assert.Equal(t, "DONE Fix outage", MarkDone("DOING Fix outage", time.Now()))
	assert.Equal(t, "DONE Vendor reply", MarkDone("WAIT Vendor reply", time.Now()))
}

func TestParseEstimate(t *testing.T) {
	cases := map[string]int{
		"90":              90,
		"45m":             45,
		"45 min":          45,
		"1h":              60,
		"1h30m":           90,
		"2 hours":         120,
		"1 hr 15 minutes": 75,
	}
	for in, want := range cases {
		got, ok := ParseEstimate(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "0", "soon", "-5", "h"} {
		_, ok := ParseEstimate(bad)
		assert.False(t, ok, bad)
	}
}
