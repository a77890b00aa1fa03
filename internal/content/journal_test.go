package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJournalTitle(t *testing.T) {
	day := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, "Oct 17th, 2026", JournalTitle(day, ""))
	assert.Equal(t, "2026-10-17", JournalTitle(day, "yyyy-MM-dd"))
	assert.Equal(t, "Saturday, October 17th 2026", JournalTitle(day, "EEEE, MMMM do yyyy"))
	assert.Equal(t, "17/10/26", JournalTitle(day, "dd/MM/yy"))
	assert.Equal(t, "day 17 of 10", JournalTitle(day, "'day' d 'of' M"))
}

func TestOrdinal(t *testing.T) {
	assert.Equal(t, "1st", ordinal(1))
	assert.Equal(t, "2nd", ordinal(2))
	assert.Equal(t, "3rd", ordinal(3))
	assert.Equal(t, "11th", ordinal(11))
	assert.Equal(t, "12th", ordinal(12))
	assert.Equal(t, "22nd", ordinal(22))
}
