package commands

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/nowpanel/internal/models"
)

func TestBoardRender_PlainText(t *testing.T) {
	snap := &models.Snapshot{
		Now: []models.NowTask{{
			Task:      models.Task{ID: "r", RawText: "NOW [#A] Write report", ParentText: "Ship v2"},
			ElapsedMS: (65 * time.Minute).Milliseconds(),
		}},
		Waiting: []models.WaitingTask{{
			Task:          models.Task{ID: "v", RawText: "WAITING Vendor reply"},
			ScheduleLabel: "in 2d",
		}},
		Today: models.TodayGroups{
			Now: []models.TodayTask{{Task: models.Task{ID: "r", RawText: "NOW [#A] Write report"}, IsReferenced: true}},
		},
		Snoozed: models.SnoozedGroups{
			Resurfaced: []models.SnoozedTask{{Task: models.Task{ID: "x", RawText: "TODO Renew domain"}, Label: "Resurfaced 1h ago"}},
		},
		UnreadCount: 1,
		Loading:     models.Loading{Waiting: true},
	}

	var buf bytes.Buffer
	b := board{w: &buf}
	require.NoError(t, b.render(snap))
	out := buf.String()

	assert.Contains(t, out, "NOW (1)\n")
	assert.Contains(t, out, "[#A] Write report  < Ship v2  1h05m  r\n")
	assert.Contains(t, out, "WAITING (loading)\n")
	assert.Contains(t, out, "TODAY (1)\n now\n")
	assert.Contains(t, out, "  ref  r\n")
	assert.Contains(t, out, "SNOOZED (1)\n 1 unread\n")
	assert.Contains(t, out, "Renew domain  Resurfaced 1h ago  x\n")
	assert.NotContains(t, out, "\x1b[")
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "", formatElapsed(0))
	assert.Equal(t, "<1m", formatElapsed(10*time.Second))
	assert.Equal(t, "12m", formatElapsed(12*time.Minute))
	assert.Equal(t, "1h05m", formatElapsed(65*time.Minute))
	assert.Equal(t, "2h00m", formatElapsed(2*time.Hour+20*time.Second))
}

func TestJournalDay(t *testing.T) {
	now := time.Date(2024, 1, 19, 15, 30, 0, 0, time.UTC)

	d, err := journalDay("", now)
	require.NoError(t, err)
	assert.Equal(t, now, d)

	d, err = journalDay("2024-02-01", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), d)

	_, err = journalDay("01/02/2024", now)
	var inv *models.InvalidInputError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "date", inv.Field)
}
