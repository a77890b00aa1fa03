package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/nowpanel/internal/content"
	"github.com/dotcommander/nowpanel/internal/models"
)

func task(id, text string) models.Task { return models.Task{ID: id, RawText: text} }

func TestCompareByPriority(t *testing.T) {
	a, b, c, n := task("a", "TODO [#A] x"), task("b", "TODO [#B] x"), task("c", "TODO [#C] x"), task("n", "TODO x")
	assert.Negative(t, CompareByPriority(&a, &b))
	assert.Negative(t, CompareByPriority(&b, &c))
	assert.Negative(t, CompareByPriority(&c, &n))
	assert.Positive(t, CompareByPriority(&n, &a))
	assert.Zero(t, CompareByPriority(&n, &n))
}

func TestSortNow_ScenarioWriteReport(t *testing.T) {
	now := time.Date(2024, 1, 19, 10, 30, 0, 0, time.UTC)
	reportText := "NOW [#A] Write report\n:LOGBOOK:\nCLOCK: [2024-01-19 Fri 10:00]\n:END:"
	elapsed := content.ElapsedSince(reportText, now)
	require.Equal(t, 30*time.Minute, elapsed)
	assert.Equal(t, "Write report", content.DisplayText(reportText))

	tasks := []models.NowTask{
		{Task: task("b", "NOW [#B] Review PR"), ElapsedMS: (2 * time.Hour).Milliseconds()},
		{Task: task("a", reportText), ElapsedMS: elapsed.Milliseconds()},
	}
	SortNow(tasks)
	assert.Equal(t, "a", tasks[0].ID)
}

func TestSortNow_LongestRunningFirstOnTie(t *testing.T) {
	tasks := []models.NowTask{
		{Task: task("short", "NOW x"), ElapsedMS: 10},
		{Task: task("long", "NOW y"), ElapsedMS: 100},
		{Task: task("none", "NOW z")},
	}
	SortNow(tasks)
	assert.Equal(t, []string{"long", "short", "none"}, []string{tasks[0].ID, tasks[1].ID, tasks[2].ID})
}

func TestSortWaiting_ScheduledBeforeUnscheduled(t *testing.T) {
	text := "WAITING vendor reply\nSCHEDULED: <2026-01-20 Tue 09:00>"
	tasks := []models.WaitingTask{
		{Task: task("u1", "WAITING parts")},
		{Task: task("s", text), ScheduledAt: content.ExtractScheduled(text, time.UTC)},
		{Task: task("u2", "WAITING invoice")},
	}
	SortWaiting(tasks)
	assert.Equal(t, []string{"s", "u1", "u2"}, []string{tasks[0].ID, tasks[1].ID, tasks[2].ID})
}

func TestSortWaiting_PriorityBeatsSchedule(t *testing.T) {
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(48 * time.Hour)
	tasks := []models.WaitingTask{
		{Task: task("early", "WAITING x"), ScheduledAt: &early},
		{Task: task("urgent", "WAITING [#A] y"), ScheduledAt: &late},
	}
	SortWaiting(tasks)
	assert.Equal(t, "urgent", tasks[0].ID)
}

func TestSortTodoLater_CreationOrder(t *testing.T) {
	tasks := []models.TodayTask{
		{Task: task("new", "TODO x"), CreatedOrder: 9},
		{Task: task("unknown", "LATER y")},
		{Task: task("old", "TODO z"), CreatedOrder: 2},
		{Task: task("top", "TODO [#C] w"), CreatedOrder: 50},
	}
	SortTodoLater(tasks)
	assert.Equal(t, []string{"top", "unknown", "old", "new"},
		[]string{tasks[0].ID, tasks[1].ID, tasks[2].ID, tasks[3].ID})
}

func TestBucketToday(t *testing.T) {
	g := BucketToday([]models.TodayTask{
		{Task: task("1", ""), Status: models.StatusNow},
		{Task: task("2", ""), Status: models.StatusTodo},
		{Task: task("3", ""), Status: models.StatusLater},
		{Task: task("4", ""), Status: models.StatusWaiting},
		{Task: task("5", ""), Status: "DONE"},
	})
	assert.Len(t, g.Now, 1)
	assert.Len(t, g.TodoLater, 2)
	assert.Len(t, g.Waiting, 1)
}

func TestSortSnoozed(t *testing.T) {
	base := time.Date(2024, 1, 19, 12, 0, 0, 0, time.UTC)
	g := SortSnoozed([]models.SnoozedTask{
		{Task: task("p-late", ""), SnoozeUntil: base.Add(3 * time.Hour)},
		{Task: task("r-new", ""), SnoozeUntil: base.Add(-time.Minute), IsResurfaced: true},
		{Task: task("p-soon", ""), SnoozeUntil: base.Add(time.Hour)},
		{Task: task("r-old", ""), SnoozeUntil: base.Add(-time.Hour), IsResurfaced: true},
	})
	require.Len(t, g.Resurfaced, 2)
	require.Len(t, g.Pending, 2)
	assert.Equal(t, "r-old", g.Resurfaced[0].ID)
	assert.Equal(t, "p-soon", g.Pending[0].ID)
}
