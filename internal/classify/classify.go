// Package classify holds the per-view comparators and the TODAY bucketing.
package classify

import (
	"cmp"
	"slices"
	"time"

	"github.com/dotcommander/nowpanel/internal/content"
	"github.com/dotcommander/nowpanel/internal/models"
)

// CompareByPriority orders A < B < C < none.
func CompareByPriority(a, b *models.Task) int {
	return cmp.Compare(
		content.PriorityRank(content.ExtractPriority(a.RawText)),
		content.PriorityRank(content.ExtractPriority(b.RawText)),
	)
}

// CompareNow orders by priority, then longest-running first.
func CompareNow(a, b models.NowTask) int {
	if c := CompareByPriority(&a.Task, &b.Task); c != 0 {
		return c
	}
	return cmp.Compare(b.ElapsedMS, a.ElapsedMS)
}

// CompareWaiting orders by priority, then soonest schedule first. Tasks
// without a schedule sort after scheduled ones and tie with each other.
func CompareWaiting(a, b models.WaitingTask) int {
	if c := CompareByPriority(&a.Task, &b.Task); c != 0 {
		return c
	}
	return compareScheduled(a.ScheduledAt, b.ScheduledAt)
}

func compareScheduled(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}

// CompareTodoLater orders by priority, then oldest creation first.
func CompareTodoLater(a, b models.TodayTask) int {
	if c := CompareByPriority(&a.Task, &b.Task); c != 0 {
		return c
	}
	return cmp.Compare(a.CreatedOrder, b.CreatedOrder)
}

// SortNow sorts in place; ties keep their input order.
func SortNow(tasks []models.NowTask) { slices.SortStableFunc(tasks, CompareNow) }

// SortWaiting sorts in place; ties keep their input order.
func SortWaiting(tasks []models.WaitingTask) { slices.SortStableFunc(tasks, CompareWaiting) }

// SortTodoLater sorts in place; ties keep their input order.
func SortTodoLater(tasks []models.TodayTask) { slices.SortStableFunc(tasks, CompareTodoLater) }

// SortTodayByPriority is used for the NOW and WAITING buckets of TODAY.
func SortTodayByPriority(tasks []models.TodayTask) {
	slices.SortStableFunc(tasks, func(a, b models.TodayTask) int {
		return CompareByPriority(&a.Task, &b.Task)
	})
}

// BucketToday splits today's tasks by status. Tasks with any other status
// are dropped.
func BucketToday(tasks []models.TodayTask) models.TodayGroups {
	g := models.TodayGroups{
		Now:       []models.TodayTask{},
		TodoLater: []models.TodayTask{},
		Waiting:   []models.TodayTask{},
	}
	for _, t := range tasks {
		switch t.Status {
		case models.StatusNow:
			g.Now = append(g.Now, t)
		case models.StatusTodo, models.StatusLater:
			g.TodoLater = append(g.TodoLater, t)
		case models.StatusWaiting:
			g.Waiting = append(g.Waiting, t)
		}
	}
	return g
}

// SortSnoozed splits snoozed tasks into resurfaced (oldest expiry first)
// and pending (soonest due first).
func SortSnoozed(tasks []models.SnoozedTask) models.SnoozedGroups {
	g := models.SnoozedGroups{
		Resurfaced: []models.SnoozedTask{},
		Pending:    []models.SnoozedTask{},
	}
	for _, t := range tasks {
		if t.IsResurfaced {
			g.Resurfaced = append(g.Resurfaced, t)
		} else {
			g.Pending = append(g.Pending, t)
		}
	}
	byUntil := func(a, b models.SnoozedTask) int { return a.SnoozeUntil.Compare(b.SnoozeUntil) }
	slices.SortStableFunc(g.Resurfaced, byUntil)
	slices.SortStableFunc(g.Pending, byUntil)
	return g
}
