package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/dotcommander/nowpanel/internal/content"
	"github.com/dotcommander/nowpanel/internal/models"
	"github.com/dotcommander/nowpanel/internal/snooze"
	"github.com/dotcommander/nowpanel/internal/visibility"
)

// Category names one independently-failing query of the slow cycle.
type Category string

// Slow-cycle categories.
const (
	CategoryNow     Category = "now"
	CategoryWaiting Category = "waiting"
	CategoryDone    Category = "done"
	CategorySnoozed Category = "snoozed"
	CategoryActive  Category = "active"
	CategoryToday   Category = "today"
)

var activeMarkers = []string{
	string(models.StatusNow),
	string(models.StatusTodo),
	string(models.StatusLater),
	string(models.StatusWaiting),
}

// parentOf resolves b's parent id and text. A missing parent, a page-level
// block or a failed lookup all read as "no parent".
func (a *Aggregator) parentOf(ctx context.Context, b *models.Block) (string, string) {
	p, err := a.lookup.Parent(ctx, b)
	if err != nil {
		a.logger.Debug("parent lookup failed", "block_id", b.ID, "parent_id", b.ParentID(), "error", err)
		return "", ""
	}
	if p == nil {
		return "", ""
	}
	return p.ID, p.Text
}

func (a *Aggregator) baseTask(ctx context.Context, b *models.Block) models.Task {
	pid, ptext := a.parentOf(ctx, b)
	return models.Task{
		ID:         b.ID,
		RawText:    b.Text,
		PageID:     b.PageID(),
		ParentID:   pid,
		ParentText: ptext,
	}
}

func (a *Aggregator) query(ctx context.Context, q models.TaskQuery) ([]models.Block, error) {
	rows, err := a.host.QueryTasks(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	return rows, nil
}

func (a *Aggregator) collectNow(ctx context.Context, now time.Time) ([]models.NowTask, error) {
	rows, err := a.query(ctx, models.TaskQuery{Markers: []string{string(models.StatusNow)}})
	if err != nil {
		return nil, err
	}
	out := make([]models.NowTask, 0, len(rows))
	for i := range rows {
		b := &rows[i]
		out = append(out, models.NowTask{
			Task:      a.baseTask(ctx, b),
			ElapsedMS: content.ElapsedSince(b.Text, now).Milliseconds(),
		})
	}
	return out, nil
}

func (a *Aggregator) collectWaiting(ctx context.Context, now time.Time) ([]models.WaitingTask, error) {
	rows, err := a.query(ctx, models.TaskQuery{Markers: []string{string(models.StatusWaiting)}})
	if err != nil {
		return nil, err
	}
	out := make([]models.WaitingTask, 0, len(rows))
	for i := range rows {
		b := &rows[i]
		w := models.WaitingTask{
			Task:        a.baseTask(ctx, b),
			ScheduledAt: content.ExtractScheduled(b.Text, now.Location()),
		}
		if w.ScheduledAt != nil {
			w.ScheduleLabel = snooze.RelativeLabel(*w.ScheduledAt, now)
		}
		out = append(out, w)
	}
	return out, nil
}

func (a *Aggregator) collectDone(ctx context.Context) ([]models.DoneTask, error) {
	rows, err := a.query(ctx, models.TaskQuery{Markers: []string{models.MarkerDone}})
	if err != nil {
		return nil, err
	}
	out := make([]models.DoneTask, 0, len(rows))
	for i := range rows {
		out = append(out, models.DoneTask{ID: rows[i].ID, ParentID: rows[i].ParentID()})
	}
	return out, nil
}

func (a *Aggregator) collectActive(ctx context.Context) (models.IDSet, error) {
	rows, err := a.query(ctx, models.TaskQuery{Markers: activeMarkers})
	if err != nil {
		return nil, err
	}
	ids := make(models.IDSet, len(rows))
	for i := range rows {
		ids.Add(rows[i].ID)
	}
	return ids, nil
}

// snoozedScan is the raw outcome of the snoozed query before it touches
// the pending-completion map.
type snoozedScan struct {
	tasks []models.SnoozedTask
	// doneCandidates maps ids of snoozed blocks that no longer carry an
	// active marker to their raw text.
	doneCandidates map[string]string
	// active holds ids of snoozed blocks that carry an active marker.
	active models.IDSet
}

func (a *Aggregator) collectSnoozed(ctx context.Context, now time.Time) (snoozedScan, error) {
	rows, err := a.query(ctx, models.TaskQuery{Annotation: models.AnnotationSnoozedUntil})
	if err != nil {
		return snoozedScan{}, err
	}
	scan := snoozedScan{doneCandidates: map[string]string{}, active: models.IDSet{}}
	for i := range rows {
		b := &rows[i]
		info, ok := snooze.ReadInfo(b.Annotations)
		if !ok {
			continue
		}
		if _, active := content.ClassifyStatus(b.Text); !active {
			scan.doneCandidates[b.ID] = b.Text
			continue
		}
		scan.active.Add(b.ID)
		scan.tasks = append(scan.tasks, models.SnoozedTask{
			Task:         a.baseTask(ctx, b),
			SnoozeUntil:  info.Until,
			SnoozedAt:    info.CreatedAt,
			IsResurfaced: info.IsResurfaced(now),
			Label:        info.Label(now),
		})
	}
	return scan, nil
}

// collectToday walks today's journal page. Tasks referenced from the
// journal are expanded with their descendants; a reference that cannot be
// loaded is skipped. A task reachable twice is kept at its first position.
func (a *Aggregator) collectToday(ctx context.Context, now time.Time) ([]models.TodayTask, error) {
	page := content.JournalTitle(now, a.host.DateFormat())
	tree, err := a.host.GetPageBlockTree(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to load journal page %q: %w", page, err)
	}

	seen := models.IDSet{}
	expanded := models.IDSet{}
	var out []models.TodayTask

	add := func(n visibility.Node, referenced bool) {
		if seen.Has(n.Block.ID) {
			return
		}
		seen.Add(n.Block.ID)
		status, ok := content.ClassifyStatus(n.Block.Text)
		if !ok {
			return
		}
		out = append(out, models.TodayTask{
			Task: models.Task{
				ID:         n.Block.ID,
				RawText:    n.Block.Text,
				PageID:     n.Block.PageID(),
				ParentID:   n.ParentID,
				ParentText: n.ParentText,
			},
			Status:       status,
			IsReferenced: referenced,
			CreatedOrder: n.Block.Order,
		})
	}

	for _, n := range visibility.Flatten(tree, "", "") {
		add(n, false)
		for _, ref := range content.ExtractReferences(n.Block.Text) {
			if expanded.Has(ref) {
				continue
			}
			expanded.Add(ref)

			b, err := a.host.GetBlock(ctx, ref, true)
			if err != nil {
				a.logger.Debug("journal reference lookup failed", "ref", ref, "error", err)
				continue
			}
			if b == nil {
				continue
			}
			pid, ptext := a.parentOf(ctx, b)
			for _, rn := range visibility.Flatten([]models.Block{*b}, pid, ptext) {
				add(rn, true)
			}
		}
	}
	return out, nil
}
