package engine

import (
	"context"
	"errors"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/dotcommander/nowpanel/internal/classify"
	"github.com/dotcommander/nowpanel/internal/content"
	"github.com/dotcommander/nowpanel/internal/models"
	"github.com/dotcommander/nowpanel/internal/notify"
	"github.com/dotcommander/nowpanel/internal/reconcile"
)

// outcome is one category's result. A panic inside the category is
// converted to err so it cannot take down its siblings.
type outcome[T any] struct {
	val T
	err error
}

func capture[T any](fn func() (T, error)) outcome[T] {
	var (
		o       outcome[T]
		catcher panics.Catcher
	)
	catcher.Try(func() { o.val, o.err = fn() })
	if r := catcher.Recovered(); r != nil {
		o.err = r.AsError()
	}
	return o
}

type cycleResults struct {
	now     outcome[[]models.NowTask]
	waiting outcome[[]models.WaitingTask]
	done    outcome[[]models.DoneTask]
	snoozed outcome[snoozedScan]
	active  outcome[models.IDSet]
	today   outcome[[]models.TodayTask]
}

// CycleReport summarizes one slow cycle for the CLI and tests.
type CycleReport struct {
	Version  uint64
	Failed   map[Category]error
	Swept    []string
	Notified []string
}

// Err joins the category failures, or nil.
func (r CycleReport) Err() error {
	errs := make([]error, 0, len(r.Failed))
	for _, err := range r.Failed {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// RunCycle is the slow-loop body. Category failures are logged and leave
// that category's previous lists in place; they never abort the cycle.
func (a *Aggregator) RunCycle(ctx context.Context) error {
	_, err := a.Cycle(ctx)
	return err
}

// Cycle runs one aggregation cycle and reports what happened. The returned
// error is only non-nil when ctx ended before publishing.
func (a *Aggregator) Cycle(ctx context.Context) (CycleReport, error) {
	now := a.now()
	a.lookup.Purge()

	var (
		res cycleResults
		wg  conc.WaitGroup
	)
	wg.Go(func() {
		res.now = capture(func() ([]models.NowTask, error) { return a.collectNow(ctx, now) })
	})
	wg.Go(func() {
		res.waiting = capture(func() ([]models.WaitingTask, error) { return a.collectWaiting(ctx, now) })
	})
	wg.Go(func() {
		res.done = capture(func() ([]models.DoneTask, error) { return a.collectDone(ctx) })
	})
	wg.Go(func() {
		res.snoozed = capture(func() (snoozedScan, error) { return a.collectSnoozed(ctx, now) })
	})
	wg.Go(func() {
		res.active = capture(func() (models.IDSet, error) { return a.collectActive(ctx) })
	})
	wg.Go(func() {
		res.today = capture(func() ([]models.TodayTask, error) { return a.collectToday(ctx, now) })
	})
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return CycleReport{}, err
	}

	report := CycleReport{Failed: map[Category]error{}}
	fail := func(c Category, err error) {
		report.Failed[c] = err
		a.logger.Warn("category failed, keeping last result", "category", string(c), "error", err)
	}

	var (
		nowList []models.NowTask
		waiting []models.WaitingTask
		today   models.TodayGroups
		snoozed models.SnoozedGroups
	)
	haveNow := res.now.err == nil
	haveWait := res.waiting.err == nil
	haveTdy := res.today.err == nil
	haveSnz := res.snoozed.err == nil

	if haveNow {
		nowList = reconcile.Reconcile(res.now.val)
		classify.SortNow(nowList)
	} else {
		fail(CategoryNow, res.now.err)
	}

	if haveWait {
		waiting = reconcile.Reconcile(res.waiting.val)
		classify.SortWaiting(waiting)
	} else {
		fail(CategoryWaiting, res.waiting.err)
	}

	if haveTdy {
		today = buildToday(res.today.val)
	} else {
		fail(CategoryToday, res.today.err)
	}

	if haveSnz {
		snoozed = classify.SortSnoozed(reconcile.Reconcile(res.snoozed.val.tasks))
		a.trackCompletions(res.snoozed.val, now)
	} else {
		fail(CategorySnoozed, res.snoozed.err)
	}
	if res.done.err != nil {
		fail(CategoryDone, res.done.err)
	}
	if res.active.err != nil {
		fail(CategoryActive, res.active.err)
	}

	report.Swept = a.sweep(ctx, now)

	var resurfaced []models.SnoozedTask
	if haveSnz {
		resurfaced = snoozed.Resurfaced
	} else {
		resurfaced = a.Snapshot().Snoozed.Resurfaced
	}
	report.Notified = a.notifyResurfaced(ctx, resurfaced)

	activeIDs := res.active.val
	if res.active.err != nil {
		activeIDs = a.Snapshot().ActiveTaskIDs
	}
	seeds := activeIDs.Sorted()
	for _, t := range resurfaced {
		if !activeIDs.Has(t.ID) {
			seeds = append(seeds, t.ID)
		}
	}
	ancestors := a.resolver.AncestorClosure(ctx, seeds)

	if err := ctx.Err(); err != nil {
		return report, err
	}

	a.publish(func(s *models.Snapshot) bool {
		if haveNow {
			s.Now = nowList
			s.Loading.Now = false
		}
		if haveWait {
			s.Waiting = waiting
			s.Loading.Waiting = false
		}
		if haveTdy {
			s.Today = today
			s.Loading.Today = false
		}
		if haveSnz {
			s.Snoozed = snoozed
			s.Loading.Snoozed = false
		}
		if res.done.err == nil {
			s.Done = res.done.val
		}
		if res.active.err == nil {
			s.ActiveTaskIDs = res.active.val
		}
		s.PendingCompletionIDs = models.NewIDSet(mapKeys(a.pending)...)
		s.AncestorsOfActive = ancestors
		s.UnreadCount = a.unreadLocked(s.Snoozed.Resurfaced)
		return true
	}, report.Notified)

	report.Version = a.Snapshot().Version
	return report, nil
}

// buildToday buckets today's tasks, then sorts and reconciles each bucket
// on its own.
func buildToday(tasks []models.TodayTask) models.TodayGroups {
	g := classify.BucketToday(tasks)
	classify.SortTodayByPriority(g.Now)
	classify.SortTodoLater(g.TodoLater)
	classify.SortTodayByPriority(g.Waiting)
	g.Now = reconcile.Reconcile(g.Now)
	g.TodoLater = reconcile.Reconcile(g.TodoLater)
	g.Waiting = reconcile.Reconcile(g.Waiting)
	return g
}

// trackCompletions records snoozed blocks that lost their active marker and
// forgets tracked blocks that regained one. An existing entry keeps its
// original timestamp.
func (a *Aggregator) trackCompletions(scan snoozedScan, now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, text := range scan.doneCandidates {
		if _, tracked := a.pending[id]; tracked {
			continue
		}
		a.pending[id] = models.PendingCompletion{RawText: text, MarkedDoneAt: now}
		a.logger.Debug("snoozed task completed, cleanup pending", "block_id", id)
	}
	for id := range scan.active {
		if _, tracked := a.pending[id]; tracked {
			delete(a.pending, id)
			a.logger.Debug("snoozed task reopened, cleanup canceled", "block_id", id)
		}
	}
}

// sweep strips the snooze annotations of every pending completion older
// than the grace period and forgets it. Entries whose removal fails are
// retried next cycle unless the block is gone.
func (a *Aggregator) sweep(ctx context.Context, now time.Time) []string {
	a.mu.Lock()
	var due []string
	for id, p := range a.pending {
		if now.Sub(p.MarkedDoneAt) >= a.grace {
			due = append(due, id)
		}
	}
	a.mu.Unlock()

	var swept []string
	for _, id := range due {
		err := a.host.RemoveAnnotation(ctx, id, models.AnnotationSnoozedUntil)
		if err == nil {
			err = a.host.RemoveAnnotation(ctx, id, models.AnnotationSnoozedAt)
		}
		var missing *models.BlockNotFoundError
		if err != nil && !errors.As(err, &missing) {
			a.logger.Warn("snooze cleanup failed, will retry", "block_id", id, "error", err)
			continue
		}
		a.mu.Lock()
		delete(a.pending, id)
		a.mu.Unlock()
		swept = append(swept, id)
	}
	return swept
}

// notifyResurfaced notifies each resurfaced task at most once per
// Aggregator lifetime. The notified set is never pruned, so a task that is
// snoozed again and resurfaces a second time stays silent.
func (a *Aggregator) notifyResurfaced(ctx context.Context, resurfaced []models.SnoozedTask) []string {
	a.mu.Lock()
	var fresh []models.SnoozedTask
	for _, t := range resurfaced {
		if a.notified.Has(t.ID) {
			continue
		}
		a.notified.Add(t.ID)
		fresh = append(fresh, t)
	}
	a.mu.Unlock()

	ids := make([]string, 0, len(fresh))
	for _, t := range fresh {
		ids = append(ids, t.ID)
		n := notify.Notification{
			TaskID: t.ID,
			Title:  "Task resurfaced",
			Body:   content.Preview(content.DisplayText(t.RawText), a.previewLen),
		}
		if err := a.notifier.Notify(ctx, n); err != nil {
			a.logger.Warn("resurface notification failed", "block_id", t.ID, "error", err)
		}
	}
	return ids
}

func mapKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
