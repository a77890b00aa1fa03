// Package reconcile collapses parent/child and reference duplicates in a flat
// task list so only the most specific items surface.
package reconcile

import (
	"github.com/dotcommander/nowpanel/internal/content"
	"github.com/dotcommander/nowpanel/internal/models"
)

// Tasker is satisfied by a pointer to any task variant.
type Tasker[T any] interface {
	*T
	Base() *models.Task
}

// Result describes the relationships found in one list.
type Result struct {
	// Hidden holds ids suppressed because a more specific task represents them.
	Hidden models.IDSet
	// ParentOf maps a surviving child id to its effective parent id.
	ParentOf map[string]string
}

// Analyze finds parents-to-hide and child→parent links without modifying
// the input. A task is hidden when
//
//	(a) another task in the list names it as its tree parent,
//	(b) its text references another task in the list, or
//	(c) another task's parent text is nothing but a reference to it and that
//	    task's real parent is not in the list.
//
// Rule (c) is a heuristic for checklists made of bare block references; it
// can misfire on a parent that happens to contain a single unrelated
// reference. The first relationship recorded for a child wins.
func Analyze(tasks []*models.Task) Result {
	ids := make(models.IDSet, len(tasks))
	for _, t := range tasks {
		ids.Add(t.ID)
	}

	res := Result{Hidden: models.IDSet{}, ParentOf: map[string]string{}}
	link := func(child, parent string) {
		if _, ok := res.ParentOf[child]; !ok {
			res.ParentOf[child] = parent
		}
	}

	for _, t := range tasks {
		if t.ParentID != "" && t.ParentID != t.ID && ids.Has(t.ParentID) {
			res.Hidden.Add(t.ParentID)
			link(t.ID, t.ParentID)
		}

		for _, ref := range content.ExtractReferences(t.RawText) {
			if ref == t.ID || !ids.Has(ref) {
				continue
			}
			res.Hidden.Add(t.ID)
			link(ref, t.ID)
		}

		if ref, ok := content.OnlyReference(t.ParentText); ok &&
			ref != t.ID && ids.Has(ref) && !ids.Has(t.ParentID) {
			res.Hidden.Add(ref)
			link(t.ID, ref)
		}
	}
	return res
}

// Reconcile returns the tasks that are not parents-to-hide, in input order,
// each carrying its effective parent's display text as InheritedContext.
func Reconcile[T any, P Tasker[T]](items []T) []T {
	if len(items) == 0 {
		return items
	}
	bases := make([]*models.Task, len(items))
	byID := make(map[string]*models.Task, len(items))
	for i := range items {
		b := P(&items[i]).Base()
		bases[i] = b
		if _, dup := byID[b.ID]; !dup {
			byID[b.ID] = b
		}
	}

	res := Analyze(bases)

	out := make([]T, 0, len(items))
	for i, b := range bases {
		if res.Hidden.Has(b.ID) {
			continue
		}
		item := items[i]
		base := P(&item).Base()
		base.InheritedContext = ""
		if parentID, ok := res.ParentOf[b.ID]; ok {
			if parent, ok := byID[parentID]; ok {
				base.InheritedContext = content.DisplayText(parent.RawText)
			}
		}
		out = append(out, item)
	}
	return out
}
