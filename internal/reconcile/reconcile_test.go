package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/nowpanel/internal/models"
)

const (
	idX = "00000000-0000-4000-8000-00000000000x"
	idY = "00000000-0000-4000-8000-00000000000y"
	idZ = "00000000-0000-4000-8000-00000000000z"
	idW = "00000000-0000-4000-8000-00000000000w"
)

func ids[T any, P Tasker[T]](items []T) []string {
	out := make([]string, 0, len(items))
	for i := range items {
		out = append(out, P(&items[i]).Base().ID)
	}
	return out
}

func TestReconcile_TreeContainmentHidesParent(t *testing.T) {
	in := []models.Task{
		{ID: idY, RawText: "TODO [#A] Plan launch"},
		{ID: idX, RawText: "TODO book venue", ParentID: idY, ParentText: "TODO [#A] Plan launch"},
	}

	out := Reconcile(in)

	require.Len(t, out, 1)
	assert.Equal(t, idX, out[0].ID)
	assert.Equal(t, "Plan launch", out[0].InheritedContext)
}

func TestReconcile_ReferencingTaskIsHidden(t *testing.T) {
	in := []models.NowTask{
		{Task: models.Task{ID: idX, RawText: "NOW follow up on ((" + idY + "))"}},
		{Task: models.Task{ID: idY, RawText: "NOW draft contract"}, ElapsedMS: 5},
	}

	out := Reconcile(in)

	require.Len(t, out, 1)
	assert.Equal(t, idY, out[0].ID)
	assert.Equal(t, int64(5), out[0].ElapsedMS)
	assert.Equal(t, "follow up on (("+idY+"))", out[0].InheritedContext)
}

func TestReconcile_BareReferenceParentText(t *testing.T) {
	in := []models.Task{
		{ID: idY, RawText: "TODO review budget"},
		{ID: idX, RawText: "TODO check travel line", ParentID: idZ, ParentText: "((" + idY + "))"},
	}

	out := Reconcile(in)

	require.Len(t, out, 1)
	assert.Equal(t, idX, out[0].ID)
	assert.Equal(t, "review budget", out[0].InheritedContext)
}

func TestReconcile_BareReferenceIgnoredWhenRealParentListed(t *testing.T) {
	in := []models.Task{
		{ID: idY, RawText: "TODO review budget"},
		{ID: idZ, RawText: "TODO ((" + idW + "))"},
		{ID: idX, RawText: "TODO child", ParentID: idZ, ParentText: "((" + idY + "))"},
	}

	out := Reconcile(in)

	assert.ElementsMatch(t, []string{idY, idX}, ids(out))
}

func TestReconcile_FirstParentLinkWins(t *testing.T) {
	in := []models.Task{
		{ID: idY, RawText: "TODO tree parent"},
		{ID: idX, RawText: "TODO leaf", ParentID: idY},
		{ID: idZ, RawText: "TODO mentions ((" + idX + "))"},
	}

	out := Reconcile(in)

	require.Len(t, out, 1)
	assert.Equal(t, idX, out[0].ID)
	assert.Equal(t, "tree parent", out[0].InheritedContext)
}

func TestReconcile_NoRelationsPassThrough(t *testing.T) {
	in := []models.Task{
		{ID: idX, RawText: "TODO a", ParentID: "gone", InheritedContext: "stale"},
		{ID: idY, RawText: "TODO b"},
	}

	out := Reconcile(in)

	assert.Equal(t, []string{idX, idY}, ids(out))
	assert.Empty(t, out[0].InheritedContext)
	assert.Equal(t, "stale", in[0].InheritedContext)
}

func TestReconcile_NoTaskListedWithItsParent(t *testing.T) {
	in := []models.Task{
		{ID: "a", RawText: "TODO root"},
		{ID: "b", RawText: "TODO mid", ParentID: "a"},
		{ID: "c", RawText: "TODO leaf", ParentID: "b"},
		{ID: "d", RawText: "TODO sibling", ParentID: "a"},
		{ID: "e", RawText: "TODO loner"},
		{ID: "f", RawText: "TODO self", ParentID: "f"},
	}
	bases := make([]*models.Task, len(in))
	for i := range in {
		bases[i] = &in[i]
	}
	hidden := Analyze(bases).Hidden

	out := Reconcile(in)

	outIDs := models.NewIDSet(ids(out)...)
	for _, task := range out {
		assert.False(t, hidden.Has(task.ID), task.ID)
		if task.ParentID != "" && task.ParentID != task.ID {
			assert.False(t, outIDs.Has(task.ParentID), task.ID)
		}
	}
	assert.ElementsMatch(t, []string{"c", "d", "e", "f"}, ids(out))
}

func TestReconcile_Empty(t *testing.T) {
	assert.Empty(t, Reconcile[models.Task]([]models.Task(nil)))
}
