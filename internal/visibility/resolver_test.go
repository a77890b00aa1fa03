package visibility

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/nowpanel/internal/host"
	"github.com/dotcommander/nowpanel/internal/host/hosttest"
	"github.com/dotcommander/nowpanel/internal/models"
)

var fixedNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func newResolver(f *hosttest.Fake) *Resolver {
	return NewResolver(f, host.NewLookup(f, 256, time.Minute), WithClock(func() time.Time { return fixedNow }))
}

func TestAncestorClosure_Chain(t *testing.T) {
	f := hosttest.New().
		Add("root", "Work", "", "Project", nil).
		Add("p1", "Work", "root", "Phase", nil).
		Add("p2", "Work", "p1", "Step", nil).
		Add("leaf", "Work", "p2", "NOW do it", nil)

	got := newResolver(f).AncestorClosure(context.Background(), []string{"leaf"})

	assert.True(t, got.Has("p1"))
	assert.True(t, got.Has("p2"))
	assert.True(t, got.Has("root"))
	assert.False(t, got.Has("leaf"))
	assert.False(t, got.Has("page:work"), "the page root is not a block")
}

func TestAncestorClosure_SeedReachedAsParent(t *testing.T) {
	f := hosttest.New().
		Add("a", "Work", "", "NOW parent task", nil).
		Add("b", "Work", "a", "NOW child task", nil)

	got := newResolver(f).AncestorClosure(context.Background(), []string{"a", "b"})
	assert.Equal(t, []string{"a"}, got.Sorted())
}

func TestAncestorClosure_StopsOnCycle(t *testing.T) {
	f := hosttest.New().
		Add("c1", "Work", "c2", "one", nil).
		Add("c2", "Work", "c1", "two", nil).
		Add("leaf", "Work", "c1", "NOW x", nil)

	got := newResolver(f).AncestorClosure(context.Background(), []string{"leaf"})
	assert.Equal(t, []string{"c1", "c2"}, got.Sorted())
}

func TestAncestorClosure_DepthBound(t *testing.T) {
	f := hosttest.New()
	parent := ""
	for i := range 80 {
		id := fmt.Sprintf("n%02d", i)
		f.Add(id, "Deep", parent, id, nil)
		parent = id
	}

	got := newResolver(f).AncestorClosure(context.Background(), []string{"n79"})
	assert.Len(t, got, MaxAncestorDepth)
	assert.True(t, got.Has("n78"))
	assert.False(t, got.Has("n28"))
}

func TestAncestorClosure_LookupFailureIsPartial(t *testing.T) {
	f := hosttest.New().
		Add("p", "Work", "", "parent", nil).
		Add("leaf", "Work", "p", "NOW x", nil)
	f.Fail("GetBlock:p", errors.New("boom"))

	got := newResolver(f).AncestorClosure(context.Background(), []string{"leaf", "missing"})
	assert.Equal(t, []string{"p"}, got.Sorted())
}

func TestVisibleIDs_PageAndSidePanel(t *testing.T) {
	f := hosttest.New().
		Add("w1", "Work", "", "one", nil).
		Add("w2", "Work", "w1", "two", nil).
		Add("w3", "Work", "w2", "three", nil).
		Add("i1", "Inbox", "", "inbox", nil).
		Add("x1", "Other", "", "other", nil).
		Add("x2", "Other", "x1", "nested", nil).
		Add("z1", "Hidden", "", "never shown", nil)
	f.SetRoute(models.Route{Kind: models.RoutePage, Page: "Work"})
	f.SetSidePanel(
		models.SidePanelItem{Kind: models.SidePanelPage, ID: "Inbox"},
		models.SidePanelItem{Kind: models.SidePanelBlock, ID: "x1"},
		models.SidePanelItem{Kind: models.SidePanelBlock, ID: "gone"},
	)

	ids, err := newResolver(f).VisibleIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"i1", "w1", "w2", "w3", "x1", "x2"}, ids.Sorted())
}

func TestVisibleIDs_FallsBackToTodaysJournal(t *testing.T) {
	f := hosttest.New().
		Add("j1", "Oct 17th, 2026", "", "TODO today", nil).
		Add("d1", "2026-10-17", "", "TODO custom format", nil)

	ids, err := newResolver(f).VisibleIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"j1"}, ids.Sorted())

	f.SetDateFormat("yyyy-MM-dd")
	ids, err = newResolver(f).VisibleIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, ids.Sorted())
}

func TestVisibleIDs_RouteFailure(t *testing.T) {
	f := hosttest.New()
	f.Fail("CurrentRoute", host.ErrUnavailable)

	_, err := newResolver(f).VisibleIDs(context.Background())
	require.ErrorIs(t, err, host.ErrUnavailable)
}

func TestEditingBlock(t *testing.T) {
	f := hosttest.New()
	r := newResolver(f)
	ctx := context.Background()

	assert.Empty(t, r.EditingBlock(ctx))
	f.SetEditing("b1")
	assert.Equal(t, "b1", r.EditingBlock(ctx))
	f.Fail("GetCurrentEditingBlock", errors.New("boom"))
	assert.Empty(t, r.EditingBlock(ctx))
}

func TestFlatten_DocumentOrderWithParentContext(t *testing.T) {
	roots := []models.Block{
		{ID: "a", Text: "A", Children: []models.Block{
			{ID: "a1", Text: "A1", Children: []models.Block{{ID: "a1x", Text: "A1X"}}},
			{ID: "a2", Text: "A2"},
		}},
		{ID: "b", Text: "B"},
	}

	nodes := Flatten(roots, "page", "")
	var got []string
	for _, n := range nodes {
		got = append(got, n.Block.ID+"<"+n.ParentID)
	}
	assert.Equal(t, []string{"a<page", "a1<a", "a1x<a1", "a2<a", "b<page"}, got)
	assert.Equal(t, "A1", nodes[2].ParentText)
}
