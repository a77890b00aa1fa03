package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/nowpanel/internal/models"
)

func TestEnsurePage_CaseInsensitiveReuse(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	id1, err := EnsurePage(ctx, db, "Projects")
	require.NoError(t, err)
	id2, err := EnsurePage(ctx, db, "projects")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 36)

	_, err = EnsurePage(ctx, db, "  ")
	require.Error(t, err)
}

func TestCreateBlock_TreeAndParents(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	pageID, err := EnsurePage(ctx, db, "Work")
	require.NoError(t, err)

	root, err := CreateBlock(ctx, db, NewBlock{PageID: pageID, Content: "TODO [#A] Plan launch"})
	require.NoError(t, err)
	child, err := CreateBlock(ctx, db, NewBlock{ParentID: root.ID, Content: "TODO book venue"})
	require.NoError(t, err)
	grandchild, err := CreateBlock(ctx, db, NewBlock{ParentID: child.ID, Content: "call them"})
	require.NoError(t, err)
	sibling, err := CreateBlock(ctx, db, NewBlock{PageID: pageID, Content: "notes"})
	require.NoError(t, err)

	assert.Equal(t, pageID, root.PageID())
	assert.Equal(t, "", root.ParentID(), "top-level parent pointer names the page")
	assert.Equal(t, pageID, root.ParentRef.ID)
	assert.Equal(t, root.ID, child.ParentID())
	assert.Equal(t, pageID, child.PageID())
	assert.Less(t, root.Order, child.Order)

	tree, err := GetPageTree(ctx, db, "work")
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, root.ID, tree[0].ID)
	assert.Equal(t, sibling.ID, tree[1].ID)
	require.Len(t, tree[0].Children, 1)
	require.Len(t, tree[0].Children[0].Children, 1)
	assert.Equal(t, grandchild.ID, tree[0].Children[0].Children[0].ID)

	withKids, err := GetBlock(ctx, db, root.ID, true)
	require.NoError(t, err)
	require.Len(t, withKids.Children, 1)
	assert.Equal(t, grandchild.ID, withKids.Children[0].Children[0].ID)

	_, err = GetBlock(ctx, db, "missing", false)
	require.ErrorIs(t, err, ErrBlockNotFound)
	_, err = GetPageTree(ctx, db, "nope")
	require.ErrorIs(t, err, ErrPageNotFound)
	_, err = CreateBlock(ctx, db, NewBlock{ParentID: "missing", Content: "x"})
	require.ErrorIs(t, err, ErrBlockNotFound)
}

func TestQueryBlocks_MarkersAndAnnotations(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	pageID, err := EnsurePage(ctx, db, "Inbox")
	require.NoError(t, err)

	now, err := CreateBlock(ctx, db, NewBlock{PageID: pageID, Content: "NOW write"})
	require.NoError(t, err)
	_, err = CreateBlock(ctx, db, NewBlock{PageID: pageID, Content: "todo lower"})
	require.NoError(t, err)
	done, err := CreateBlock(ctx, db, NewBlock{PageID: pageID, Content: "DONE shipped", Properties: map[string]any{
		models.AnnotationSnoozedUntil: "2024-01-19T12:00:00Z",
	}})
	require.NoError(t, err)
	_, err = CreateBlock(ctx, db, NewBlock{PageID: pageID, Content: "plain"})
	require.NoError(t, err)

	got, err := QueryBlocks(ctx, db, models.TaskQuery{Markers: []string{"now", "TODO"}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, now.ID, got[0].ID)

	snoozed, err := QueryBlocks(ctx, db, models.TaskQuery{Annotation: models.AnnotationSnoozedUntil})
	require.NoError(t, err)
	require.Len(t, snoozed, 1)
	assert.Equal(t, done.ID, snoozed[0].ID)
	v, ok := snoozed[0].Annotations.SnoozedUntil()
	require.True(t, ok)
	assert.Equal(t, "2024-01-19T12:00:00Z", v)

	_, err = QueryBlocks(ctx, db, models.TaskQuery{})
	require.Error(t, err)
}

func TestUpdateBlockContent_RederivesMarker(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	pageID, err := EnsurePage(ctx, db, "Inbox")
	require.NoError(t, err)
	b, err := CreateBlock(ctx, db, NewBlock{PageID: pageID, Content: "NOW write"})
	require.NoError(t, err)

	require.NoError(t, UpdateBlockContent(ctx, db, b.ID, "DONE write"))

	active, err := QueryBlocks(ctx, db, models.TaskQuery{Markers: []string{"NOW"}})
	require.NoError(t, err)
	assert.Empty(t, active)
	done, err := QueryBlocks(ctx, db, models.TaskQuery{Markers: []string{"DONE"}})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "DONE write", done[0].Text)

	require.ErrorIs(t, UpdateBlockContent(ctx, db, "missing", "x"), ErrBlockNotFound)
}

func TestSetAndRemoveProperty(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	pageID, err := EnsurePage(ctx, db, "Inbox")
	require.NoError(t, err)
	b, err := CreateBlock(ctx, db, NewBlock{PageID: pageID, Content: "TODO x"})
	require.NoError(t, err)

	require.NoError(t, SetProperty(ctx, db, b.ID, models.AnnotationEstimatedTime, 45))
	require.NoError(t, SetProperty(ctx, db, b.ID, models.AnnotationSnoozedAt, "2024-01-19T10:00:00Z"))
	require.NoError(t, SetProperty(ctx, db, b.ID, "pinned", true))

	got, err := GetBlock(ctx, db, b.ID, false)
	require.NoError(t, err)
	mins, ok := got.Annotations.EstimatedMinutes()
	require.True(t, ok)
	assert.Equal(t, 45, mins)
	assert.Equal(t, true, got.Annotations["pinned"])
	assert.True(t, got.Annotations.Has(models.AnnotationSnoozedAt))

	require.NoError(t, RemoveProperty(ctx, db, b.ID, models.AnnotationSnoozedAt))
	require.NoError(t, RemoveProperty(ctx, db, b.ID, models.AnnotationSnoozedAt))

	got, err = GetBlock(ctx, db, b.ID, false)
	require.NoError(t, err)
	assert.False(t, got.Annotations.Has(models.AnnotationSnoozedAt))

	require.ErrorIs(t, SetProperty(ctx, db, "missing", "k", "v"), ErrBlockNotFound)
}

func TestListPages_JournalsLast(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := EnsureJournalPage(ctx, db, "Jan 19th, 2024", time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	pageID, err := EnsurePage(ctx, db, "Alpha")
	require.NoError(t, err)
	_, err = CreateBlock(ctx, db, NewBlock{PageID: pageID, Content: "x"})
	require.NoError(t, err)

	pages, err := ListPages(ctx, db)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "Alpha", pages[0].Name)
	assert.Equal(t, 1, pages[0].Blocks)
	assert.Equal(t, 20240119, pages[1].JournalDay)
}
