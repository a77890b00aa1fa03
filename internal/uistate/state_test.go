package uistate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/nowpanel/internal/models"
)

func TestLoad_MissingFileIsZeroState(t *testing.T) {
	st, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, State{}, st)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ui-state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("route: [unclosed"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ui-state.yaml")
	want := State{
		Route:        models.Route{Kind: models.RoutePage, Page: "Projects"},
		EditingBlock: "b1",
		SidePanel: []models.SidePanelItem{
			{Kind: models.SidePanelPage, ID: "Inbox"},
			{Kind: models.SidePanelBlock, ID: "b9"},
		},
		DateFormat: "yyyy-MM-dd",
	}
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ui-state.yaml")
	_, err := Update(path, func(s *State) { s.EditingBlock = "b1" })
	require.NoError(t, err)
	st, err := Update(path, func(s *State) { s.Route = models.Route{Kind: models.RouteJournal} })
	require.NoError(t, err)
	assert.Equal(t, "b1", st.EditingBlock)
	assert.Equal(t, models.RouteJournal, st.Route.Kind)
}

func TestSource_ReadsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ui-state.yaml")
	src := NewSource(path, "MMM do, yyyy", nil)
	ctx := context.Background()

	b, err := src.GetCurrentEditingBlock(ctx)
	require.NoError(t, err)
	assert.Nil(t, b)
	assert.Equal(t, "MMM do, yyyy", src.DateFormat())

	require.NoError(t, Save(path, State{
		Route:        models.Route{Kind: models.RoutePage, Page: "Work"},
		EditingBlock: "b2",
		SidePanel:    []models.SidePanelItem{{Kind: models.SidePanelBlock, ID: "b3"}},
		DateFormat:   "yyyy-MM-dd",
	}))

	b, err = src.GetCurrentEditingBlock(ctx)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "b2", b.ID)

	route, err := src.CurrentRoute(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Work", route.Page)

	items, err := src.GetOpenSidePanelItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, "yyyy-MM-dd", src.DateFormat())
}

func TestSource_CanceledContext(t *testing.T) {
	src := NewSource(filepath.Join(t.TempDir(), "ui-state.yaml"), "", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.CurrentRoute(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSource_NavigationListeners(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ui-state.yaml")
	require.NoError(t, Save(path, State{Route: models.Route{Kind: models.RouteJournal}}))

	src := NewSource(path, "", nil)
	fired := make(chan struct{}, 8)
	unsubscribe := src.OnNavigationChanged(func() { fired <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, src.Start(ctx))
	defer func() {
		src.Close()
		src.Wait()
	}()

	// Editing-block changes alone are not navigation.
	_, err := Update(path, func(s *State) { s.EditingBlock = "b1" })
	require.NoError(t, err)
	select {
	case <-fired:
		t.Fatal("listener fired for an editing-block change")
	case <-time.After(3 * DebounceInterval):
	}

	_, err = Update(path, func(s *State) { s.Route = models.Route{Kind: models.RoutePage, Page: "Work"} })
	require.NoError(t, err)
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not fire on route change")
	}

	unsubscribe()
	_, err = Update(path, func(s *State) { s.Route = models.Route{Kind: models.RoutePage, Page: "Home"} })
	require.NoError(t, err)
	select {
	case <-fired:
		t.Fatal("listener fired after unsubscribe")
	case <-time.After(3 * DebounceInterval):
	}
}
