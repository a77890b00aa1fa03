// Package hosttest provides an in-memory host.Host for tests.
package hosttest

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/dotcommander/nowpanel/internal/content"
	"github.com/dotcommander/nowpanel/internal/host"
	"github.com/dotcommander/nowpanel/internal/models"
)

// Call records one mutation issued against the fake.
type Call struct {
	Op    string
	ID    string
	Key   string
	Value any
}

// Fake is a concurrency-safe in-memory document plus UI state.
type Fake struct {
	mu        sync.Mutex
	blocks    map[string]*models.Block
	order     []string
	pages     map[string]string
	seq       int64
	route     models.Route
	editing   string
	side      []models.SidePanelItem
	format    string
	listeners map[int]func()
	nextID    int
	calls     []Call
	failures  map[string]error
	getCount  map[string]int
}

var _ host.Host = (*Fake)(nil)

// New returns an empty fake showing today's journal.
func New() *Fake {
	return &Fake{
		blocks:    map[string]*models.Block{},
		pages:     map[string]string{},
		route:     models.Route{Kind: models.RouteJournal},
		listeners: map[int]func(){},
		failures:  map[string]error{},
		getCount:  map[string]int{},
	}
}

func pageID(name string) string { return "page:" + strings.ToLower(name) }

// Add inserts a block on page under parentID ("" = top level).
func (f *Fake) Add(id, page, parentID, text string, ann models.Annotations) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()

	pid := pageID(page)
	f.pages[strings.ToLower(page)] = pid
	parent := pid
	if parentID != "" {
		parent = parentID
	}
	f.seq++
	if ann == nil {
		ann = models.Annotations{}
	}
	f.blocks[id] = &models.Block{
		ID:          id,
		Text:        text,
		PageRef:     &models.Ref{ID: pid},
		ParentRef:   &models.Ref{ID: parent},
		Annotations: maps.Clone(ann),
		Order:       f.seq,
	}
	f.order = append(f.order, id)
	return f
}

// Delete removes a block (children keep their dangling parent pointer).
func (f *Fake) Delete(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blocks, id)
	f.order = slices.DeleteFunc(f.order, func(s string) bool { return s == id })
}

// SetText replaces a block's text without recording a call.
func (f *Fake) SetText(id, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.blocks[id]; ok {
		b.Text = text
	}
}

// Text returns the current text of id.
func (f *Fake) Text(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.blocks[id]; ok {
		return b.Text
	}
	return ""
}

// Annotations returns a copy of id's annotations.
func (f *Fake) Annotations(id string) models.Annotations {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.blocks[id]; ok {
		return maps.Clone(b.Annotations)
	}
	return nil
}

// Fail makes op fail with err. Ops are method names; QueryTasks may be
// narrowed to one selector with "QueryTasks:<MARKER|annotation>".
func (f *Fake) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, op)
		return
	}
	f.failures[op] = err
}

// SetRoute, SetEditing, SetSidePanel and SetDateFormat change the UI state.
func (f *Fake) SetRoute(r models.Route) {
	f.mu.Lock()
	f.route = r
	f.mu.Unlock()
}

func (f *Fake) SetEditing(id string) {
	f.mu.Lock()
	f.editing = id
	f.mu.Unlock()
}

func (f *Fake) SetSidePanel(items ...models.SidePanelItem) {
	f.mu.Lock()
	f.side = items
	f.mu.Unlock()
}

func (f *Fake) SetDateFormat(format string) {
	f.mu.Lock()
	f.format = format
	f.mu.Unlock()
}

// Navigate fires every navigation listener.
func (f *Fake) Navigate() {
	f.mu.Lock()
	fns := slices.Collect(maps.Values(f.listeners))
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Calls returns the recorded mutations in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallsFor counts recorded mutations of op on id.
func (f *Fake) CallsFor(op, id string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Op == op && c.ID == id {
			n++
		}
	}
	return n
}

// GetCount reports how many times GetBlock was called for id.
func (f *Fake) GetCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCount[id]
}

func (f *Fake) failure(op string) error {
	return f.failures[op]
}

func (f *Fake) QueryTasks(ctx context.Context, q models.TaskQuery) ([]models.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("QueryTasks"); err != nil {
		return nil, err
	}
	for _, m := range q.Markers {
		if err := f.failure("QueryTasks:" + strings.ToUpper(m)); err != nil {
			return nil, err
		}
	}
	if q.Annotation != "" {
		if err := f.failure("QueryTasks:" + q.Annotation); err != nil {
			return nil, err
		}
	}

	var out []models.Block
	for _, id := range f.order {
		b := f.blocks[id]
		if len(q.Markers) > 0 {
			marker := content.LeadingMarker(b.Text)
			if !slices.ContainsFunc(q.Markers, func(m string) bool { return strings.EqualFold(m, marker) }) {
				continue
			}
		}
		if q.Annotation != "" && !b.Annotations.Has(q.Annotation) {
			continue
		}
		out = append(out, f.copyBlock(b, false))
	}
	return out, nil
}

func (f *Fake) GetBlock(ctx context.Context, id string, includeChildren bool) (*models.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCount[id]++
	if err := f.failure("GetBlock"); err != nil {
		return nil, err
	}
	if err := f.failure("GetBlock:" + id); err != nil {
		return nil, err
	}
	b, ok := f.blocks[id]
	if !ok {
		return nil, nil
	}
	c := f.copyBlock(b, includeChildren)
	return &c, nil
}

func (f *Fake) GetPageBlockTree(ctx context.Context, page string) ([]models.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("GetPageBlockTree"); err != nil {
		return nil, err
	}
	pid, ok := f.pages[strings.ToLower(page)]
	if !ok {
		return nil, nil
	}
	var out []models.Block
	for _, id := range f.order {
		b := f.blocks[id]
		if b.PageRef.ID == pid && b.ParentRef.ID == pid {
			out = append(out, f.copyBlock(b, true))
		}
	}
	return out, nil
}

// copyBlock must be called with f.mu held.
func (f *Fake) copyBlock(b *models.Block, withChildren bool) models.Block {
	c := *b
	c.Annotations = maps.Clone(b.Annotations)
	c.Children = nil
	if !withChildren {
		return c
	}
	for _, id := range f.order {
		child := f.blocks[id]
		if child.ParentRef.ID == b.ID && child.ID != b.ID {
			c.Children = append(c.Children, f.copyBlock(child, true))
		}
	}
	return c
}

func (f *Fake) mutate(op, id, key string, value any, apply func(b *models.Block)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(op); err != nil {
		return err
	}
	f.calls = append(f.calls, Call{Op: op, ID: id, Key: key, Value: value})
	b, ok := f.blocks[id]
	if !ok {
		return &models.BlockNotFoundError{ID: id}
	}
	apply(b)
	return nil
}

func (f *Fake) UpdateBlockText(_ context.Context, id, text string) error {
	return f.mutate("UpdateBlockText", id, "", text, func(b *models.Block) { b.Text = text })
}

func (f *Fake) SetAnnotation(_ context.Context, id, key string, value any) error {
	return f.mutate("SetAnnotation", id, key, value, func(b *models.Block) { b.Annotations[key] = value })
}

func (f *Fake) RemoveAnnotation(_ context.Context, id, key string) error {
	return f.mutate("RemoveAnnotation", id, key, nil, func(b *models.Block) { delete(b.Annotations, key) })
}

func (f *Fake) GetCurrentEditingBlock(ctx context.Context) (*models.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("GetCurrentEditingBlock"); err != nil {
		return nil, err
	}
	if f.editing == "" {
		return nil, nil
	}
	return &models.Block{ID: f.editing}, nil
}

func (f *Fake) GetOpenSidePanelItems(ctx context.Context) ([]models.SidePanelItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("GetOpenSidePanelItems"); err != nil {
		return nil, err
	}
	return slices.Clone(f.side), nil
}

func (f *Fake) CurrentRoute(ctx context.Context) (models.Route, error) {
	if err := ctx.Err(); err != nil {
		return models.Route{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("CurrentRoute"); err != nil {
		return models.Route{}, err
	}
	return f.route, nil
}

func (f *Fake) DateFormat() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.format
}

func (f *Fake) OnNavigationChanged(fn func()) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

// String helps when a test fails.
func (f *Fake) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fmt.Sprintf("hosttest.Fake{%d blocks, %d calls}", len(f.blocks), len(f.calls))
}
