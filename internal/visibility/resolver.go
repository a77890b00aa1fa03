// Package visibility tracks what the editor is showing: the block being
// edited, the ids rendered in the main view and side panel, and the ancestor
// closure of active tasks that the hiding layer must keep visible.
package visibility

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dotcommander/nowpanel/internal/content"
	"github.com/dotcommander/nowpanel/internal/host"
	"github.com/dotcommander/nowpanel/internal/models"
)

// MaxAncestorDepth bounds every parent walk so corrupt or cyclic parent data
// cannot loop forever.
const MaxAncestorDepth = 50

// Resolver answers visibility questions against a host.
type Resolver struct {
	host   host.Host
	lookup *host.Lookup
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithClock overrides time.Now when resolving today's journal page.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver builds a Resolver. lookup is shared with the aggregation
// engine so both walks hit the same cache.
func NewResolver(h host.Host, lookup *host.Lookup, opts ...Option) *Resolver {
	r := &Resolver{host: h, lookup: lookup, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EditingBlock returns the id of the block being edited, or "". Lookup
// failures are logged at debug and read as "nothing is being edited".
func (r *Resolver) EditingBlock(ctx context.Context) string {
	b, err := r.host.GetCurrentEditingBlock(ctx)
	if err != nil {
		r.logger.Debug("editing block lookup failed", "error", err)
		return ""
	}
	if b == nil {
		return ""
	}
	return b.ID
}

// CurrentPage resolves the route to a page name. Anything but a page route
// means today's journal page, titled with the user's date format.
func (r *Resolver) CurrentPage(ctx context.Context) (string, error) {
	route, err := r.host.CurrentRoute(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read route: %w", err)
	}
	if route.Kind == models.RoutePage && route.Page != "" {
		return route.Page, nil
	}
	return content.JournalTitle(r.now(), r.host.DateFormat()), nil
}

// VisibleIDs unions every block id in the current page tree and in every
// open side-panel item. The main view must resolve; side-panel items that
// fail are skipped.
func (r *Resolver) VisibleIDs(ctx context.Context) (models.IDSet, error) {
	page, err := r.CurrentPage(ctx)
	if err != nil {
		return nil, err
	}
	tree, err := r.host.GetPageBlockTree(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to load page %q: %w", page, err)
	}

	ids := models.IDSet{}
	CollectIDs(ids, tree)

	items, err := r.host.GetOpenSidePanelItems(ctx)
	if err != nil {
		r.logger.Warn("side panel lookup failed", "error", err)
		return ids, nil
	}
	for _, item := range items {
		switch item.Kind {
		case models.SidePanelPage:
			t, err := r.host.GetPageBlockTree(ctx, item.ID)
			if err != nil {
				r.logger.Warn("side panel page failed", "page", item.ID, "error", err)
				continue
			}
			CollectIDs(ids, t)
		case models.SidePanelBlock:
			b, err := r.host.GetBlock(ctx, item.ID, true)
			if err != nil {
				r.logger.Warn("side panel block failed", "block_id", item.ID, "error", err)
				continue
			}
			if b != nil {
				CollectIDs(ids, []models.Block{*b})
			}
		}
	}
	return ids, nil
}

// AncestorClosure walks the parent chain of every seed and returns all
// parents visited. A seed is only included if it is some other seed's
// ancestor. Each walk stops at the page root, a missing parent, a cycle, a
// failed lookup or MaxAncestorDepth steps.
func (r *Resolver) AncestorClosure(ctx context.Context, seeds []string) models.IDSet {
	out := models.IDSet{}
	for _, seed := range seeds {
		if ctx.Err() != nil {
			break
		}
		r.walk(ctx, seed, out)
	}
	return out
}

func (r *Resolver) walk(ctx context.Context, seed string, out models.IDSet) {
	cur, err := r.lookup.Block(ctx, seed)
	if err != nil || cur == nil {
		if err != nil {
			r.logger.Debug("ancestor walk start failed", "block_id", seed, "error", err)
		}
		return
	}

	visited := map[string]bool{seed: true}
	for depth := 0; depth < MaxAncestorDepth; depth++ {
		pid := cur.ParentID()
		if pid == "" || visited[pid] {
			return
		}
		visited[pid] = true
		out.Add(pid)

		next, err := r.lookup.Block(ctx, pid)
		if err != nil {
			r.logger.Debug("ancestor lookup failed", "block_id", pid, "error", err)
			return
		}
		if next == nil {
			return
		}
		cur = next
	}
}
