// Package engine builds the panel snapshot. One Aggregator owns every piece
// of state that outlives a poll cycle: the pending-completion map, the
// notified set and the seen set. They are reset only by constructing a new
// Aggregator.
package engine

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dotcommander/nowpanel/internal/host"
	"github.com/dotcommander/nowpanel/internal/models"
	"github.com/dotcommander/nowpanel/internal/notify"
	"github.com/dotcommander/nowpanel/internal/visibility"
)

// DefaultGracePeriod is how long a completed snoozed task keeps its snooze
// annotations before the sweep strips them.
const DefaultGracePeriod = 5 * time.Second

// DefaultPreviewLength bounds notification previews.
const DefaultPreviewLength = 60

// PublishHook observes every published snapshot. resurfaced lists the task
// ids notified for the first time in the cycle that produced snap.
type PublishHook func(snap *models.Snapshot, resurfaced []string)

// Aggregator runs the slow aggregation cycle and folds the fast (editing
// block) and medium (visible tree) results into the same snapshot.
type Aggregator struct {
	host     host.Host
	lookup   *host.Lookup
	resolver *visibility.Resolver
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
	hook     PublishHook

	grace      time.Duration
	previewLen int
	cacheTTL   time.Duration

	// mu guards the cross-cycle state below and serializes publishes.
	mu       sync.Mutex
	pending  map[string]models.PendingCompletion
	notified models.IDSet
	seen     models.IDSet
	version  uint64

	snap atomic.Pointer[models.Snapshot]
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// WithNotifier sets the resurfaced-task notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(a *Aggregator) { a.notifier = n }
}

// WithGracePeriod overrides DefaultGracePeriod.
func WithGracePeriod(d time.Duration) Option {
	return func(a *Aggregator) { a.grace = d }
}

// WithPreviewLength overrides DefaultPreviewLength.
func WithPreviewLength(n int) Option {
	return func(a *Aggregator) { a.previewLen = n }
}

// WithCacheTTL sets how long parent lookups are cached between cycles.
func WithCacheTTL(d time.Duration) Option {
	return func(a *Aggregator) { a.cacheTTL = d }
}

// WithPublishHook registers the snapshot observer.
func WithPublishHook(fn PublishHook) Option {
	return func(a *Aggregator) { a.hook = fn }
}

// New returns an Aggregator whose snapshot starts empty and loading.
func New(h host.Host, opts ...Option) *Aggregator {
	a := &Aggregator{
		host:       h,
		notifier:   notify.Nop{},
		logger:     slog.Default(),
		now:        time.Now,
		grace:      DefaultGracePeriod,
		previewLen: DefaultPreviewLength,
		cacheTTL:   time.Second,
		pending:    make(map[string]models.PendingCompletion),
		notified:   models.IDSet{},
		seen:       models.IDSet{},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.lookup = host.NewLookup(h, 4096, a.cacheTTL)
	a.resolver = visibility.NewResolver(h, a.lookup,
		visibility.WithLogger(a.logger),
		visibility.WithClock(a.now),
	)
	a.snap.Store(models.EmptySnapshot())
	return a
}

// Snapshot returns the latest published snapshot. Callers must not modify it.
func (a *Aggregator) Snapshot() *models.Snapshot {
	return a.snap.Load()
}

// Lookup exposes the shared block cache so mutations can purge it.
func (a *Aggregator) Lookup() *host.Lookup { return a.lookup }

// UnreadCount is the number of resurfaced tasks not yet marked seen.
func (a *Aggregator) UnreadCount() int {
	return a.Snapshot().UnreadCount
}

// MarkAllSeen adds every currently resurfaced task to the seen set and
// republishes with the new unread count.
func (a *Aggregator) MarkAllSeen() {
	a.publish(func(s *models.Snapshot) bool {
		for _, t := range s.Snoozed.Resurfaced {
			a.seen.Add(t.ID)
		}
		unread := a.unreadLocked(s.Snoozed.Resurfaced)
		if unread == s.UnreadCount {
			return false
		}
		s.UnreadCount = unread
		return true
	}, nil)
}

// PendingCompletions returns a copy of the pending-completion map.
func (a *Aggregator) PendingCompletions() map[string]models.PendingCompletion {
	a.mu.Lock()
	defer a.mu.Unlock()
	return maps.Clone(a.pending)
}

// Notified reports whether a resurfaced notification was already sent for id.
func (a *Aggregator) Notified(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.notified.Has(id)
}

// unreadLocked counts resurfaced tasks outside the seen set.
func (a *Aggregator) unreadLocked(resurfaced []models.SnoozedTask) int {
	n := 0
	for _, t := range resurfaced {
		if !a.seen.Has(t.ID) {
			n++
		}
	}
	return n
}

// publish applies mutate to a copy of the current snapshot under the lock
// and stores it as the next version when mutate reports a change. The hook
// runs outside the lock.
func (a *Aggregator) publish(mutate func(s *models.Snapshot) bool, resurfaced []string) {
	a.mu.Lock()
	next := a.snap.Load().Clone()
	if !mutate(next) {
		a.mu.Unlock()
		return
	}
	a.version++
	next.Version = a.version
	next.BuiltAt = a.now()
	a.snap.Store(next)
	hook := a.hook
	a.mu.Unlock()

	if hook != nil {
		hook(next, resurfaced)
	}
}

// UpdateEditing is the fast-loop body: it records the block being edited.
// Lookup failures read as "nothing is being edited".
func (a *Aggregator) UpdateEditing(ctx context.Context) error {
	id := a.resolver.EditingBlock(ctx)
	if ctx.Err() != nil {
		return nil
	}
	a.publish(func(s *models.Snapshot) bool {
		if s.EditingBlockID == id {
			return false
		}
		s.EditingBlockID = id
		return true
	}, nil)
	return nil
}

// UpdateVisible is the medium-loop body: it recomputes the rendered block
// ids. On failure the previous set is kept.
func (a *Aggregator) UpdateVisible(ctx context.Context) error {
	ids, err := a.resolver.VisibleIDs(ctx)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return nil
	}
	a.publish(func(s *models.Snapshot) bool {
		if maps.Equal(s.VisibleIDs, ids) {
			return false
		}
		s.VisibleIDs = ids
		return true
	}, nil)
	return nil
}
