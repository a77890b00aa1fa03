// Package panel is the public face of the active-work panel: it owns the
// aggregator and its three poll loops, republishes snapshots on a bus and
// exposes the task actions.
package panel

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dotcommander/nowpanel/internal/app"
	"github.com/dotcommander/nowpanel/internal/engine"
	"github.com/dotcommander/nowpanel/internal/host"
	"github.com/dotcommander/nowpanel/internal/models"
	"github.com/dotcommander/nowpanel/internal/notify"
	"github.com/dotcommander/nowpanel/internal/scheduler"
)

// Loop names.
const (
	LoopFast   = "fast"
	LoopMedium = "medium"
	LoopSlow   = "slow"
)

// Panel wires a host to the aggregator, loops and bus.
type Panel struct {
	host    host.Host
	agg     *engine.Aggregator
	bus     *Bus
	logger  *slog.Logger
	now     func() time.Time
	runtime app.Runtime

	fast   *scheduler.Loop
	medium *scheduler.Loop
	slow   *scheduler.Loop

	mu      sync.Mutex
	started bool
	unsub   func()
}

type options struct {
	runtime  app.Runtime
	logger   *slog.Logger
	notifier notify.Notifier
	now      func() time.Time
}

// Option configures a Panel.
type Option func(*options)

// WithRuntime sets intervals, timeouts and the grace period.
func WithRuntime(rt app.Runtime) Option {
	return func(o *options) { o.runtime = rt }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithNotifier sets the resurfaced-task notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithClock overrides time.Now for the aggregator and the actions.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds a stopped panel. Every host call is bounded by the runtime's
// call timeout.
func New(h host.Host, opts ...Option) *Panel {
	o := &options{
		runtime:  app.DefaultRuntime(),
		logger:   slog.Default(),
		notifier: notify.Toast{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	rt := o.runtime

	p := &Panel{
		host:    host.WithTimeout(h, rt.CallTimeout),
		bus:     NewBus(),
		logger:  o.logger,
		now:     o.now,
		runtime: rt,
	}
	p.agg = engine.New(p.host,
		engine.WithClock(o.now),
		engine.WithLogger(o.logger),
		engine.WithNotifier(o.notifier),
		engine.WithGracePeriod(rt.GracePeriod),
		engine.WithPreviewLength(rt.PreviewLength),
		engine.WithCacheTTL(rt.ParentCacheTTL),
		engine.WithPublishHook(p.onPublish),
	)

	tick := scheduler.WithTickHook(p.onTick)
	logOpt := scheduler.WithLogger(o.logger)
	p.fast = scheduler.New(LoopFast, rt.FastInterval, p.agg.UpdateEditing, tick, logOpt)
	p.medium = scheduler.New(LoopMedium, rt.MediumInterval, p.agg.UpdateVisible, tick, logOpt,
		scheduler.WithSafetyDelay(rt.SafetyDelay))
	p.slow = scheduler.New(LoopSlow, rt.SlowInterval, p.agg.RunCycle, tick, logOpt,
		scheduler.WithSafetyDelay(rt.SafetyDelay))
	return p
}

// Start launches the three loops and re-runs the visible-tree loop on every
// navigation change. Calling Start twice is a no-op.
func (p *Panel) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	p.unsub = p.host.OnNavigationChanged(p.medium.Trigger)
	p.fast.Start(ctx)
	p.medium.Start(ctx)
	p.slow.Start(ctx)
	p.logger.Info("panel started",
		"fast", p.runtime.FastInterval.String(),
		"medium", p.runtime.MediumInterval.String(),
		"slow", p.runtime.SlowInterval.String(),
	)
}

// Stop halts the loops, waits for in-flight runs and closes every
// subscription.
func (p *Panel) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	unsub := p.unsub
	p.unsub = nil
	p.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	p.fast.Stop()
	p.medium.Stop()
	p.slow.Stop()
	p.bus.Close()
	p.logger.Info("panel stopped")
}

// Snapshot returns the latest snapshot. It is shared and must not be modified.
func (p *Panel) Snapshot() *models.Snapshot { return p.agg.Snapshot() }

// UnreadCount is the number of resurfaced tasks not yet marked seen.
func (p *Panel) UnreadCount() int { return p.agg.UnreadCount() }

// MarkAllSeen marks every currently resurfaced task as seen.
func (p *Panel) MarkAllSeen() { p.agg.MarkAllSeen() }

// PendingCompletions exposes the aggregator's cleanup queue.
func (p *Panel) PendingCompletions() map[string]models.PendingCompletion {
	return p.agg.PendingCompletions()
}

// Subscribe returns a channel of panel events of the given kinds (all when
// empty). Unsubscribe or Stop closes it.
func (p *Panel) Subscribe(bufSize int, kinds ...models.EventKind) (string, <-chan models.Event) {
	return p.bus.Subscribe(bufSize, kinds...)
}

// Unsubscribe removes a subscription.
func (p *Panel) Unsubscribe(id string) { p.bus.Unsubscribe(id) }

// Refresh runs the slow aggregation cycle now, waiting for an in-flight run
// first.
func (p *Panel) Refresh(ctx context.Context) error {
	return p.slow.RunNow(ctx)
}

// Sync runs all three loop bodies once, in order. Used by one-shot commands
// that never Start the panel.
func (p *Panel) Sync(ctx context.Context) error {
	if err := p.fast.RunNow(ctx); err != nil {
		return err
	}
	if err := p.medium.RunNow(ctx); err != nil {
		p.logger.Warn("visible tree unavailable", "error", err)
	}
	return p.slow.RunNow(ctx)
}

// requestRefresh asks a running panel for a slow cycle soon. A stopped panel
// ignores it; callers of one-shot actions refresh explicitly.
func (p *Panel) requestRefresh() {
	p.agg.Lookup().Purge()
	p.slow.Trigger()
}

func (p *Panel) onPublish(snap *models.Snapshot, resurfaced []string) {
	p.bus.Publish(models.Event{Kind: models.EventSnapshotPublished, Snapshot: snap})
	for _, id := range resurfaced {
		p.bus.Publish(models.Event{Kind: models.EventTaskResurfaced, TaskID: id, Snapshot: snap})
	}
}

func (p *Panel) onTick(t scheduler.Tick) {
	ev := models.Event{Kind: models.EventLoopTick, Loop: t.Loop, Skipped: t.Skipped}
	if t.Err != nil {
		ev.Error = t.Err.Error()
	}
	p.bus.Publish(ev)
}
