// Package scheduler runs a function on an interval with an immediate first
// run, one early safety retry and on-demand triggers. A loop never runs its
// body twice at once.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc/panics"
)

// Func is one loop body.
type Func func(ctx context.Context) error

// Reason says why a tick ran.
type Reason string

// Tick reasons.
const (
	ReasonInitial  Reason = "initial"
	ReasonSafety   Reason = "safety"
	ReasonInterval Reason = "interval"
	ReasonTrigger  Reason = "trigger"
	ReasonManual   Reason = "manual"
)

// Tick describes one attempted run. Skipped ticks found the previous run
// still in flight.
type Tick struct {
	Loop     string
	Reason   Reason
	Started  time.Time
	Duration time.Duration
	Skipped  bool
	Err      error
}

// Loop is a single non-reentrant polling loop.
type Loop struct {
	name        string
	interval    time.Duration
	safetyDelay time.Duration
	fn          Func
	logger      *slog.Logger
	onTick      func(Tick)

	// running guards fn; ticks use TryLock and skip, RunNow waits.
	running sync.Mutex

	trigger  chan struct{}
	inflight sync.WaitGroup

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Loop.
type Option func(*Loop)

// WithSafetyDelay schedules one extra run d after Start. Zero disables it.
func WithSafetyDelay(d time.Duration) Option {
	return func(l *Loop) { l.safetyDelay = d }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// WithTickHook calls fn after every tick, skipped or not.
func WithTickHook(fn func(Tick)) Option {
	return func(l *Loop) { l.onTick = fn }
}

// New returns a stopped loop.
func New(name string, interval time.Duration, fn Func, opts ...Option) *Loop {
	l := &Loop{
		name:     name,
		interval: interval,
		fn:       fn,
		logger:   slog.Default(),
		trigger:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.interval <= 0 {
		l.interval = time.Second
	}
	return l
}

// Name returns the loop name.
func (l *Loop) Name() string { return l.name }

// Start runs the loop in the background until Stop or ctx is done. Calling
// Start on a running loop is a no-op.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	go l.run(ctx, l.done)
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	l.tick(ctx, ReasonInitial)

	var safety <-chan time.Time
	if l.safetyDelay > 0 {
		t := time.NewTimer(l.safetyDelay)
		defer t.Stop()
		safety = t.C
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-safety:
			safety = nil
			l.tick(ctx, ReasonSafety)
		case <-ticker.C:
			l.tick(ctx, ReasonInterval)
		case <-l.trigger:
			l.tick(ctx, ReasonTrigger)
		}
	}
}

// tick runs fn unless a run is already in flight. Ticks run on their own
// goroutine so a slow body never delays the timer.
func (l *Loop) tick(ctx context.Context, reason Reason) {
	if !l.running.TryLock() {
		l.report(Tick{Loop: l.name, Reason: reason, Started: time.Now(), Skipped: true})
		return
	}
	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()
		defer l.running.Unlock()
		l.report(l.exec(ctx, reason))
	}()
}

func (l *Loop) exec(ctx context.Context, reason Reason) Tick {
	t := Tick{Loop: l.name, Reason: reason, Started: time.Now()}
	var catcher panics.Catcher
	catcher.Try(func() { t.Err = l.fn(ctx) })
	if r := catcher.Recovered(); r != nil {
		t.Err = r.AsError()
	}
	t.Duration = time.Since(t.Started)
	if t.Err != nil && ctx.Err() == nil {
		l.logger.Warn("loop run failed", "loop", l.name, "reason", string(reason), "error", t.Err)
	}
	return t
}

func (l *Loop) report(t Tick) {
	if t.Skipped {
		l.logger.Debug("loop tick skipped, previous run in flight", "loop", l.name, "reason", string(t.Reason))
	}
	if l.onTick != nil {
		l.onTick(t)
	}
}

// Trigger requests a run as soon as possible. Triggers coalesce while one is
// pending; a stopped loop ignores them.
func (l *Loop) Trigger() {
	select {
	case l.trigger <- struct{}{}:
	default:
	}
}

// RunNow runs fn synchronously, waiting for an in-flight run to finish
// first. It works whether or not the loop is started.
func (l *Loop) RunNow(ctx context.Context) error {
	l.running.Lock()
	defer l.running.Unlock()
	t := l.exec(ctx, ReasonManual)
	l.report(t)
	return t.Err
}

// Stop cancels the loop and waits for the scheduler and any in-flight body
// to return. The body sees a canceled context.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	l.inflight.Wait()
}
