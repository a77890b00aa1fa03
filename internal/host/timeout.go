package host

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dotcommander/nowpanel/internal/models"
)

// WithTimeout bounds every context-taking call on h by d. A hung host call
// then fails that one lookup instead of stalling the whole cycle.
func WithTimeout(h Host, d time.Duration) Host {
	if d <= 0 {
		return h
	}
	return &timeoutHost{next: h, d: d}
}

type timeoutHost struct {
	next Host
	d    time.Duration
}

func (t *timeoutHost) QueryTasks(ctx context.Context, q models.TaskQuery) ([]models.Block, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.QueryTasks(ctx, q)
}

func (t *timeoutHost) GetBlock(ctx context.Context, id string, includeChildren bool) (*models.Block, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.GetBlock(ctx, id, includeChildren)
}

func (t *timeoutHost) GetPageBlockTree(ctx context.Context, page string) ([]models.Block, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.GetPageBlockTree(ctx, page)
}

func (t *timeoutHost) UpdateBlockText(ctx context.Context, id, text string) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.UpdateBlockText(ctx, id, text)
}

func (t *timeoutHost) SetAnnotation(ctx context.Context, id, key string, value any) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.SetAnnotation(ctx, id, key, value)
}

func (t *timeoutHost) RemoveAnnotation(ctx context.Context, id, key string) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.RemoveAnnotation(ctx, id, key)
}

func (t *timeoutHost) GetCurrentEditingBlock(ctx context.Context) (*models.Block, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.GetCurrentEditingBlock(ctx)
}

func (t *timeoutHost) GetOpenSidePanelItems(ctx context.Context) ([]models.SidePanelItem, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.GetOpenSidePanelItems(ctx)
}

func (t *timeoutHost) CurrentRoute(ctx context.Context) (models.Route, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.CurrentRoute(ctx)
}

func (t *timeoutHost) DateFormat() string { return t.next.DateFormat() }

func (t *timeoutHost) OnNavigationChanged(fn func()) func() {
	return t.next.OnNavigationChanged(fn)
}

// Probe is a cheap readiness check, typically a route lookup.
type Probe func(ctx context.Context) error

// WaitReady retries probe with exponential backoff until it succeeds, ctx is
// done, or maxWait elapses. Only ErrUnavailable is retried.
func WaitReady(ctx context.Context, probe Probe, maxWait time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = maxWait
	b.RandomizationFactor = 0.1

	return backoff.Retry(func() error {
		err := probe(ctx)
		if err == nil {
			return nil
		}
		if isUnavailable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(b, ctx))
}
