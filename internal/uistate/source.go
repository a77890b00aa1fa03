package uistate

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dotcommander/nowpanel/internal/host"
	"github.com/dotcommander/nowpanel/internal/models"
)

// DebounceInterval lets an editor's write+rename settle before reloading.
const DebounceInterval = 100 * time.Millisecond

// Source implements host.UI on top of a state file.
type Source struct {
	path          string
	defaultFormat string
	logger        *slog.Logger

	mu        sync.Mutex
	last      State
	listeners map[int]func()
	nextID    int

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

var _ host.UI = (*Source)(nil)

// NewSource reads path on demand. defaultFormat is used when the file does
// not set date_format.
func NewSource(path, defaultFormat string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		path:          path,
		defaultFormat: defaultFormat,
		logger:        logger,
		listeners:     make(map[int]func()),
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Path is the watched state file.
func (s *Source) Path() string { return s.path }

func (s *Source) load() (State, error) {
	st, err := Load(s.path)
	if err != nil {
		return State{}, err
	}
	return st, nil
}

// GetCurrentEditingBlock returns (nil, nil) when nothing is being edited.
func (s *Source) GetCurrentEditingBlock(ctx context.Context) (*models.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st, err := s.load()
	if err != nil {
		return nil, err
	}
	if st.EditingBlock == "" {
		return nil, nil
	}
	return &models.Block{ID: st.EditingBlock}, nil
}

func (s *Source) GetOpenSidePanelItems(ctx context.Context) ([]models.SidePanelItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st, err := s.load()
	if err != nil {
		return nil, err
	}
	return st.SidePanel, nil
}

func (s *Source) CurrentRoute(ctx context.Context) (models.Route, error) {
	if err := ctx.Err(); err != nil {
		return models.Route{}, err
	}
	st, err := s.load()
	if err != nil {
		return models.Route{}, err
	}
	return st.Route, nil
}

// DateFormat prefers the file's date_format over the configured default.
func (s *Source) DateFormat() string {
	st, err := s.load()
	if err == nil && st.DateFormat != "" {
		return st.DateFormat
	}
	return s.defaultFormat
}

// OnNavigationChanged registers fn to run after the route or side panel
// changes on disk. Listeners only fire while Start is running.
func (s *Source) OnNavigationChanged(fn func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Start watches the state file's directory until ctx is done or Close is
// called. The directory is watched rather than the file because atomic
// saves replace the inode.
func (s *Source) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	if st, err := s.load(); err == nil {
		s.mu.Lock()
		s.last = st
		s.mu.Unlock()
	}

	go s.watch(ctx, watcher)
	return nil
}

func (s *Source) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	defer close(s.done)
	defer func() { _ = watcher.Close() }()

	name := filepath.Base(s.path)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(DebounceInterval, s.reload)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("ui state watcher error", "path", s.path, "error", err)

		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		}
	}
}

// reload re-reads the file and notifies listeners on a navigation change.
func (s *Source) reload() {
	st, err := s.load()
	if err != nil {
		s.logger.Warn("ui state reload failed", "path", s.path, "error", err)
		return
	}

	s.mu.Lock()
	changed := !st.sameNavigation(s.last)
	s.last = st
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	if !changed {
		return
	}
	s.logger.Debug("navigation changed", "route", st.Route.Kind, "page", st.Route.Page, "side_panel", len(st.SidePanel))
	for _, fn := range fns {
		fn()
	}
}

// Close stops a running watcher; pair it with Wait to block until exit. Safe
// to call more than once and without Start.
func (s *Source) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Wait blocks until the watcher goroutine has exited.
func (s *Source) Wait() {
	<-s.done
}
