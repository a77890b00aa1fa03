package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dotcommander/nowpanel/internal/hidecss"
	"github.com/dotcommander/nowpanel/internal/host"
	"github.com/dotcommander/nowpanel/internal/models"
	"github.com/dotcommander/nowpanel/internal/output"
	"github.com/dotcommander/nowpanel/internal/panel"
)

// NewWatchCmd runs the panel: the three poll loops, the UI state watcher and
// a line-oriented control channel on stdin.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the poll loops and stream snapshot events as JSON lines",
		Long: "Run the poll loops and stream snapshot events as JSON lines.\n" +
			"Stdin accepts: seen (mark resurfaced tasks as seen), refresh, css, quit.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wait, _ := cmd.Flags().GetDuration("wait")
			withCSS, _ := cmd.Flags().GetBool("css")
			ticks, _ := cmd.Flags().GetBool("ticks")

			ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, closeSession, err := openSession()
			if err != nil {
				return cmdErr(err)
			}
			defer closeSession()

			if err := host.WaitReady(ctx, s.store.Ping, wait); err != nil {
				return cmdErr(fmt.Errorf("block store not ready: %w", err))
			}
			if err := s.ui.Start(ctx); err != nil {
				return cmdErr(err)
			}

			kinds := []models.EventKind{models.EventSnapshotPublished, models.EventTaskResurfaced}
			if ticks {
				kinds = append(kinds, models.EventLoopTick)
			}
			subID, events := s.panel.Subscribe(64, kinds...)
			defer s.panel.Unsubscribe(subID)

			w := &watcher{
				panel:  s.panel,
				out:    output.DefaultConfig(),
				css:    withCSS,
				cssOpt: hidecss.Options{HideDone: s.runtime.HideDone},
				logger: slog.Default(),
			}
			s.panel.Start(ctx)
			err = w.run(ctx, events, readLines(ctx, os.Stdin))
			s.panel.Stop()
			s.ui.Close()
			s.ui.Wait()
			if err != nil {
				return cmdErr(err)
			}
			return nil
		},
	}
	cmd.Flags().Duration("wait", 30*time.Second, "How long to wait for the block store to become ready")
	cmd.Flags().Bool("css", false, "Emit a css event whenever the hide-CSS changes")
	cmd.Flags().Bool("ticks", false, "Also emit loop_tick events")
	return cmd
}

// watcher prints bus events and applies stdin control commands.
type watcher struct {
	panel   *panel.Panel
	out     output.Config
	css     bool
	cssOpt  hidecss.Options
	lastCSS string
	logger  *slog.Logger
}

type cssEvent struct {
	Kind      string   `json:"kind"`
	HiddenIDs []string `json:"hidden_ids"`
	CSS       string   `json:"css"`
}

// run returns when ctx ends, the bus closes or "quit" is read. A closed
// lines channel only disables the control channel.
func (w *watcher) run(ctx context.Context, events <-chan models.Event, lines <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := w.handle(ev); err != nil {
				return err
			}
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			quit, err := w.command(ctx, line)
			if err != nil {
				w.logger.Warn("watch command failed", "command", line, "error", err)
			}
			if quit {
				return nil
			}
		}
	}
}

func (w *watcher) handle(ev models.Event) error {
	if ev.Kind == models.EventTaskResurfaced {
		ev.Snapshot = nil
	}
	if err := output.PrintWith(w.out, ev); err != nil {
		return err
	}
	if ev.Kind == models.EventSnapshotPublished && w.css {
		return w.emitCSS(ev.Snapshot, false)
	}
	return nil
}

// emitCSS prints the stylesheet when it changed since the last emission, or
// always when force is set.
func (w *watcher) emitCSS(snap *models.Snapshot, force bool) error {
	if snap == nil {
		return nil
	}
	css := hidecss.Generate(snap, w.cssOpt)
	if css == w.lastCSS && !force {
		return nil
	}
	w.lastCSS = css
	return output.PrintWith(w.out, cssEvent{Kind: "css", HiddenIDs: hidecss.HiddenIDs(snap, w.cssOpt), CSS: css})
}

// command applies one control line. It reports whether the watch should end.
func (w *watcher) command(ctx context.Context, line string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return false, nil
	case "seen":
		w.panel.MarkAllSeen()
		return false, nil
	case "refresh":
		return false, w.panel.Refresh(ctx)
	case "css":
		return false, w.emitCSS(w.panel.Snapshot(), true)
	case "quit", "exit":
		return true, nil
	default:
		return false, &models.InvalidInputError{Field: "command", Value: line, Hint: "one of seen, refresh, css, quit"}
	}
}

// readLines streams r line by line until EOF or ctx ends.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case out <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
