package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dotcommander/nowpanel/internal/content"
	"github.com/dotcommander/nowpanel/internal/models"
)

// NewBoardCmd renders every view as colored text for humans.
func NewBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show all views as a colored board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			ctx := cmdContext(cmd)
			return withSession(ctx, func(s *session) error {
				if err := s.panel.Sync(ctx); err != nil {
					return err
				}
				b := board{w: os.Stdout, color: !noColor && !color.NoColor}
				return b.render(s.panel.Snapshot())
			})
		},
	}
	cmd.Flags().Bool("no-color", false, "Disable ANSI colors")
	return cmd
}

type board struct {
	w     io.Writer
	color bool
	err   error
}

func (b *board) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if b.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (b *board) printf(c *color.Color, format string, args ...any) {
	if b.err != nil {
		return
	}
	_, b.err = c.Fprintf(b.w, format, args...)
}

func (b *board) heading(title string, n int, loading bool) {
	h := b.paint(color.Bold, color.FgCyan)
	switch {
	case loading:
		b.printf(h, "%s ", title)
		b.printf(b.paint(color.Faint), "(loading)\n")
	default:
		b.printf(h, "%s (%d)\n", title, n)
	}
}

// line prints one task: priority, display text, parent context, then a
// right-hand note.
func (b *board) line(t models.Task, note string, noteColor color.Attribute) {
	pri := content.ExtractPriority(t.RawText)
	if pri != models.PriorityNone {
		b.printf(b.paint(priorityColor(pri), color.Bold), "  [#%s] ", pri)
	} else {
		b.printf(b.paint(), "  ")
	}
	b.printf(b.paint(), "%s", content.DisplayText(t.RawText))
	if t.ParentText != "" {
		b.printf(b.paint(color.Faint), "  < %s", content.Preview(content.DisplayText(t.ParentText), 40))
	}
	if note != "" {
		b.printf(b.paint(noteColor), "  %s", note)
	}
	b.printf(b.paint(), "  %s\n", b.paint(color.Faint).Sprint(t.ID))
}

func priorityColor(p models.Priority) color.Attribute {
	switch p {
	case models.PriorityA:
		return color.FgRed
	case models.PriorityB:
		return color.FgYellow
	default:
		return color.FgBlue
	}
}

func (b *board) render(s *models.Snapshot) error {
	b.heading("NOW", len(s.Now), s.Loading.Now)
	for _, t := range s.Now {
		b.line(t.Task, formatElapsed(time.Duration(t.ElapsedMS)*time.Millisecond), color.FgGreen)
	}

	b.heading("WAITING", len(s.Waiting), s.Loading.Waiting)
	for _, t := range s.Waiting {
		b.line(t.Task, t.ScheduleLabel, color.FgMagenta)
	}

	today := len(s.Today.Now) + len(s.Today.TodoLater) + len(s.Today.Waiting)
	b.heading("TODAY", today, s.Loading.Today)
	for _, group := range []struct {
		name  string
		tasks []models.TodayTask
	}{{"now", s.Today.Now}, {"later", s.Today.TodoLater}, {"waiting", s.Today.Waiting}} {
		if len(group.tasks) == 0 {
			continue
		}
		b.printf(b.paint(color.Faint), " %s\n", group.name)
		for _, t := range group.tasks {
			note := ""
			if t.IsReferenced {
				note = "ref"
			}
			b.line(t.Task, note, color.Faint)
		}
	}

	snoozed := len(s.Snoozed.Resurfaced) + len(s.Snoozed.Pending)
	b.heading("SNOOZED", snoozed, s.Loading.Snoozed)
	if s.UnreadCount > 0 {
		b.printf(b.paint(color.FgRed, color.Bold), " %d unread\n", s.UnreadCount)
	}
	for _, t := range s.Snoozed.Resurfaced {
		b.line(t.Task, t.Label, color.FgYellow)
	}
	for _, t := range s.Snoozed.Pending {
		b.line(t.Task, t.Label, color.Faint)
	}
	return b.err
}

// formatElapsed renders a clock duration as "1h05m" or "12m"; zero is "".
func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return "<1m"
	}
}
