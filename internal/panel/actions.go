package panel

import (
	"context"
	"fmt"
	"time"

	"github.com/dotcommander/nowpanel/internal/content"
	"github.com/dotcommander/nowpanel/internal/models"
	"github.com/dotcommander/nowpanel/internal/snooze"
)

// Each action is a thin pass-through to the host followed by a refresh
// request. Free-text input that does not parse is returned as
// *models.InvalidInputError and never replaced by a default.

// Snooze hides id until the given time.
func (p *Panel) Snooze(ctx context.Context, id string, until time.Time) error {
	now := p.now()
	if !until.After(now) {
		return &models.InvalidInputError{
			Field: "snooze_until",
			Value: until.Format(time.RFC3339),
			Hint:  "pick a time in the future",
		}
	}
	if err := p.host.SetAnnotation(ctx, id, models.AnnotationSnoozedUntil, snooze.Encode(until)); err != nil {
		return fmt.Errorf("failed to snooze %s: %w", id, err)
	}
	if err := p.host.SetAnnotation(ctx, id, models.AnnotationSnoozedAt, snooze.Encode(now)); err != nil {
		return fmt.Errorf("failed to snooze %s: %w", id, err)
	}
	p.logger.Info("task snoozed", "block_id", id, "until", until.Format(time.RFC3339))
	p.requestRefresh()
	return nil
}

// SnoozeFor parses input ("2h", "3 days", "tomorrow 9am") and snoozes id
// until the resulting time, which it returns.
func (p *Panel) SnoozeFor(ctx context.Context, id, input string) (time.Time, error) {
	until, ok := snooze.ParseDuration(input, p.now())
	if !ok {
		return time.Time{}, &models.InvalidInputError{
			Field: "duration",
			Value: input,
			Hint:  "use 30m, 2h, 3d, 1w or a date such as \"tomorrow 9am\"",
		}
	}
	if err := p.Snooze(ctx, id, until); err != nil {
		return time.Time{}, err
	}
	return until, nil
}

// Unsnooze removes both snooze annotations.
func (p *Panel) Unsnooze(ctx context.Context, id string) error {
	for _, key := range []string{models.AnnotationSnoozedUntil, models.AnnotationSnoozedAt} {
		if err := p.host.RemoveAnnotation(ctx, id, key); err != nil {
			return fmt.Errorf("failed to unsnooze %s: %w", id, err)
		}
	}
	p.logger.Info("task unsnoozed", "block_id", id)
	p.requestRefresh()
	return nil
}

// SetPriority replaces or inserts the priority tag.
func (p *Panel) SetPriority(ctx context.Context, id string, pr models.Priority) error {
	if _, ok := models.ParsePriority(string(pr)); !ok {
		return &models.InvalidInputError{Field: "priority", Value: string(pr), Hint: "use A, B or C"}
	}
	return p.rewrite(ctx, id, "set priority", func(text string) string {
		return content.SetPriority(text, pr)
	})
}

// RemovePriority drops the priority tag.
func (p *Panel) RemovePriority(ctx context.Context, id string) error {
	return p.rewrite(ctx, id, "remove priority", content.RemovePriority)
}

// Complete marks id DONE and closes its open clock entry. Snooze annotations
// are left for the aggregator's grace-period cleanup.
func (p *Panel) Complete(ctx context.Context, id string) error {
	now := p.now()
	return p.rewrite(ctx, id, "complete", func(text string) string {
		return content.MarkDone(text, now)
	})
}

// SetEstimate stores a positive estimate in minutes.
func (p *Panel) SetEstimate(ctx context.Context, id string, minutes int) error {
	if minutes <= 0 {
		return &models.InvalidInputError{
			Field: "estimate",
			Value: fmt.Sprint(minutes),
			Hint:  "estimates are whole minutes greater than zero",
		}
	}
	if err := p.host.SetAnnotation(ctx, id, models.AnnotationEstimatedTime, minutes); err != nil {
		return fmt.Errorf("failed to set estimate on %s: %w", id, err)
	}
	p.requestRefresh()
	return nil
}

// SetEstimateText parses input ("45m", "1h30m", "90") and stores it,
// returning the minutes.
func (p *Panel) SetEstimateText(ctx context.Context, id, input string) (int, error) {
	minutes, ok := content.ParseEstimate(input)
	if !ok {
		return 0, &models.InvalidInputError{
			Field: "estimate",
			Value: input,
			Hint:  "use minutes (45), 45m, 1h or 1h30m",
		}
	}
	if err := p.SetEstimate(ctx, id, minutes); err != nil {
		return 0, err
	}
	return minutes, nil
}

// RemoveEstimate drops the estimate annotation.
func (p *Panel) RemoveEstimate(ctx context.Context, id string) error {
	if err := p.host.RemoveAnnotation(ctx, id, models.AnnotationEstimatedTime); err != nil {
		return fmt.Errorf("failed to remove estimate on %s: %w", id, err)
	}
	p.requestRefresh()
	return nil
}

// rewrite loads id's text, applies edit and writes it back when it changed.
func (p *Panel) rewrite(ctx context.Context, id, action string, edit func(string) string) error {
	b, err := p.host.GetBlock(ctx, id, false)
	if err != nil {
		return fmt.Errorf("failed to %s %s: %w", action, id, err)
	}
	if b == nil {
		return &models.BlockNotFoundError{ID: id}
	}
	next := edit(b.Text)
	if next == b.Text {
		return nil
	}
	if err := p.host.UpdateBlockText(ctx, id, next); err != nil {
		return fmt.Errorf("failed to %s %s: %w", action, id, err)
	}
	p.logger.Info("task updated", "block_id", id, "action", action)
	p.requestRefresh()
	return nil
}
