package commands

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dotcommander/nowpanel/internal/models"
	"github.com/dotcommander/nowpanel/internal/output"
	"github.com/dotcommander/nowpanel/internal/snooze"
)

func requireID(args []string) (string, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "", errors.New("block id is required")
	}
	return strings.TrimSpace(args[0]), nil
}

// NewSnoozeCmd creates the snooze command.
func NewSnoozeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snooze <block-id> [duration]",
		Short: "Hide a task until a time (e.g. 2h, 3 days, \"tomorrow 9am\")",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requireID(args)
			if err != nil {
				return cmdErr(err)
			}
			untilFlag, _ := cmd.Flags().GetString("until")
			input := ""
			if len(args) == 2 {
				input = args[1]
			}
			if (input == "") == (untilFlag == "") {
				return cmdErr(errors.New("pass a duration or --until, not both"))
			}
			var until time.Time
			if untilFlag != "" {
				t, err := time.Parse(time.RFC3339, untilFlag)
				if err != nil {
					return cmdErr(&models.InvalidInputError{Field: "until", Value: untilFlag, Hint: "use RFC 3339, e.g. 2024-01-19T15:00:00Z"})
				}
				until = t
			}

			ctx := cmdContext(cmd)
			if err := withSession(ctx, func(s *session) error {
				if input != "" {
					t, err := s.panel.SnoozeFor(ctx, id, input)
					if err != nil {
						return err
					}
					until = t
					return nil
				}
				return s.panel.Snooze(ctx, id, until)
			}); err != nil {
				return err
			}

			type resp struct {
				ID          string    `json:"id"`
				SnoozeUntil time.Time `json:"snooze_until"`
				Label       string    `json:"label"`
			}
			return output.PrintSuccess(resp{ID: id, SnoozeUntil: until, Label: snooze.PendingLabel(until, time.Now())})
		},
	}
	cmd.Flags().String("until", "", "Absolute resurface time (RFC 3339)")
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

// NewUnsnoozeCmd creates the unsnooze command.
func NewUnsnoozeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unsnooze <block-id>",
		Short: "Remove a task's snooze",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requireID(args)
			if err != nil {
				return cmdErr(err)
			}
			ctx := cmdContext(cmd)
			if err := withSession(ctx, func(s *session) error {
				return s.panel.Unsnooze(ctx, id)
			}); err != nil {
				return err
			}
			return output.PrintSuccess(map[string]string{"id": id})
		},
	}
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

// NewPriorityCmd creates the priority command.
func NewPriorityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "priority <block-id> <A|B|C|none>",
		Short: "Set or remove a task's [#A]/[#B]/[#C] tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requireID(args)
			if err != nil {
				return cmdErr(err)
			}
			raw := strings.TrimSpace(args[1])
			remove := strings.EqualFold(raw, "none")
			pr, ok := models.ParsePriority(raw)
			if !remove && !ok {
				return cmdErr(&models.InvalidInputError{Field: "priority", Value: raw, Hint: "use A, B, C or none"})
			}

			ctx := cmdContext(cmd)
			if err := withSession(ctx, func(s *session) error {
				if remove {
					return s.panel.RemovePriority(ctx, id)
				}
				return s.panel.SetPriority(ctx, id, pr)
			}); err != nil {
				return err
			}
			return output.PrintSuccess(map[string]string{"id": id, "priority": string(pr)})
		},
	}
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

// NewCompleteCmd creates the complete command.
func NewCompleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete <block-id>",
		Short: "Mark a task DONE and close its running clock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requireID(args)
			if err != nil {
				return cmdErr(err)
			}
			ctx := cmdContext(cmd)
			if err := withSession(ctx, func(s *session) error {
				return s.panel.Complete(ctx, id)
			}); err != nil {
				return err
			}
			return output.PrintSuccess(map[string]string{"id": id})
		},
	}
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

// NewEstimateCmd creates the estimate command.
func NewEstimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate <block-id> [45m|1h30m|90]",
		Short: "Set or clear a task's time estimate",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requireID(args)
			if err != nil {
				return cmdErr(err)
			}
			clearEst, _ := cmd.Flags().GetBool("clear")
			if clearEst == (len(args) == 2) {
				return cmdErr(errors.New("pass an estimate or --clear"))
			}

			ctx := cmdContext(cmd)
			minutes := 0
			if err := withSession(ctx, func(s *session) error {
				if clearEst {
					return s.panel.RemoveEstimate(ctx, id)
				}
				m, err := s.panel.SetEstimateText(ctx, id, args[1])
				minutes = m
				return err
			}); err != nil {
				return err
			}

			type resp struct {
				ID      string `json:"id"`
				Minutes int    `json:"minutes"`
			}
			return output.PrintSuccess(resp{ID: id, Minutes: minutes})
		},
	}
	cmd.Flags().Bool("clear", false, "Remove the estimate")
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}
