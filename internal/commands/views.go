package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/nowpanel/internal/models"
	"github.com/dotcommander/nowpanel/internal/output"
)

// view selects the part of a snapshot one command prints.
type view struct {
	use   string
	short string
	pick  func(s *models.Snapshot) any
}

var views = []view{
	{
		use:   "now",
		short: "List NOW/DOING tasks, highest priority first",
		pick: func(s *models.Snapshot) any {
			return struct {
				Tasks   []models.NowTask `json:"tasks"`
				Loading bool             `json:"loading"`
			}{s.Now, s.Loading.Now}
		},
	},
	{
		use:   "waiting",
		short: "List WAITING/WAIT tasks, scheduled first",
		pick: func(s *models.Snapshot) any {
			return struct {
				Tasks   []models.WaitingTask `json:"tasks"`
				Loading bool                 `json:"loading"`
			}{s.Waiting, s.Loading.Waiting}
		},
	},
	{
		use:   "today",
		short: "List the tasks on (or referenced from) today's journal",
		pick: func(s *models.Snapshot) any {
			return struct {
				Groups  models.TodayGroups `json:"groups"`
				Loading bool               `json:"loading"`
			}{s.Today, s.Loading.Today}
		},
	},
	{
		use:   "snoozed",
		short: "List snoozed tasks, resurfaced before pending",
		pick: func(s *models.Snapshot) any {
			return struct {
				Groups      models.SnoozedGroups `json:"groups"`
				UnreadCount int                  `json:"unread_count"`
				Loading     bool                 `json:"loading"`
			}{s.Snoozed, s.UnreadCount, s.Loading.Snoozed}
		},
	},
	{
		use:   "snapshot",
		short: "Print the full snapshot every view reads",
		pick:  func(s *models.Snapshot) any { return s },
	},
}

// NewViewCmds creates one read-only command per snapshot view. Each runs a
// single poll of all three loops before printing.
func NewViewCmds() []*cobra.Command {
	out := make([]*cobra.Command, 0, len(views))
	for _, v := range views {
		out = append(out, newViewCmd(v))
	}
	return out
}

func newViewCmd(v view) *cobra.Command {
	return &cobra.Command{
		Use:   v.use,
		Short: v.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			var snap *models.Snapshot
			if err := withSession(ctx, func(s *session) error {
				if err := s.panel.Sync(ctx); err != nil {
					return err
				}
				snap = s.panel.Snapshot()
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(v.pick(snap))
		},
	}
}
