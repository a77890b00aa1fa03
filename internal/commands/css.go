package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/nowpanel/internal/hidecss"
	"github.com/dotcommander/nowpanel/internal/output"
)

// NewCSSCmd prints the stylesheet that hides snoozed (and optionally done)
// blocks in the rendered views.
func NewCSSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "css",
		Short: "Generate the hide-CSS for the current snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetBool("raw")
			ctx := cmdContext(cmd)
			return withSession(ctx, func(s *session) error {
				if err := s.panel.Sync(ctx); err != nil {
					return err
				}
				opts := hidecss.Options{HideDone: s.runtime.HideDone}
				if cmd.Flags().Changed("hide-done") {
					opts.HideDone, _ = cmd.Flags().GetBool("hide-done")
				}
				snap := s.panel.Snapshot()
				css := hidecss.Generate(snap, opts)
				if raw {
					_, err := fmt.Fprint(os.Stdout, css)
					return err
				}
				type resp struct {
					HiddenIDs []string `json:"hidden_ids"`
					CSS       string   `json:"css"`
				}
				return output.PrintSuccess(resp{HiddenIDs: hidecss.HiddenIDs(snap, opts), CSS: css})
			})
		},
	}
	cmd.Flags().Bool("raw", false, "Print only the stylesheet")
	cmd.Flags().Bool("hide-done", false, "Also hide completed blocks (default from hide_done setting)")
	return cmd
}
