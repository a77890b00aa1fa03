package commands

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/nowpanel/internal/app"
	"github.com/dotcommander/nowpanel/internal/output"
)

// Execute runs the CLI application.
func Execute(version string) error {
	level := new(slog.LevelVar)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	root := newRootCmd(version, level)
	err := root.Execute()
	if err != nil {
		var pe printedError
		if !errors.As(err, &pe) {
			slog.Error("command failed", "error", err.Error())
		}
	}
	return err
}

func newRootCmd(version string, level *slog.LevelVar) *cobra.Command {
	root := &cobra.Command{
		Use:           "nowpanel",
		Short:         "Active-work panel over an outliner block store (now, waiting, today, snoozed)",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			showVersion, _ := cmd.Flags().GetBool("version")
			if showVersion {
				type resp struct {
					Version string `json:"version"`
				}
				return output.PrintSuccess(resp{Version: version})
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.EnsureConfigDir(); err != nil {
				return err
			}

			if dbPath, err := cmd.Flags().GetString("db-path"); err == nil && dbPath != "" {
				app.SetDBPathOverride(dbPath)
			}
			if uiPath, err := cmd.Flags().GetString("ui-state"); err == nil && uiPath != "" {
				app.SetUIStatePathOverride(uiPath)
			}

			settings, err := app.LoadSettings()
			if err != nil {
				return err
			}
			if level != nil {
				level.Set(settings.SlogLevel())
			}
			return nil
		},
	}

	root.PersistentFlags().String("db-path", "", "Override block store path")
	root.PersistentFlags().String("ui-state", "", "Override editor UI state file path")
	root.Flags().BoolP("version", "v", false, "version for nowpanel")

	root.AddCommand(NewAddCmd())
	root.AddCommand(NewShowCmd())
	root.AddCommand(NewPagesCmd())
	root.AddCommand(NewNavCmd())
	root.AddCommand(NewViewCmds()...)
	root.AddCommand(NewBoardCmd())
	root.AddCommand(NewCSSCmd())
	root.AddCommand(NewWatchCmd())
	root.AddCommand(NewSnoozeCmd())
	root.AddCommand(NewUnsnoozeCmd())
	root.AddCommand(NewPriorityCmd())
	root.AddCommand(NewCompleteCmd())
	root.AddCommand(NewEstimateCmd())
	root.AddCommand(NewPushCmd())
	root.AddCommand(NewStatusCmd(root))

	return root
}
