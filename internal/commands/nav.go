package commands

import (
	"errors"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotcommander/nowpanel/internal/app"
	"github.com/dotcommander/nowpanel/internal/models"
	"github.com/dotcommander/nowpanel/internal/output"
	"github.com/dotcommander/nowpanel/internal/uistate"
)

// NewNavCmd creates the nav command group. It edits the UI state file the
// way the editor would, so a running watch sees navigation changes.
func NewNavCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nav",
		Short: "Inspect or change the editor route, editing block and side panel",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newNavShowCmd())
	cmd.AddCommand(newNavPageCmd())
	cmd.AddCommand(newNavJournalCmd())
	cmd.AddCommand(newNavEditCmd())
	cmd.AddCommand(newNavSideCmd())
	cmd.AddCommand(newNavFormatCmd())
	return cmd
}

func printState(st uistate.State) error {
	type resp struct {
		Route        models.Route           `json:"route"`
		EditingBlock string                 `json:"editing_block,omitempty"`
		SidePanel    []models.SidePanelItem `json:"side_panel"`
		DateFormat   string                 `json:"date_format,omitempty"`
	}
	side := st.SidePanel
	if side == nil {
		side = []models.SidePanelItem{}
	}
	return output.PrintSuccess(resp{
		Route:        st.Route,
		EditingBlock: st.EditingBlock,
		SidePanel:    side,
		DateFormat:   st.DateFormat,
	})
}

// updateState applies fn to the UI state file and prints the result.
func updateState(fn func(*uistate.State)) error {
	path, err := app.GetUIStatePath()
	if err != nil {
		return cmdErr(err)
	}
	st, err := uistate.Update(path, fn)
	if err != nil {
		return cmdErr(err)
	}
	return printState(st)
}

func newNavShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current UI state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.GetUIStatePath()
			if err != nil {
				return cmdErr(err)
			}
			st, err := uistate.Load(path)
			if err != nil {
				return cmdErr(err)
			}
			return printState(st)
		},
	}
}

func newNavPageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "page <name>",
		Short: "Route the main view to a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return cmdErr(errors.New("page name is required"))
			}
			return updateState(func(s *uistate.State) {
				s.Route = models.Route{Kind: models.RoutePage, Page: name}
			})
		},
	}
}

func newNavJournalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "journal",
		Short: "Route the main view to today's journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateState(func(s *uistate.State) {
				s.Route = models.Route{Kind: models.RouteJournal}
			})
		},
	}
}

func newNavEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [block-id]",
		Short: "Set or clear the block being edited",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clearEdit, _ := cmd.Flags().GetBool("clear")
			if clearEdit == (len(args) == 1) {
				return cmdErr(errors.New("pass a block id or --clear"))
			}
			id := ""
			if len(args) == 1 {
				id = strings.TrimSpace(args[0])
			}
			return updateState(func(s *uistate.State) { s.EditingBlock = id })
		},
	}
	cmd.Flags().Bool("clear", false, "Stop editing")
	return cmd
}

func newNavSideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "side",
		Short: "Open, close or clear side-panel items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			openPage, _ := cmd.Flags().GetString("open-page")
			openBlock, _ := cmd.Flags().GetString("open-block")
			closeID, _ := cmd.Flags().GetString("close")
			clearAll, _ := cmd.Flags().GetBool("clear")

			if openPage == "" && openBlock == "" && closeID == "" && !clearAll {
				return cmdErr(errors.New("one of --open-page, --open-block, --close or --clear is required"))
			}
			return updateState(func(s *uistate.State) {
				if clearAll {
					s.SidePanel = nil
				}
				if closeID != "" {
					s.SidePanel = slices.DeleteFunc(s.SidePanel, func(it models.SidePanelItem) bool {
						return it.ID == closeID
					})
				}
				s.SidePanel = openSide(s.SidePanel, models.SidePanelPage, openPage)
				s.SidePanel = openSide(s.SidePanel, models.SidePanelBlock, openBlock)
			})
		},
	}
	cmd.Flags().String("open-page", "", "Open a page by name")
	cmd.Flags().String("open-block", "", "Open a block by id")
	cmd.Flags().String("close", "", "Close the item with this page name or block id")
	cmd.Flags().Bool("clear", false, "Close every item")
	return cmd
}

// openSide appends an item unless it is already open.
func openSide(items []models.SidePanelItem, kind models.SidePanelKind, id string) []models.SidePanelItem {
	id = strings.TrimSpace(id)
	if id == "" {
		return items
	}
	it := models.SidePanelItem{Kind: kind, ID: id}
	if slices.Contains(items, it) {
		return items
	}
	return append(items, it)
}

func newNavFormatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format <date-format>",
		Short: "Set the journal title format, e.g. \"MMM do, yyyy\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateState(func(s *uistate.State) { s.DateFormat = args[0] })
		},
	}
}
