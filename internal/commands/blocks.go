package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dotcommander/nowpanel/internal/app"
	"github.com/dotcommander/nowpanel/internal/content"
	"github.com/dotcommander/nowpanel/internal/models"
	"github.com/dotcommander/nowpanel/internal/output"
	"github.com/dotcommander/nowpanel/internal/store"
)

// NewAddCmd creates the add command, which writes a block into the store.
func NewAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a block to a page, a journal day or under a parent block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, _ := cmd.Flags().GetString("text")
			page, _ := cmd.Flags().GetString("page")
			parent, _ := cmd.Flags().GetString("parent")
			journal, _ := cmd.Flags().GetBool("journal")
			date, _ := cmd.Flags().GetString("date")
			props, _ := cmd.Flags().GetStringArray("prop")

			if strings.TrimSpace(text) == "" {
				return cmdErr(errors.New("--text is required"))
			}
			targets := 0
			for _, set := range []bool{page != "", parent != "", journal || date != ""} {
				if set {
					targets++
				}
			}
			if targets != 1 {
				return cmdErr(errors.New("exactly one of --page, --parent or --journal/--date is required"))
			}
			properties, err := parseProps(props)
			if err != nil {
				return cmdErr(err)
			}

			var block *models.Block
			if err := withDB(func(db *DB) error {
				ctx := cmdContext(cmd)
				nb := store.NewBlock{ParentID: parent, Content: text, Properties: properties}
				switch {
				case page != "":
					id, err := store.EnsurePage(ctx, db, page)
					if err != nil {
						return err
					}
					nb.PageID = id
				case parent == "":
					day, err := journalDay(date, time.Now())
					if err != nil {
						return err
					}
					title := content.JournalTitle(day, app.EffectiveRuntime().DateFormat)
					id, err := store.EnsureJournalPage(ctx, db, title, day)
					if err != nil {
						return err
					}
					nb.PageID = id
				}
				b, err := store.CreateBlock(ctx, db, nb)
				if err != nil {
					return err
				}
				block = b
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Block *models.Block `json:"block"`
			}
			return output.PrintSuccess(resp{Block: block})
		},
	}

	cmd.Flags().String("text", "", "Block content, e.g. \"TODO [#A] Write report\" (required)")
	cmd.Flags().String("page", "", "Page name; created when missing")
	cmd.Flags().String("parent", "", "Parent block id")
	cmd.Flags().Bool("journal", false, "Add to today's journal page")
	cmd.Flags().String("date", "", "Add to the journal page of this day (YYYY-MM-DD)")
	cmd.Flags().StringArray("prop", nil, "Block annotation key=value; may repeat")

	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

// journalDay parses --date, defaulting to today.
func journalDay(date string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(date) == "" {
		return now, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(date), now.Location())
	if err != nil {
		return time.Time{}, &models.InvalidInputError{Field: "date", Value: date, Hint: "use YYYY-MM-DD"}
	}
	return d, nil
}

// parseProps turns key=value pairs into annotations. Integer values are
// stored as numbers.
func parseProps(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, &models.InvalidInputError{Field: "prop", Value: p, Hint: "use key=value"}
		}
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			out[key] = n
			continue
		}
		out[key] = value
	}
	return out, nil
}

// NewShowCmd creates the show command: one block's subtree or a page tree.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a block with its children, or a page's block tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			page, _ := cmd.Flags().GetString("page")
			journal, _ := cmd.Flags().GetBool("journal")

			if (id == "") == (page == "" && !journal) {
				return cmdErr(errors.New("exactly one of --id, --page or --journal is required"))
			}

			return withDB(func(db *DB) error {
				ctx := cmdContext(cmd)
				if id != "" {
					b, err := store.GetBlock(ctx, db, id, true)
					if errors.Is(err, store.ErrBlockNotFound) {
						return &models.BlockNotFoundError{ID: id}
					}
					if err != nil {
						return err
					}
					type resp struct {
						Block *models.Block `json:"block"`
					}
					return output.PrintSuccess(resp{Block: b})
				}

				if journal {
					page = content.JournalTitle(time.Now(), app.EffectiveRuntime().DateFormat)
				}
				tree, err := store.GetPageTree(ctx, db, page)
				if errors.Is(err, store.ErrPageNotFound) {
					return fmt.Errorf("page %q: %w", page, err)
				}
				if err != nil {
					return err
				}
				type resp struct {
					Page   string         `json:"page"`
					Blocks []models.Block `json:"blocks"`
				}
				return output.PrintSuccess(resp{Page: page, Blocks: tree})
			})
		},
	}

	cmd.Flags().String("id", "", "Block id")
	cmd.Flags().String("page", "", "Page name")
	cmd.Flags().Bool("journal", false, "Today's journal page")
	return cmd
}

// NewPagesCmd lists pages with their block counts.
func NewPagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pages",
		Short: "List pages and journal days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *DB) error {
				pages, err := store.ListPages(cmdContext(cmd), db)
				if err != nil {
					return err
				}
				if pages == nil {
					pages = []store.Page{}
				}
				type resp struct {
					Pages []store.Page `json:"pages"`
				}
				return output.PrintSuccess(resp{Pages: pages})
			})
		},
	}
}
