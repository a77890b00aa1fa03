// Package hidecss renders the stylesheet that hides snoozed (and optionally
// completed) blocks in the editor.
package hidecss

import (
	"fmt"
	"strings"

	"github.com/dotcommander/nowpanel/internal/models"
)

// Options tunes which blocks are hidden.
type Options struct {
	// HideDone also hides DONE blocks, including completed snoozed blocks
	// still waiting for cleanup.
	HideDone bool
}

// Selector is the CSS selector for one block.
func Selector(id string) string {
	return fmt.Sprintf(`.ls-block[blockid="%s"]`, cssEscape(id))
}

// HiddenIDs returns the blocks the stylesheet hides: candidates that are
// currently rendered, minus the block being edited and every ancestor of an
// active task.
func HiddenIDs(s *models.Snapshot, opts Options) []string {
	candidates := models.IDSet{}
	for _, t := range s.Snoozed.Pending {
		candidates.Add(t.ID)
	}
	if opts.HideDone {
		for _, d := range s.Done {
			candidates.Add(d.ID)
		}
		for id := range s.PendingCompletionIDs {
			candidates.Add(id)
		}
	}

	var out []string
	for _, id := range candidates.Sorted() {
		if !s.VisibleIDs.Has(id) {
			continue
		}
		if id == s.EditingBlockID || s.AncestorsOfActive.Has(id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Generate renders the stylesheet for s. Nothing to hide yields "".
func Generate(s *models.Snapshot, opts Options) string {
	ids := HiddenIDs(s, opts)
	if len(ids) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "/* nowpanel: %d hidden */\n", len(ids))
	for i, id := range ids {
		b.WriteString(Selector(id))
		if i < len(ids)-1 {
			b.WriteString(",\n")
		}
	}
	b.WriteString(" {\n  display: none !important;\n}\n")
	return b.String()
}

// cssEscape keeps ids from breaking out of the attribute selector.
func cssEscape(id string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", "", "\r", "")
	return r.Replace(id)
}
