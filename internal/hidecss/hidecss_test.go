package hidecss

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dotcommander/nowpanel/internal/models"
)

func snapshot() *models.Snapshot {
	s := models.EmptySnapshot()
	s.Snoozed.Pending = []models.SnoozedTask{
		{Task: models.Task{ID: "p1"}},
		{Task: models.Task{ID: "p2"}},
		{Task: models.Task{ID: "p3"}},
		{Task: models.Task{ID: "offscreen"}},
	}
	s.Snoozed.Resurfaced = []models.SnoozedTask{{Task: models.Task{ID: "r1"}}}
	s.Done = []models.DoneTask{{ID: "d1"}}
	s.PendingCompletionIDs = models.NewIDSet("d2")
	s.VisibleIDs = models.NewIDSet("p1", "p2", "p3", "r1", "d1", "d2")
	s.EditingBlockID = "p2"
	s.AncestorsOfActive = models.NewIDSet("p3")
	return s
}

func TestHiddenIDs(t *testing.T) {
	s := snapshot()
	assert.Equal(t, []string{"p1"}, HiddenIDs(s, Options{}))
	assert.Equal(t, []string{"d1", "d2", "p1"}, HiddenIDs(s, Options{HideDone: true}))
}

func TestGenerate(t *testing.T) {
	css := Generate(snapshot(), Options{HideDone: true})
	want := "/* nowpanel: 3 hidden */\n" +
		`.ls-block[blockid="d1"],` + "\n" +
		`.ls-block[blockid="d2"],` + "\n" +
		`.ls-block[blockid="p1"] {` + "\n" +
		"  display: none !important;\n}\n"
	assert.Equal(t, want, css)
}

func TestGenerate_NothingToHide(t *testing.T) {
	assert.Empty(t, Generate(models.EmptySnapshot(), Options{HideDone: true}))
}

func TestSelector_Escapes(t *testing.T) {
	assert.Equal(t, `.ls-block[blockid="a\"b"]`, Selector(`a"b`))
}
