package panel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dotcommander/nowpanel/internal/models"
)

func TestBus_FiltersByKindAndDropsWhenFull(t *testing.T) {
	b := NewBus()
	allID, all := b.Subscribe(1)
	_, onlyTicks := b.Subscribe(4, models.EventLoopTick)

	b.Publish(models.Event{Kind: models.EventSnapshotPublished})
	b.Publish(models.Event{Kind: models.EventLoopTick, Loop: "fast"})

	first := <-all
	assert.Equal(t, models.EventSnapshotPublished, first.Kind)
	assert.Len(t, all, 0, "second event dropped, buffer was full")

	tick := <-onlyTicks
	assert.Equal(t, "fast", tick.Loop)
	assert.NotEmpty(t, tick.ID)

	b.Unsubscribe(allID)
	_, open := <-all
	assert.False(t, open)

	b.Close()
	_, open = <-onlyTicks
	assert.False(t, open)
}
