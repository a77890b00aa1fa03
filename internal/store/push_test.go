package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushSubscriptions_SaveListDelete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, SavePushSubscription(ctx, db, "https://push.example/a", "k1", "a1"))
	require.NoError(t, SavePushSubscription(ctx, db, "https://push.example/b", "k2", "a2"))
	require.NoError(t, SavePushSubscription(ctx, db, "https://push.example/a", "k3", "a3"))

	subs, err := ListPushSubscriptions(ctx, db)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "k3", subs[0].P256dh)
	assert.False(t, subs[0].CreatedAt.IsZero())

	removed, err := DeletePushSubscription(ctx, db, "https://push.example/a")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = DeletePushSubscription(ctx, db, "https://push.example/a")
	require.NoError(t, err)
	assert.False(t, removed)
}
