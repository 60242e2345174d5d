// internal/conversation/store_test.go
package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendquery/internal/common/cache"
	"spendquery/internal/common/logger"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := &cache.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	return NewStore(client, time.Hour, logger.NewTestLogger(t)), mr
}

func TestStore_TurnsForUnknownConversationIsEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	c, err := store.Turns(context.Background(), "nope")
	require.NoError(t, err)
	assert.Equal(t, "nope", c.ConversationID)
	assert.Empty(t, c.Turns)
}

func TestStore_AppendAndReadBack(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendTurn(ctx, "conv-1", Turn{
		Query:          "laptops agency:dod",
		FiltersApplied: map[string]string{"agency": "Department of Defense"},
		ResultCount:    12,
	}))
	require.NoError(t, store.AppendTurn(ctx, "conv-1", Turn{
		Query:       "servers",
		ResultCount: 80,
	}))

	c, err := store.Turns(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, c.Turns, 2)
	assert.Equal(t, "laptops agency:dod", c.Turns[0].Query)
	assert.Equal(t, 80, c.Turns[1].ResultCount)
}

func TestStore_HistoryIsBounded(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < maxStoredTurns+5; i++ {
		require.NoError(t, store.AppendTurn(ctx, "conv-1", Turn{Query: "q", ResultCount: i}))
	}

	c, err := store.Turns(ctx, "conv-1")
	require.NoError(t, err)
	assert.Len(t, c.Turns, maxStoredTurns)
	// Oldest turns are evicted first.
	assert.Equal(t, 5, c.Turns[0].ResultCount)
}

func TestStore_TTLRefreshedOnWrite(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendTurn(ctx, "conv-1", Turn{Query: "laptops"}))
	assert.Greater(t, mr.TTL("conversation:conv-1"), time.Duration(0))

	mr.FastForward(2 * time.Hour)

	c, err := store.Turns(ctx, "conv-1")
	require.NoError(t, err)
	assert.Empty(t, c.Turns)
}

func TestStore_CorruptHistoryStartsOver(t *testing.T) {
	store, mr := newTestStore(t)

	require.NoError(t, mr.Set("conversation:conv-1", "not json"))

	c, err := store.Turns(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Empty(t, c.Turns)
}

func TestStore_NilRedisIsNoOp(t *testing.T) {
	store := NewStore(nil, time.Hour, logger.NewNoOpLogger())
	ctx := context.Background()

	require.NoError(t, store.AppendTurn(ctx, "conv-1", Turn{Query: "laptops"}))
	c, err := store.Turns(ctx, "conv-1")
	require.NoError(t, err)
	assert.Empty(t, c.Turns)
}
