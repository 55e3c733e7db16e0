package repo

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryThreadsAreIsolated(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryConversationRepository(0)

	require.NoError(t, r.AddMessage(ctx, "a", schema.UserMessage("hello")))
	require.NoError(t, r.AddMessage(ctx, "a", schema.AssistantMessage("hi", nil)))
	require.NoError(t, r.AddMessage(ctx, "b", schema.UserMessage("other")))

	histA, err := r.LoadHistory(ctx, "a")
	require.NoError(t, err)
	require.Len(t, histA.Messages, 2)
	assert.Equal(t, "hello", histA.Messages[0].Content)
	assert.Equal(t, schema.Assistant, histA.Messages[1].Role)

	n, err := r.GetMessageCount(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, r.ClearHistory(ctx, "a"))
	histA, err = r.LoadHistory(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, histA.Messages)
}

func TestMemoryRepositoryCapsHistory(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryConversationRepository(2)

	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, r.AddMessage(ctx, "t", schema.UserMessage(text)))
	}

	hist, err := r.LoadHistory(ctx, "t")
	require.NoError(t, err)
	require.Len(t, hist.Messages, 2)
	assert.Equal(t, "two", hist.Messages[0].Content)
	assert.Equal(t, "three", hist.Messages[1].Content)
}

func TestRedisThreadKey(t *testing.T) {
	r := NewRedisConversationRepository(nil, RedisOptions{})
	assert.Equal(t, "cpap-agent:thread:abc:messages", r.threadKey("abc"))

	r = NewRedisConversationRepository(nil, RedisOptions{KeyPrefix: "eval"})
	assert.Equal(t, "eval:thread:abc:messages", r.threadKey("abc"))
}
