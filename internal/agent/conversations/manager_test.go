package conversations

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpap-support-agent/server/internal/agent/model"
	"github.com/cpap-support-agent/server/internal/agent/repo"
)

func TestMessagesManagerRoundTrip(t *testing.T) {
	ctx := context.Background()
	mm := NewMessagesManager(repo.NewMemoryConversationRepository(0), model.ConversationConfig{MaxHistory: 2})

	require.NoError(t, mm.SaveUserMessage(ctx, "t1", "Check my AirSense 10"))
	require.NoError(t, mm.SaveResponse(ctx, "t1", "You are compliant."))
	require.NoError(t, mm.SaveResponse(ctx, "t1", "   "))
	require.NoError(t, mm.SaveUserMessage(ctx, "t1", "Thanks"))

	recent, err := mm.LoadRecent(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "You are compliant.", recent[0].Content)
	assert.Equal(t, "Thanks", recent[1].Content)
}

func TestWithSystemPrompt(t *testing.T) {
	msgs := WithSystemPrompt("be kind", []*schema.Message{schema.UserMessage("hi")})
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, "be kind", msgs[0].Content)
	assert.Equal(t, schema.User, msgs[1].Role)
}

func TestTrimTail(t *testing.T) {
	msgs := []*schema.Message{schema.UserMessage("a"), schema.UserMessage("b"), schema.UserMessage("c")}

	assert.Len(t, trimTail(msgs, 0), 3)
	assert.Len(t, trimTail(msgs, 5), 3)

	tail := trimTail(msgs, 1)
	require.Len(t, tail, 1)
	assert.Equal(t, "c", tail[0].Content)
}
