package conversations

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/cpap-support-agent/server/internal/agent/model"
)

// MessagesManager owns the thread-scoped memory the agent runtime reads
// before each turn and writes after it.
type MessagesManager struct {
	conversationRepo model.ConversationRepository
	maxHistory       int
}

func NewMessagesManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	return &MessagesManager{
		conversationRepo: conversationRepo,
		maxHistory:       config.MaxHistory,
	}
}

// LoadRecent returns the newest messages of the thread, oldest first.
func (mm *MessagesManager) LoadRecent(ctx context.Context, threadID string) ([]*schema.Message, error) {
	history, err := mm.conversationRepo.LoadHistory(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return trimTail(history.Messages, mm.maxHistory), nil
}

// SaveUserMessage records the user's turn.
func (mm *MessagesManager) SaveUserMessage(ctx context.Context, threadID, query string) error {
	return mm.conversationRepo.AddMessage(ctx, threadID, schema.UserMessage(query))
}

// SaveResponse records the final assistant answer. Intermediate tool-call
// turns are not persisted, so reloaded history never holds dangling tool calls.
func (mm *MessagesManager) SaveResponse(ctx context.Context, threadID, content string) error {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	return mm.conversationRepo.AddMessage(ctx, threadID, schema.AssistantMessage(content, nil))
}

// WithSystemPrompt prepends the system instruction to msgs.
func WithSystemPrompt(systemPrompt string, msgs []*schema.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(msgs)+1)
	out = append(out, schema.SystemMessage(systemPrompt))
	return append(out, msgs...)
}

// ====================== Helper function ======================
func trimTail(messages []*schema.Message, maxMessages int) []*schema.Message {
	if maxMessages <= 0 || len(messages) <= maxMessages {
		result := make([]*schema.Message, len(messages))
		copy(result, messages)
		return result
	}
	source := messages[len(messages)-maxMessages:]
	result := make([]*schema.Message, len(source))
	copy(result, source)
	return result
}
