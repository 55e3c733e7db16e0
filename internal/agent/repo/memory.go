package repo

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/schema"

	"github.com/cpap-support-agent/server/internal/agent/model"
)

// MemoryConversationRepository keeps threads in process memory. It backs
// local runs and the evaluation harness when no Redis URL is configured.
type MemoryConversationRepository struct {
	mu          sync.RWMutex
	threads     map[string][]*schema.Message
	maxMessages int
}

func NewMemoryConversationRepository(maxMessages int) *MemoryConversationRepository {
	return &MemoryConversationRepository{
		threads:     make(map[string][]*schema.Message),
		maxMessages: maxMessages,
	}
}

func (r *MemoryConversationRepository) AddMessage(_ context.Context, threadID string, message *schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := append(r.threads[threadID], message)
	if r.maxMessages > 0 && len(msgs) > r.maxMessages {
		msgs = append([]*schema.Message(nil), msgs[len(msgs)-r.maxMessages:]...)
	}
	r.threads[threadID] = msgs
	return nil
}

func (r *MemoryConversationRepository) LoadHistory(_ context.Context, threadID string) (*model.ConversationHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := make([]*schema.Message, len(r.threads[threadID]))
	copy(msgs, r.threads[threadID])
	return &model.ConversationHistory{ThreadID: threadID, Messages: msgs}, nil
}

func (r *MemoryConversationRepository) ClearHistory(_ context.Context, threadID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.threads, threadID)
	return nil
}

func (r *MemoryConversationRepository) GetMessageCount(_ context.Context, threadID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.threads[threadID]), nil
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)
