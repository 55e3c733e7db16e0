// Package app wires the configured collaborators into a ready-to-use agent.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cpap-support-agent/server/internal/agent/conversations"
	"github.com/cpap-support-agent/server/internal/agent/graph"
	"github.com/cpap-support-agent/server/internal/agent/llm"
	"github.com/cpap-support-agent/server/internal/agent/model"
	"github.com/cpap-support-agent/server/internal/agent/observers"
	"github.com/cpap-support-agent/server/internal/agent/prompts"
	"github.com/cpap-support-agent/server/internal/agent/repo"
	"github.com/cpap-support-agent/server/internal/agent/runner"
	"github.com/cpap-support-agent/server/internal/agent/tools"
	"github.com/cpap-support-agent/server/internal/config"
	"github.com/cpap-support-agent/server/internal/devices"
	logx "github.com/cpap-support-agent/server/pkg/logger"
)

// App holds the singletons built once at startup and shared read-only by
// every surface.
type App struct {
	Registry *devices.Registry
	Runner   *runner.Runner

	rdb *redis.Client
}

// New builds the registry, conversation store, chat model and agent graph.
func New(ctx context.Context, cfg config.AppConfig) (*App, error) {
	registry := devices.DefaultRegistry(devices.WithThresholds(cfg.Compliance))

	a := &App{Registry: registry}
	conversationRepo, err := a.conversationRepo(ctx, cfg)
	if err != nil {
		return nil, err
	}

	chatModel, err := llm.NewChatModel(ctx, cfg.LLM)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("chat model: %w", err)
	}

	systemPrompt, err := prompts.RenderSystem(observers.WithPromptObserver(ctx, "system_prompt"), registry.Thresholds())
	if err != nil {
		a.Close()
		return nil, err
	}

	engine, err := graph.NewEngine(ctx, graph.Config{
		ChatModel:       chatModel,
		ModelName:       cfg.LLM.Model,
		Tools:           tools.GetDeviceTools(registry),
		MessagesManager: conversations.NewMessagesManager(conversationRepo, cfg.Conversation),
		SystemPrompt:    systemPrompt,
		ToolMaxCalls:    cfg.Conversation.Tools.MaxCalls,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("agent graph: %w", err)
	}

	a.Runner = runner.New(engine)
	logx.Info().
		Str("provider", cfg.LLM.Provider).
		Str("model", cfg.LLM.Model).
		Strs("devices", registry.ListModelNames()).
		Msg("agent ready")
	return a, nil
}

func (a *App) conversationRepo(ctx context.Context, cfg config.AppConfig) (model.ConversationRepository, error) {
	if !cfg.Redis.Enabled() {
		logx.Info().Msg("REDIS_URL not set; keeping conversations in memory")
		return repo.NewMemoryConversationRepository(cfg.Conversation.MaxHistory * 2), nil
	}

	ttl, err := cfg.ConversationTTL()
	if err != nil {
		return nil, err
	}
	rdb, err := cfg.Redis.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise Redis client: %w", err)
	}
	a.rdb = rdb
	logx.Info().Msg("Connected to Redis successfully")

	return repo.NewRedisConversationRepository(rdb, repo.RedisOptions{
		TTL:         ttl,
		MaxMessages: cfg.Conversation.MaxHistory * 2,
	}), nil
}

// Close releases the Redis connection, if any.
func (a *App) Close() {
	if a.rdb == nil {
		return
	}
	if err := a.rdb.Close(); err != nil {
		logx.Warn().Err(err).Msg("closing redis client")
	}
	a.rdb = nil
}
