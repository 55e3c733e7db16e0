package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/cpap-support-agent/server/internal/agent/model"
	logx "github.com/cpap-support-agent/server/pkg/logger"
)

// NewChatModel builds the tool-calling chat model selected by cfg.Provider.
func NewChatModel(ctx context.Context, cfg model.LLMConfig) (einomodel.ToolCallingChatModel, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case model.ProviderOpenAI, "":
		return NewOpenAIChatModel(cfg)
	case model.ProviderGemini:
		return newGeminiChatModel(ctx, cfg)
	case model.ProviderScripted:
		return LoadScript(cfg.ScriptPath)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func newGeminiChatModel(ctx context.Context, cfg model.LLMConfig) (*gemini.ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini provider requires an API key")
	}
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	// The default base URL points at the OpenAI gateway; only a Gemini endpoint override applies here.
	if cfg.BaseURL != "" && strings.Contains(cfg.BaseURL, "generativelanguage") {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(512)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini chat model")
		return nil, fmt.Errorf("error creating Gemini chat model: %w", err)
	}
	return chatModel, nil
}
