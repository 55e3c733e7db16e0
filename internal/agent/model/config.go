package model

// ================ Config ================
type ConversationConfig struct {
	TTL        string `envconfig:"CONVERSATION_TTL" default:"24h"`
	MaxHistory int    `envconfig:"CONVERSATION_MAX_HISTORY" default:"20"`
	Tools      struct {
		MaxCalls int `envconfig:"CONVERSATION_TOOL_MAX_CALLS" default:"10"`
	}
}

// Provider names accepted by LLM_PROVIDER.
const (
	ProviderOpenAI   = "openai"
	ProviderGemini   = "gemini"
	ProviderScripted = "scripted"
)

// LLMConfig configures the hosted chat endpoint the agent reasons with.
type LLMConfig struct {
	Provider    string  `envconfig:"LLM_PROVIDER" default:"openai"`
	Model       string  `envconfig:"LLM_MODEL" default:"openai-main/gpt-4o-mini"`
	APIKey      string  `envconfig:"TFY_API_KEY"`
	BaseURL     string  `envconfig:"LLM_GATEWAY_URL" default:"https://llm-gateway.truefoundry.com/api/inference/openai"`
	MaxTokens   int     `envconfig:"LLM_MAX_TOKENS" default:"256"`
	Temperature float32 `envconfig:"LLM_TEMPERATURE" default:"0.1"`
	// ScriptPath points at the YAML replies replayed by the scripted provider.
	ScriptPath string `envconfig:"LLM_SCRIPT_PATH" default:"evaluation/scripted_replies.yaml"`
}
