package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpap-support-agent/server/internal/agent/model"
	"github.com/cpap-support-agent/server/internal/config"
	"github.com/cpap-support-agent/server/internal/devices"
)

const script = `
default: "I can help with your CPAP device."
rules:
  - match: airsense 10
    turns:
      - tool_calls:
          - name: check_device_compliance
            arguments: '{"model_name": "airsense 10"}'
      - content: "Your AirSense 10 is COMPLIANT with 32.5 hours last week."
`

func TestNewRunsScriptedAgentEndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o600))

	cfg := config.AppConfig{
		LLM:          model.LLMConfig{Provider: model.ProviderScripted, Model: "scripted", ScriptPath: path},
		Conversation: model.ConversationConfig{TTL: "1h", MaxHistory: 20},
		Compliance:   devices.DefaultThresholds(),
	}
	cfg.Conversation.Tools.MaxCalls = 5

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	resp, err := a.Runner.Run(context.Background(), "thread-e2e", "Is my AirSense 10 compliant?")
	require.NoError(t, err)
	assert.Equal(t, "Your AirSense 10 is COMPLIANT with 32.5 hours last week.", resp.Response)

	resp, err = a.Runner.Run(context.Background(), "thread-e2e", "thanks")
	require.NoError(t, err)
	assert.Equal(t, "I can help with your CPAP device.", resp.Response)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.AppConfig{
		LLM:          model.LLMConfig{Provider: "nope"},
		Conversation: model.ConversationConfig{TTL: "1h"},
	})
	assert.Error(t, err)
}
