package llm

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptedChatModelFollowsTurns(t *testing.T) {
	ctx := context.Background()
	m := NewScriptedChatModel(Script{
		Rules: []ScriptedRule{{
			Match: "compliance",
			Turns: []ScriptedTurn{
				{ToolCalls: []ScriptedToolCall{{Name: "check_device_compliance", Arguments: `{"model_name":"AirSense 10"}`}}},
				{Content: "You are COMPLIANT."},
			},
		}},
		Default: "How can I help?",
	})

	history := []*schema.Message{
		schema.SystemMessage("sys"),
		schema.UserMessage("Check my Compliance please"),
	}
	first, err := m.Generate(ctx, history)
	require.NoError(t, err)
	require.Len(t, first.ToolCalls, 1)
	assert.Equal(t, "check_device_compliance", first.ToolCalls[0].Function.Name)
	assert.NotEmpty(t, first.ToolCalls[0].ID)

	history = append(history, first, schema.ToolMessage("Compliance Status: COMPLIANT.", first.ToolCalls[0].ID))
	second, err := m.Generate(ctx, history)
	require.NoError(t, err)
	assert.Empty(t, second.ToolCalls)
	assert.Equal(t, "You are COMPLIANT.", second.Content)

	history = append(history, second)
	third, err := m.Generate(ctx, history)
	require.NoError(t, err)
	assert.Equal(t, "How can I help?", third.Content, "script exhausted falls back to the default")

	other, err := m.Generate(ctx, []*schema.Message{schema.UserMessage("hello")})
	require.NoError(t, err)
	assert.Equal(t, "How can I help?", other.Content)
	assert.Equal(t, 4, m.Calls())
}

func TestLoadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default: "fallback"
rules:
  - match: clicking
    turns:
      - parts: ["Check the", "filter."]
`), 0o600))

	m, err := LoadScript(path)
	require.NoError(t, err)

	msg, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("loud CLICKING noise")})
	require.NoError(t, err)
	require.Len(t, msg.MultiContent, 2)
	assert.Equal(t, "filter.", msg.MultiContent[1].Text)

	_, err = LoadScript(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
