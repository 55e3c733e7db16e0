package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"gopkg.in/yaml.v3"
)

// ScriptedToolCall is one tool invocation an assistant turn requests.
type ScriptedToolCall struct {
	Name      string `yaml:"name"`
	Arguments string `yaml:"arguments"`
}

// ScriptedTurn is one assistant reply: either tool calls or final content.
type ScriptedTurn struct {
	Content   string             `yaml:"content"`
	Parts     []string           `yaml:"parts"`
	ToolCalls []ScriptedToolCall `yaml:"tool_calls"`
}

// ScriptedRule replays Turns when the latest user message contains Match
// (case-insensitive). An empty Match matches everything.
type ScriptedRule struct {
	Match string         `yaml:"match"`
	Turns []ScriptedTurn `yaml:"turns"`
}

// Script is the YAML document loaded by the scripted provider.
type Script struct {
	Rules   []ScriptedRule `yaml:"rules"`
	Default string         `yaml:"default"`
}

// ScriptedChatModel replays canned assistant turns. It is stateless across
// threads: the position inside a rule is the number of assistant messages
// since the latest user message, so the same script serves any number of
// concurrent conversations.
type ScriptedChatModel struct {
	script Script
	calls  atomic.Int64
}

func NewScriptedChatModel(script Script) *ScriptedChatModel {
	return &ScriptedChatModel{script: script}
}

// LoadScript reads a Script from a YAML file.
func LoadScript(path string) (*ScriptedChatModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read llm script: %w", err)
	}
	var script Script
	if err := yaml.Unmarshal(raw, &script); err != nil {
		return nil, fmt.Errorf("parse llm script %s: %w", path, err)
	}
	return NewScriptedChatModel(script), nil
}

// Calls reports how many times Generate or Stream ran.
func (m *ScriptedChatModel) Calls() int {
	return int(m.calls.Load())
}

func (m *ScriptedChatModel) WithTools(_ []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return m, nil
}

func (m *ScriptedChatModel) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	m.calls.Add(1)

	query, step := latestUserTurn(input)
	lowered := strings.ToLower(query)
	for _, rule := range m.script.Rules {
		if !strings.Contains(lowered, strings.ToLower(rule.Match)) {
			continue
		}
		if step < len(rule.Turns) {
			return rule.Turns[step].message(step), nil
		}
		break
	}
	return schema.AssistantMessage(m.script.Default, nil), nil
}

func (m *ScriptedChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (t ScriptedTurn) message(step int) *schema.Message {
	msg := schema.AssistantMessage(t.Content, nil)
	for _, p := range t.Parts {
		msg.MultiContent = append(msg.MultiContent, schema.ChatMessagePart{
			Type: schema.ChatMessagePartTypeText,
			Text: p,
		})
	}
	for i, tc := range t.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, schema.ToolCall{
			ID:   fmt.Sprintf("call_%d_%d", step+1, i+1),
			Type: "function",
			Function: schema.FunctionCall{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}
	return msg
}

// latestUserTurn returns the newest user message and how many assistant
// messages followed it.
func latestUserTurn(input []*schema.Message) (string, int) {
	step := 0
	for i := len(input) - 1; i >= 0; i-- {
		msg := input[i]
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.User:
			return msg.Content, step
		case schema.Assistant:
			step++
		}
	}
	return "", step
}

var _ einomodel.ToolCallingChatModel = (*ScriptedChatModel)(nil)
