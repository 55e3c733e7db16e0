package runner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpap-support-agent/server/internal/agent/model"
	errx "github.com/cpap-support-agent/server/internal/core/error"
)

type fakeEngine struct {
	snapshots []model.Snapshot
	streamErr error
	startErr  error
}

func (f *fakeEngine) Stream(_ context.Context, _, _ string) (*schema.StreamReader[model.Snapshot], error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	sr, sw := schema.Pipe[model.Snapshot](len(f.snapshots) + 1)
	go func() {
		defer sw.Close()
		for _, s := range f.snapshots {
			sw.Send(s, nil)
		}
		if f.streamErr != nil {
			sw.Send(model.Snapshot{}, f.streamErr)
		}
	}()
	return sr, nil
}

func snapshots(msgs ...*schema.Message) []model.Snapshot {
	out := make([]model.Snapshot, 0, len(msgs))
	for i := range msgs {
		out = append(out, model.Snapshot{Messages: msgs[:i+1]})
	}
	return out
}

func toolCall(name string) *schema.Message {
	return schema.AssistantMessage("", []schema.ToolCall{{ID: "call_1", Function: schema.FunctionCall{Name: name}}})
}

func TestRunReturnsFinalAssistantText(t *testing.T) {
	r := New(&fakeEngine{snapshots: snapshots(
		schema.UserMessage("Is my AirMini compliant?"),
		toolCall("check_device_compliance"),
		schema.ToolMessage("Compliance Status: NON-COMPLIANT.", "call_1"),
		schema.AssistantMessage("You are not compliant.", nil),
	)})

	resp, err := r.Run(context.Background(), "t1", "Is my AirMini compliant?")
	require.NoError(t, err)
	assert.Equal(t, "You are not compliant.", resp.Response)
}

func TestRunPicksNewestQualifyingSnapshot(t *testing.T) {
	r := New(&fakeEngine{snapshots: snapshots(
		schema.UserMessage("hi"),
		schema.AssistantMessage("first", nil),
		schema.UserMessage("again"),
		schema.AssistantMessage("second", nil),
		toolCall("list_available_devices"),
	)})

	resp, err := r.Run(context.Background(), "t1", "again")
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Response)
}

func TestRunJoinsContentParts(t *testing.T) {
	final := &schema.Message{
		Role: schema.Assistant,
		MultiContent: []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeText, Text: "Check the"},
			{Type: schema.ChatMessagePartTypeText, Text: "filter."},
		},
	}
	r := New(&fakeEngine{snapshots: snapshots(schema.UserMessage("clicking"), final)})

	resp, err := r.Run(context.Background(), "t1", "clicking")
	require.NoError(t, err)
	assert.Equal(t, "Check the filter.", resp.Response)
}

func TestRunStringifiesUnknownParts(t *testing.T) {
	final := &schema.Message{
		Role:    schema.Assistant,
		Content: "Replace the filter.",
		MultiContent: []schema.ChatMessagePart{
			{Type: "citation", Text: "AirSense 10 manual"},
		},
	}
	r := New(&fakeEngine{snapshots: snapshots(schema.UserMessage("clicking"), final)})

	resp, err := r.Run(context.Background(), "t1", "clicking")
	require.NoError(t, err)
	assert.NotEqual(t, FallbackResponse, resp.Response)
	assert.True(t, strings.HasPrefix(resp.Response, "Replace the filter. "), resp.Response)
	assert.Contains(t, resp.Response, "AirSense 10 manual")
}

func TestRunFallsBackWithoutFinalAnswer(t *testing.T) {
	cases := map[string][]model.Snapshot{
		"empty stream":       nil,
		"only tool calls":    snapshots(schema.UserMessage("x"), toolCall("list_available_devices")),
		"ends on tool reply": snapshots(schema.UserMessage("x"), schema.ToolMessage("obs", "call_1")),
	}
	for name, snaps := range cases {
		t.Run(name, func(t *testing.T) {
			resp, err := New(&fakeEngine{snapshots: snaps}).Run(context.Background(), "t1", "x")
			require.NoError(t, err)
			assert.Equal(t, FallbackResponse, resp.Response)
		})
	}
}

func TestRunReturnsAgentExecutionError(t *testing.T) {
	boom := errors.New("gateway unavailable")

	for name, engine := range map[string]*fakeEngine{
		"stream error": {snapshots: snapshots(schema.UserMessage("x")), streamErr: errx.WrapAgent(boom)},
		"start error":  {startErr: boom},
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := New(engine).Run(context.Background(), "t1", "x")
			require.Error(t, err)
			assert.Empty(t, resp.Response)

			var execErr *AgentExecutionError
			require.ErrorAs(t, err, &execErr)
			assert.Equal(t, "t1", execErr.ThreadID)
			assert.ErrorIs(t, err, errx.ErrAgentExecution)
			assert.ErrorIs(t, err, boom)
		})
	}
}
