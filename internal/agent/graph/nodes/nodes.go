package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/cpap-support-agent/server/internal/agent/conversations"
	"github.com/cpap-support-agent/server/internal/agent/model"
	logx "github.com/cpap-support-agent/server/pkg/logger"
)

const (
	NodeInputConverter = "InputConverter"
	NodeChatModel      = "ChatModel"
	NodeToolExecutor   = "ToolExecutor"
)

// NewInputConverterPreHandler binds the run to its thread and resets the per-run counters.
func NewInputConverterPreHandler() func(context.Context, model.QueryInput, *model.AppState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.AppState) (model.QueryInput, error) {
		s.ThreadID = in.ThreadID
		s.History = nil
		s.ToolCallCount = 0
		s.ToolCallLimitReached = false
		s.ToolCallIDSeq = 0
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewInputConverterNode loads the thread's recent history, records the user
// turn and returns history plus the new user message.
func NewInputConverterNode(mm *conversations.MessagesManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.QueryInput) ([]*schema.Message, error) {
		history, err := mm.LoadRecent(ctx, input.ThreadID)
		if err != nil {
			return nil, fmt.Errorf("load thread history: %w", err)
		}
		if err := mm.SaveUserMessage(ctx, input.ThreadID, input.UserInput); err != nil {
			return nil, fmt.Errorf("save user message: %w", err)
		}
		return append(history, schema.UserMessage(input.UserInput)), nil
	})
}

// NewChatModelPreHandler folds the node input (the opening conversation, or
// the observations of the last tool round) into state and builds the model
// context: system prompt, history and, once the tool budget is spent, a
// wrap-up notice.
func NewChatModelPreHandler(systemPrompt string, maxToolCalls int) func(context.Context, []*schema.Message, *model.AppState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.AppState) ([]*schema.Message, error) {
		if len(state.History) == 0 {
			state.History = append(state.History, in...)
			publish(ctx, state)
		} else {
			for _, msg := range in {
				state.History = append(state.History, msg)
				publish(ctx, state)
			}
		}

		out := conversations.WithSystemPrompt(systemPrompt, state.History)
		checkAndMarkToolLimit(state, maxToolCalls)
		if state.ToolCallLimitReached {
			out = append(out, schema.SystemMessage(fmt.Sprintf(
				"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
					"Answer with the information you already have and say what you could not check.",
				normalizeMaxToolCalls(maxToolCalls),
			)))
		}

		logx.Debug().Str("thread_id", state.ThreadID).Int("messages", len(out)).Msg("AI thinking...")
		return out, nil
	}
}

// NewChatModelPostHandler records the model turn: cost bookkeeping, tool
// call id repair, the snapshot and, for final answers, persistence.
func NewChatModelPostHandler(mm *conversations.MessagesManager, modelName string) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		if out == nil {
			return nil, fmt.Errorf("chat model returned no message")
		}

		if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
			_, _, total := model.ComputeCost(out.ResponseMeta.Usage, model.ResolvePricing(modelName))
			state.TotalCostUSD += total
			if out.Extra == nil {
				out.Extra = map[string]any{}
			}
			out.Extra["usage_cost_total_usd"] = state.TotalCostUSD
		}

		// Some providers omit tool call ids; tool messages must reference one.
		for i := range out.ToolCalls {
			if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
				state.ToolCallIDSeq++
				out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
			}
		}

		state.History = append(state.History, out)
		publish(ctx, state)

		if len(out.ToolCalls) > 0 && !state.ToolCallLimitReached {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
			return out, nil
		}

		logx.Debug().Str("thread_id", state.ThreadID).Msg("AI response ready")
		if len(out.ToolCalls) == 0 {
			if err := mm.SaveResponse(ctx, state.ThreadID, model.ContentOf(out).String()); err != nil {
				logx.Error().Err(err).Str("thread_id", state.ThreadID).Msg("Error saving assistant response")
			}
		}
		return out, nil
	}
}

// NewToolExecutorCondition routes tool-calling turns to the tools node until
// the tool budget is spent.
func NewToolExecutorCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		var limitReached bool
		if err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			limitReached = state.ToolCallLimitReached
			return nil
		}); err != nil {
			return "", err
		}

		if limitReached {
			logx.Debug().Msg("Tool limit reached previously - routing to end")
			return compose.END, nil
		}
		if len(input.ToolCalls) > 0 {
			return NodeToolExecutor, nil
		}
		return compose.END, nil
	}
}

// NewToolExecutorPreHandler counts tool rounds against the limit.
func NewToolExecutorPreHandler(maxToolCalls int) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, in *schema.Message, state *model.AppState) (*schema.Message, error) {
		if incrementToolCallAndCheck(state, maxToolCalls) {
			logx.Warn().
				Int("tool_call_count", state.ToolCallCount).
				Int("max_tool_calls", normalizeMaxToolCalls(maxToolCalls)).
				Str("thread_id", state.ThreadID).
				Msg("Tool call limit exceeded - flagging and continuing")
		}
		return in, nil
	}
}

// UnknownToolHandler answers hallucinated tool names with an observation
// the model can recover from.
func UnknownToolHandler(ctx context.Context, name, input string) (string, error) {
	logx.Warn().Str("tool_name", name).Str("arguments", input).
		Msg("Unknown or invalid tool call; returning fallback result")
	return fmt.Sprintf("Tool '%s' does not exist. Available tools are listed in your instructions.", name), nil
}

// ToolArgumentsHandler trims argument strings and turns empty arguments into
// an empty JSON object.
func ToolArgumentsHandler(ctx context.Context, name, arguments string) (string, error) {
	arguments = strings.TrimSpace(arguments)
	if arguments == "" {
		return "{}", nil
	}
	return arguments, nil
}
