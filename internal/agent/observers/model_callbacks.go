package observers

import (
	"context"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
	"github.com/rs/zerolog"

	agentmodel "github.com/cpap-support-agent/server/internal/agent/model"
	logx "github.com/cpap-support-agent/server/pkg/logger"
)

// newModelHandler logs each model step and the token cost it incurred.
func newModelHandler(modelName string) *callbackHelper.ModelCallbackHandler {
	pricing := agentmodel.ResolvePricing(modelName)
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			ctx, span := StartSpan(ctx, "task", info.Name)
			if input != nil {
				logEvent(span).Int("messages", len(input.Messages)).Msg("model start")
			}
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			span := SpanFromContext(ctx)
			if output != nil && output.Message != nil {
				ev := logEvent(span).
					Int("tool_calls", len(output.Message.ToolCalls)).
					Str("content", strings.TrimSpace(output.Message.Content))
				if usage := tokenUsage(output); usage != nil {
					in, out, total := agentmodel.ComputeCost(usage, pricing)
					ev = ev.Str("model", modelName).
						Int("prompt_tokens", usage.PromptTokens).
						Int("completion_tokens", usage.CompletionTokens).
						Float64("input_cost_usd", in).
						Float64("output_cost_usd", out).
						Float64("total_cost_usd", total)
				}
				ev.Msg("model end")
			}
			span.End(nil)
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			SpanFromContext(ctx).End(err)
			return ctx
		},
	}
}

func logEvent(span *Span) *zerolog.Event {
	ev := logx.Debug()
	if span != nil {
		ev = ev.Str("span_id", span.ID).Str("name", span.Name)
	}
	return ev
}

// tokenUsage prefers the usage reported through the callback and falls back
// to the message's response meta for models without native callbacks.
func tokenUsage(output *model.CallbackOutput) *schema.TokenUsage {
	if u := output.TokenUsage; u != nil {
		return &schema.TokenUsage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	if meta := output.Message.ResponseMeta; meta != nil {
		return meta.Usage
	}
	return nil
}
