package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/tool"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// newToolHandler wraps every tool invocation in a "tool" span.
func newToolHandler() *callbackHelper.ToolCallbackHandler {
	return &callbackHelper.ToolCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *tool.CallbackInput) context.Context {
			ctx, span := StartSpan(ctx, "tool", info.Name)
			if input != nil {
				logEvent(span).Str("arguments", input.ArgumentsInJSON).Msg("tool start")
			}
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *tool.CallbackOutput) context.Context {
			span := SpanFromContext(ctx)
			if output != nil {
				logEvent(span).Str("observation", output.Response).Msg("tool end")
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
