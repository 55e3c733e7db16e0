package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/prompt"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/cpap-support-agent/server/pkg/logger"
)

func newPromptHandler() *callbackHelper.PromptCallbackHandler {
	return &callbackHelper.PromptCallbackHandler{
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *prompt.CallbackOutput) context.Context {
			if output != nil && len(output.Result) > 0 && output.Result[0] != nil {
				logx.Debug().Str("name", info.Name).Int("rendered_len", len(output.Result[0].Content)).Msg("prompt rendered")
			}
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("name", info.Name).Msg("prompt render failed")
			return ctx
		},
	}
}

// WithPromptObserver returns ctx carrying the prompt observer, for templates
// rendered outside an agent run (the system prompt is rendered once at startup).
func WithPromptObserver(ctx context.Context, name string) context.Context {
	return einocb.InitCallbacks(ctx,
		&einocb.RunInfo{Name: name, Component: components.ComponentOfPrompt},
		callbackHelper.NewHandlerHelper().Prompt(newPromptHandler()).Handler(),
	)
}
