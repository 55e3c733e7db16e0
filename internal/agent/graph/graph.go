// Package graph compiles the support agent's tool-calling loop on an Eino
// compose graph and exposes it as a stream of conversation snapshots.
package graph

import (
	"context"
	"fmt"

	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/cpap-support-agent/server/internal/agent/conversations"
	"github.com/cpap-support-agent/server/internal/agent/graph/nodes"
	"github.com/cpap-support-agent/server/internal/agent/model"
	"github.com/cpap-support-agent/server/internal/agent/observers"
	"github.com/cpap-support-agent/server/internal/agent/tools"
	errx "github.com/cpap-support-agent/server/internal/core/error"
	logx "github.com/cpap-support-agent/server/pkg/logger"
)

// Config holds everything needed to compose the agent graph.
type Config struct {
	ChatModel       einomodel.ToolCallingChatModel
	ModelName       string
	Tools           []tool.BaseTool
	MessagesManager *conversations.MessagesManager
	SystemPrompt    string
	ToolMaxCalls    int
}

// Engine runs one agent turn per Stream call.
type Engine struct {
	runnable  compose.Runnable[model.QueryInput, *schema.Message]
	callbacks einocb.Handler
}

// GraphBuilder handles the construction of the agent graph.
type GraphBuilder struct {
	config *Config
	graph  *compose.Graph[model.QueryInput, *schema.Message]
}

// NewEngine validates cfg, binds the tools to the chat model and compiles the graph.
func NewEngine(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.ChatModel == nil {
		return nil, fmt.Errorf("chat model is nil")
	}
	if cfg.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}

	builder := &GraphBuilder{
		config: &cfg,
		graph: compose.NewGraph[model.QueryInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	chatModel, err := builder.setupTools(ctx)
	if err != nil {
		return nil, err
	}
	if err := builder.addNodes(chatModel); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}
	runnable, err := builder.compile(ctx)
	if err != nil {
		return nil, err
	}

	return &Engine{
		runnable:  runnable,
		callbacks: observers.NewAllCallbacks(cfg.ModelName),
	}, nil
}

// Stream starts the agent on one user turn and returns the cumulative
// snapshots it produces: first the history plus the user turn, then one per
// model or tool message. A failed run ends the stream with an agent
// execution error.
func (e *Engine) Stream(ctx context.Context, threadID, userInput string) (*schema.StreamReader[model.Snapshot], error) {
	sr, sw := schema.Pipe[model.Snapshot](8)

	go func() {
		defer sw.Close()
		defer func() {
			if r := recover(); r != nil {
				logx.Error().Interface("panic", r).Str("thread_id", threadID).Msg("agent run panicked")
				sw.Send(model.Snapshot{}, errx.WrapAgent(fmt.Errorf("panic: %v", r)))
			}
		}()

		runCtx := nodes.WithSnapshotSink(ctx, func(s model.Snapshot) {
			sw.Send(s, nil)
		})
		_, err := e.runnable.Invoke(runCtx, model.QueryInput{
			ThreadID:  threadID,
			UserInput: userInput,
		}, compose.WithCallbacks(e.callbacks))
		if err != nil {
			sw.Send(model.Snapshot{}, errx.WrapAgent(err))
		}
	}()

	return sr, nil
}

// setupTools creates the tools node and returns the chat model with the tool schemas bound.
func (b *GraphBuilder) setupTools(ctx context.Context) (einomodel.ToolCallingChatModel, error) {
	toolInfos, err := tools.GetToolInfos(ctx, b.config.Tools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get tool infos")
		return nil, fmt.Errorf("failed to get tool infos: %w", err)
	}

	chatModel, err := b.config.ChatModel.WithTools(toolInfos)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools to chat model")
		return nil, fmt.Errorf("failed to bind tools to chat model: %w", err)
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:                b.config.Tools,
		ExecuteSequentially:  true,
		UnknownToolsHandler:  nodes.UnknownToolHandler,
		ToolArgumentsHandler: nodes.ToolArgumentsHandler,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return nil, fmt.Errorf("failed to create tools node: %w", err)
	}

	if err := b.graph.AddToolsNode(nodes.NodeToolExecutor, toolsNode,
		compose.WithStatePreHandler(nodes.NewToolExecutorPreHandler(b.config.ToolMaxCalls)),
	); err != nil {
		return nil, fmt.Errorf("add tools node: %w", err)
	}
	return chatModel, nil
}

func (b *GraphBuilder) addNodes(chatModel einomodel.ToolCallingChatModel) error {
	if err := b.graph.AddLambdaNode(nodes.NodeInputConverter,
		nodes.NewInputConverterNode(b.config.MessagesManager),
		compose.WithStatePreHandler(nodes.NewInputConverterPreHandler()),
	); err != nil {
		return fmt.Errorf("add input converter node: %w", err)
	}

	if err := b.graph.AddChatModelNode(nodes.NodeChatModel, chatModel,
		compose.WithStatePreHandler(nodes.NewChatModelPreHandler(b.config.SystemPrompt, b.config.ToolMaxCalls)),
		compose.WithStatePostHandler(nodes.NewChatModelPostHandler(b.config.MessagesManager, b.config.ModelName)),
	); err != nil {
		return fmt.Errorf("add chat model node: %w", err)
	}
	return nil
}

func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeInputConverter},
		{nodes.NodeInputConverter, nodes.NodeChatModel},
		{nodes.NodeToolExecutor, nodes.NodeChatModel},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("add edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

func (b *GraphBuilder) addBranches() error {
	decisionBranch := compose.NewGraphBranch(
		nodes.NewToolExecutorCondition(),
		map[string]bool{
			nodes.NodeToolExecutor: true,
			compose.END:            true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeChatModel, decisionBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding decision branch")
		return fmt.Errorf("error adding decision branch: %w", err)
	}
	return nil
}

func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	// Each tool round costs two steps; keep headroom for the final answer.
	maxSteps := 10 + b.config.ToolMaxCalls*2
	if maxSteps < 20 {
		maxSteps = 20
	}

	runnable, err := b.graph.Compile(ctx,
		compose.WithMaxRunSteps(maxSteps),
		compose.WithGraphName("cpap-support-agent"),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
