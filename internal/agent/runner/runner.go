// Package runner is the single entry point the HTTP, chat and evaluation
// surfaces use to run the agent on one user turn.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudwego/eino/schema"

	"github.com/cpap-support-agent/server/internal/agent/model"
	"github.com/cpap-support-agent/server/internal/agent/observers"
	errx "github.com/cpap-support-agent/server/internal/core/error"
	logx "github.com/cpap-support-agent/server/pkg/logger"
)

// FallbackResponse is returned when no final answer can be read from a run.
const FallbackResponse = "An internal error has occurred."

const workflowName = "resmed-support-agent"

// Engine produces the cumulative conversation snapshots of one agent turn.
type Engine interface {
	Stream(ctx context.Context, threadID, userInput string) (*schema.StreamReader[model.Snapshot], error)
}

// AgentExecutionError reports that the engine itself failed.
type AgentExecutionError struct {
	ThreadID string
	Err      error
}

func (e *AgentExecutionError) Error() string {
	return fmt.Sprintf("agent execution failed for thread %s: %v", e.ThreadID, e.Err)
}

func (e *AgentExecutionError) Unwrap() error {
	return e.Err
}

// Is matches errx.ErrAgentExecution whatever the engine returned.
func (e *AgentExecutionError) Is(target error) bool {
	return target == errx.ErrAgentExecution
}

// Runner extracts the final assistant answer from an engine run.
type Runner struct {
	engine Engine
}

func New(engine Engine) *Runner {
	return &Runner{engine: engine}
}

// Run drives the engine for one user turn. The newest snapshot whose last
// message is an assistant message without tool calls supplies the answer.
// When no such message exists, or its content cannot be read, the answer is
// FallbackResponse. Engine failures are returned as *AgentExecutionError.
func (r *Runner) Run(ctx context.Context, threadID, userInput string) (resp model.Response, err error) {
	ctx, span := observers.StartSpan(ctx, "workflow", workflowName)
	defer func() { span.End(err) }()

	snapshots, err := r.collect(ctx, threadID, userInput)
	if err != nil {
		logx.Error().Err(err).Str("thread_id", threadID).Msg("agent execution failed")
		return model.Response{}, &AgentExecutionError{ThreadID: threadID, Err: err}
	}

	answer, err := finalAnswer(snapshots)
	if err != nil {
		logx.Error().Err(err).Str("thread_id", threadID).Int("snapshots", len(snapshots)).
			Msg("could not extract final answer")
		return model.Response{Response: FallbackResponse}, nil
	}
	return model.Response{Response: answer}, nil
}

func (r *Runner) collect(ctx context.Context, threadID, userInput string) ([]model.Snapshot, error) {
	sr, err := r.engine.Stream(ctx, threadID, userInput)
	if err != nil {
		return nil, err
	}
	defer sr.Close()

	var snapshots []model.Snapshot
	for {
		s, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			return snapshots, nil
		}
		if err != nil {
			return nil, err
		}
		if last := s.Last(); last != nil {
			logx.Debug().Str("thread_id", threadID).Str("role", string(last.Role)).
				Int("tool_calls", len(last.ToolCalls)).Msg("agent step")
		}
		snapshots = append(snapshots, s)
	}
}

func finalAnswer(snapshots []model.Snapshot) (string, error) {
	for i := len(snapshots) - 1; i >= 0; i-- {
		msg := snapshots[i].Last()
		if msg == nil || msg.Role != schema.Assistant || len(msg.ToolCalls) > 0 {
			continue
		}
		return model.ContentOf(msg).String(), nil
	}
	return "", fmt.Errorf("%w: no final assistant message", errx.ErrExtraction)
}
