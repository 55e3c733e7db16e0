package evaluation

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cpap-support-agent/server/internal/agent/model"
	logx "github.com/cpap-support-agent/server/pkg/logger"
)

// Agent runs one user turn on a thread.
type Agent interface {
	Run(ctx context.Context, threadID, userInput string) (model.Response, error)
}

// Harness evaluates scenarios against an Agent.
type Harness struct {
	agent Agent
	// newThreadID is swapped in tests.
	newThreadID func() string
}

func NewHarness(agent Agent) *Harness {
	return &Harness{agent: agent, newThreadID: uuid.NewString}
}

// Run evaluates every scenario concurrently, each on a fresh thread. A failed
// invocation fails only its own scenario; nothing is retried. Results keep
// the scenario order.
func (h *Harness) Run(ctx context.Context, scenarios []Scenario) Report {
	results := make([]Result, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	for i, s := range scenarios {
		g.Go(func() error {
			results[i] = h.evaluate(ctx, s)
			return nil
		})
	}
	_ = g.Wait()

	return NewReport(results)
}

func (h *Harness) evaluate(ctx context.Context, s Scenario) Result {
	threadID := h.newThreadID()
	logx.Debug().Str("scenario_id", s.ScenarioID).Str("thread_id", threadID).Msg("running scenario")

	resp, err := h.agent.Run(ctx, threadID, s.Input)
	if err != nil {
		logx.Warn().Err(err).Str("scenario_id", s.ScenarioID).Msg("scenario invocation failed")
		return Failed(s, err)
	}
	return Score(s, resp.Response)
}
