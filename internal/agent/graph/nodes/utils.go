package nodes

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/cpap-support-agent/server/internal/agent/model"
)

const DefaultMaxToolCalls = 10

// normalizeMaxToolCalls returns a sane default when the provided value is invalid.
func normalizeMaxToolCalls(n int) int {
	if n <= 0 {
		return DefaultMaxToolCalls
	}
	return n
}

// checkAndMarkToolLimit marks the state once the tool budget is spent.
// Returns true only on the call that marks it.
func checkAndMarkToolLimit(state *model.AppState, max int) bool {
	max = normalizeMaxToolCalls(max)
	if !state.ToolCallLimitReached && state.ToolCallCount >= max {
		state.ToolCallLimitReached = true
		return true
	}
	return false
}

// incrementToolCallAndCheck counts one tool round and reports whether it went
// over the limit.
func incrementToolCallAndCheck(state *model.AppState, max int) bool {
	max = normalizeMaxToolCalls(max)
	state.ToolCallCount++
	if state.ToolCallCount > max {
		state.ToolCallLimitReached = true
		return true
	}
	return false
}

// SnapshotSink receives every cumulative view of the conversation a run produces.
type SnapshotSink func(model.Snapshot)

type sinkKey struct{}

// WithSnapshotSink attaches sink to ctx; the graph's handlers publish to it.
func WithSnapshotSink(ctx context.Context, sink SnapshotSink) context.Context {
	return context.WithValue(ctx, sinkKey{}, sink)
}

func publish(ctx context.Context, state *model.AppState) {
	sink, _ := ctx.Value(sinkKey{}).(SnapshotSink)
	if sink == nil {
		return
	}
	msgs := make([]*schema.Message, len(state.History))
	copy(msgs, state.History)
	sink(model.Snapshot{Messages: msgs})
}
