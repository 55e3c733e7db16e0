package model

import "github.com/cloudwego/eino/schema"

// AppState is the per-run graph state. History holds the thread's messages
// (recent history, the user turn, then every model and tool message of the
// run) without the system prompt.
type AppState struct {
	ThreadID             string
	History              []*schema.Message
	ToolCallCount        int
	ToolCallLimitReached bool
	ToolCallIDSeq        int
	TotalCostUSD         float64
}
