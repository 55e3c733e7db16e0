package model

import (
	"github.com/cloudwego/eino/schema"
)

// QueryInput is one user turn addressed to a conversation thread.
type QueryInput struct {
	ThreadID  string `json:"thread_id"`
	UserInput string `json:"user_input"`
}

// Response is what the agent facade hands back to the HTTP and chat surfaces.
type Response struct {
	Response string `json:"response"`
}

// Snapshot is a cumulative view of the conversation emitted by the agent
// runtime: every message of the thread up to and including the latest step.
type Snapshot struct {
	Messages []*schema.Message
}

// Last returns the newest message of the snapshot, or nil when it is empty.
func (s Snapshot) Last() *schema.Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}
