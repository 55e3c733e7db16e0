package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cpap-support-agent/server/internal/agent/runner"
	logx "github.com/cpap-support-agent/server/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	maxPromptBytes = 64 << 10

	greeting = "Hello, I am your Certified Sleep Therapist Agent. I can help you with device troubleshooting " +
		"and compliance checks. How may I assist you?"
)

// pongWait bounds how long the peer may stay silent between reads.
var pongWait = 60 * time.Second

// SuggestedQuestions are offered as one-click prompts by the chat page.
var SuggestedQuestions = []string{
	"What devices are connected to my account?",
	"Check my compliance for the AirSense 10 model.",
	"I hear a clicking sound in my AirSense 10, what should I do?",
	"I'm feeling very dry in the morning, what is the fix?",
}

// Frame types exchanged over the chat websocket.
const (
	frameSession = "session"
	framePrompt  = "prompt"
	frameMessage = "message"
	frameError   = "error"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatFrame struct {
	Type        string        `json:"type"`
	ThreadID    string        `json:"thread_id,omitempty"`
	Message     *chatMessage  `json:"message,omitempty"`
	History     []chatMessage `json:"history,omitempty"`
	Suggestions []string      `json:"suggestions,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// chatSession is one browser tab: a thread id fixed for the connection and
// the transcript shown to the user.
type chatSession struct {
	threadID string
	history  []chatMessage
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logx.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	session := &chatSession{
		threadID: s.newThreadID(),
		history:  []chatMessage{{Role: "assistant", Content: greeting}},
	}
	logx.Info().Str("thread_id", session.threadID).Msg("chat session opened")

	var writeMu sync.Mutex
	write := func(f chatFrame) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(f)
	}

	conn.SetReadLimit(maxPromptBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pongWait * 9 / 10)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				writeMu.Lock()
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
				writeMu.Unlock()
				if err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	if err := write(chatFrame{
		Type:        frameSession,
		ThreadID:    session.threadID,
		History:     session.history,
		Suggestions: SuggestedQuestions,
	}); err != nil {
		logx.Warn().Err(err).Msg("chat greeting failed")
		return
	}

	for {
		var in chatFrame
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logx.Warn().Err(err).Str("thread_id", session.threadID).Msg("chat read error")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		if in.Type != framePrompt || in.Message == nil || strings.TrimSpace(in.Message.Content) == "" {
			if err := write(chatFrame{Type: frameError, Error: "expected a non-empty prompt"}); err != nil {
				return
			}
			continue
		}

		reply := s.answer(r.Context(), session, in.Message.Content)
		// the agent turn may outlast pongWait; pongs are only read between prompts
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if err := write(chatFrame{Type: frameMessage, ThreadID: session.threadID, Message: &reply}); err != nil {
			logx.Warn().Err(err).Str("thread_id", session.threadID).Msg("chat write error")
			return
		}
	}
}

// answer runs the agent on prompt and records both sides in the transcript.
// Agent failures are shown to the user as the fallback text.
func (s *Server) answer(ctx context.Context, session *chatSession, prompt string) chatMessage {
	session.history = append(session.history, chatMessage{Role: "user", Content: prompt})

	content := runner.FallbackResponse
	resp, err := s.agent.Run(ctx, session.threadID, prompt)
	switch {
	case err == nil:
		content = resp.Response
	case errors.Is(err, context.Canceled):
		logx.Debug().Str("thread_id", session.threadID).Msg("chat request cancelled")
	default:
		logx.Error().Err(err).Str("thread_id", session.threadID).Msg("chat agent run failed")
	}

	reply := chatMessage{Role: "assistant", Content: content}
	session.history = append(session.history, reply)
	return reply
}
