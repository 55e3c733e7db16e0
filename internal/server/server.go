// Package server exposes the support agent over HTTP and a websocket chat UI.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/cpap-support-agent/server/internal/agent/model"
	logx "github.com/cpap-support-agent/server/pkg/logger"
)

//go:embed web/*
var website embed.FS

// Config is read from the environment by envconfig.
type Config struct {
	Addr string `envconfig:"SERVER_ADDR" default:":8000"`
	// RootPath is the prefix the hosting proxy mounts the service under.
	RootPath        string        `envconfig:"TFY_SERVICE_ROOT_PATH"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

// Agent runs one user turn on a thread.
type Agent interface {
	Run(ctx context.Context, threadID, userInput string) (model.Response, error)
}

type Server struct {
	cfg   Config
	agent Agent
	// newThreadID is swapped in tests.
	newThreadID func() string
}

func New(cfg Config, agent Agent) *Server {
	return &Server{cfg: cfg, agent: agent, newThreadID: newThreadID}
}

// Handler returns the full route table wrapped in the CORS and root path middleware.
func (s *Server) Handler() http.Handler {
	webFS, err := fs.Sub(website, "web")
	if err != nil {
		// The embed pattern guarantees the directory exists.
		panic(fmt.Sprintf("embedded web directory: %v", err))
	}
	fileServer := http.FileServer(http.FS(webFS))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health-check", s.handleHealth)
	mux.HandleFunc("POST /run_agent", s.handleRunAgent)
	mux.HandleFunc("GET /chat/ws", s.handleChat)
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" || r.URL.Path == "/index.html" {
			w.Header().Set("Cache-Control", "no-store")
		}
		fileServer.ServeHTTP(w, r)
	})

	return withCORS(stripRootPath(s.cfg.RootPath, mux))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", s.cfg.Addr).Str("root_path", s.cfg.RootPath).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logx.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// stripRootPath serves requests both with and without the proxy prefix.
func stripRootPath(root string, next http.Handler) http.Handler {
	root = strings.TrimSuffix(root, "/")
	if root == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := strings.CutPrefix(r.URL.Path, root); ok && (p == "" || strings.HasPrefix(p, "/")) {
			r2 := r.Clone(r.Context())
			if p == "" {
				p = "/"
			}
			r2.URL.Path = p
			r2.URL.RawPath = ""
			next.ServeHTTP(w, r2)
			return
		}
		next.ServeHTTP(w, r)
	})
}
