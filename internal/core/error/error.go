package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// AgentErrorMessage describes failures raised inside the agent runtime.
	AgentErrorMessage = "agent execution failed"
	// NotFoundMessage describes lookups that matched nothing.
	NotFoundMessage = "resource not found"
)

var (
	// ErrNotFound marks lookups (device models, scenario files) that matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrAgentExecution marks failures inside the external agent runtime.
	ErrAgentExecution = errors.New("agent execution error")
	// ErrExtraction marks failures while reading the final answer out of the event stream.
	ErrExtraction = errors.New("extraction error")
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WrapRedis wraps a Redis error with a consistent status code and message.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, RedisErrorMessage)
}

// WrapAgent marks err as an agent execution failure. The result matches both
// ErrAgentExecution and the original error under errors.Is.
func WrapAgent(err error) error {
	if err == nil {
		return nil
	}
	return New(fmt.Errorf("%w: %w", ErrAgentExecution, err), http.StatusBadGateway, AgentErrorMessage)
}

// Status returns the HTTP status carried by err, or 500 when err is not an AppError.
func Status(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
