package observers

import (
	"context"
	"time"

	"github.com/google/uuid"

	logx "github.com/cpap-support-agent/server/pkg/logger"
)

type spanKey struct{}

// Span is a lightweight trace span written to the structured log when it ends.
type Span struct {
	ID       string
	ParentID string
	Kind     string
	Name     string
	start    time.Time
}

// StartSpan opens a span of the given kind ("workflow", "task", "tool") and
// stores it in the returned context so nested spans record their parent.
func StartSpan(ctx context.Context, kind, name string) (context.Context, *Span) {
	s := &Span{
		ID:    uuid.NewString(),
		Kind:  kind,
		Name:  name,
		start: time.Now(),
	}
	if parent := SpanFromContext(ctx); parent != nil {
		s.ParentID = parent.ID
	}
	logx.Debug().Str("span_id", s.ID).Str("parent_span_id", s.ParentID).
		Str("kind", kind).Str("name", name).Msg("span start")
	return context.WithValue(ctx, spanKey{}, s), s
}

// SpanFromContext returns the innermost open span, if any.
func SpanFromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(spanKey{}).(*Span)
	return s
}

// End closes the span, logging err at error level when present.
func (s *Span) End(err error) {
	if s == nil {
		return
	}
	ev := logx.Debug()
	if err != nil {
		ev = logx.Error().Err(err)
	}
	ev.Str("span_id", s.ID).Str("parent_span_id", s.ParentID).
		Str("kind", s.Kind).Str("name", s.Name).
		Dur("duration", time.Since(s.start)).Msg("span end")
}
