package observers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSpanRecordsParent(t *testing.T) {
	ctx, workflow := StartSpan(context.Background(), "workflow", "resmed-support-agent")
	require.NotNil(t, workflow)
	assert.Empty(t, workflow.ParentID)

	ctx, tool := StartSpan(ctx, "tool", "check_device_compliance")
	assert.Equal(t, workflow.ID, tool.ParentID)
	assert.Same(t, tool, SpanFromContext(ctx))

	tool.End(errors.New("boom"))
	workflow.End(nil)
}

func TestNilSpanEndIsSafe(t *testing.T) {
	var s *Span
	assert.NotPanics(t, func() { s.End(nil) })
	assert.Nil(t, SpanFromContext(context.Background()))
}
