package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/cpap-support-agent/server/internal/agent/tools"
	"github.com/cpap-support-agent/server/internal/devices"
)

//go:embed template/system_prompt.txt
var systemPromptTemplate string

// RenderSystem renders the support agent's system instruction through the
// Eino prompt component so prompt callbacks observe it.
func RenderSystem(ctx context.Context, thresholds devices.Thresholds) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(systemPromptTemplate),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"ListTool":       tools.ToolListDevices,
		"ComplianceTool": tools.ToolCheckCompliance,
		"ManualTool":     tools.ToolFindManual,
		"MinWeeklyHours": thresholds.MinWeeklyUsageHours,
		"MaxLeakRate":    thresholds.MaxMaskLeakRate,
	})
	if err != nil {
		return "", fmt.Errorf("system prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("system prompt render: empty result")
	}
	return msgs[0].Content, nil
}
