package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/cpap-support-agent/server/internal/devices"
)

const (
	ToolListDevices     = "list_available_devices"
	ToolCheckCompliance = "check_device_compliance"
	ToolFindManual      = "find_troubleshooting_manual"
)

type ListDevicesInput struct{}

type CheckComplianceInput struct {
	ModelName string `json:"model_name"`
}

type FindManualInput struct {
	DeviceModel   string `json:"device_model"`
	IssueKeywords string `json:"issue_keywords"`
}

// GetDeviceTools returns the tools the support agent may call, bound to reg.
func GetDeviceTools(reg *devices.Registry) []tool.BaseTool {
	return []tool.BaseTool{
		createListDevicesTool(reg),
		createCheckComplianceTool(reg),
		createFindManualTool(),
	}
}

// GetToolInfos collects the tool descriptions handed to the chat model.
func GetToolInfos(ctx context.Context, tools []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func createListDevicesTool(reg *devices.Registry) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name:        ToolListDevices,
			Desc:        "List all connected device model names for which data is available.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		func(_ context.Context, _ *toolArgs[ListDevicesInput]) (string, error) {
			return strings.Join(reg.ListModelNames(), ", "), nil
		},
		utils.WithUnmarshalArguments(decodeArgs[ListDevicesInput](ToolListDevices)),
		utils.WithMarshalOutput(observationText),
	)
}

func createCheckComplianceTool(reg *devices.Registry) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolCheckCompliance,
			Desc: "Checks the user's therapy compliance metrics (usage hours and mask leak rate) for a specific device model. Use the exact model name.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"model_name": {
					Type:     schema.String,
					Desc:     "Device model name as returned by list_available_devices (e.g., AirSense 10).",
					Required: true,
				},
			}),
		},
		func(_ context.Context, args *toolArgs[CheckComplianceInput]) (string, error) {
			return observe(args, func() (string, error) {
				verdict, err := reg.CheckCompliance(strings.TrimSpace(args.In.ModelName))
				if err != nil {
					return "", err
				}
				return FormatVerdict(verdict), nil
			})
		},
		utils.WithUnmarshalArguments(decodeArgs[CheckComplianceInput](ToolCheckCompliance)),
		utils.WithMarshalOutput(observationText),
	)
}

func createFindManualTool() tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolFindManual,
			Desc: "Simulates searching a manual for specific issues (e.g., 'AirSense 10' and 'clicking sound'). Returns a link or text snippet from the manual.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"device_model": {
					Type:     schema.String,
					Desc:     "Device model the issue occurs on.",
					Required: true,
				},
				"issue_keywords": {
					Type:     schema.String,
					Desc:     "Short description of the symptom, e.g. 'clicking sound'.",
					Required: true,
				},
			}),
		},
		func(_ context.Context, args *toolArgs[FindManualInput]) (string, error) {
			return observe(args, func() (string, error) {
				return devices.FindManual(strings.TrimSpace(args.In.DeviceModel), strings.TrimSpace(args.In.IssueKeywords)), nil
			})
		},
		utils.WithUnmarshalArguments(decodeArgs[FindManualInput](ToolFindManual)),
		utils.WithMarshalOutput(observationText),
	)
}

// FormatVerdict renders a verdict as the observation text the model reads.
func FormatVerdict(v devices.ComplianceVerdict) string {
	status := "NON-COMPLIANT"
	if v.Compliant {
		status = "COMPLIANT"
	}
	return fmt.Sprintf("Compliance Status: %s. Usage: %s. Leak Rate: %s. Recommendation: %s",
		status, v.UsageText, v.LeakText, v.Recommendation)
}
