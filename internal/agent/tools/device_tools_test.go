package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpap-support-agent/server/internal/devices"
)

func invoke(t *testing.T, name, args string) string {
	t.Helper()
	ctx := context.Background()
	for _, bt := range GetDeviceTools(devices.DefaultRegistry()) {
		info, err := bt.Info(ctx)
		require.NoError(t, err)
		if info.Name != name {
			continue
		}
		it, ok := bt.(tool.InvokableTool)
		require.True(t, ok)
		out, err := it.InvokableRun(ctx, args)
		require.NoError(t, err, "tools never return errors to the runtime")
		return out
	}
	t.Fatalf("tool %s not registered", name)
	return ""
}

func TestListDevicesTool(t *testing.T) {
	assert.Equal(t, "AirSense 10, AirMini", invoke(t, ToolListDevices, "{}"))
	assert.Equal(t, "AirSense 10, AirMini", invoke(t, ToolListDevices, ""))
}

func TestCheckComplianceTool(t *testing.T) {
	tests := []struct {
		name string
		args string
		want []string
	}{
		{
			name: "compliant",
			args: `{"model_name":"AirSense 10"}`,
			want: []string{"Compliance Status: COMPLIANT.", "32.5 hours last week", "Leak Rate: 15.2 L/min", "Usage looks stable."},
		},
		{
			name: "non compliant with padded name",
			args: `{"model_name":"  airmini "}`,
			want: []string{"NON-COMPLIANT", "4.0 hours", "30.1 L/min", "mask refitting"},
		},
		{
			name: "unknown model rendered as text",
			args: `{"model_name":"DreamStation"}`,
			want: []string{"Device model 'DreamStation' not found. Valid models are: AirSense 10, AirMini"},
		},
		{
			name: "malformed arguments rendered as text",
			args: `{"model_name":`,
			want: []string{"Invalid arguments for check_device_compliance"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := invoke(t, ToolCheckCompliance, tt.args)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestCheckComplianceToolObservationText(t *testing.T) {
	assert.Equal(t,
		"Compliance Status: COMPLIANT. Usage: 32.5 hours last week. Leak Rate: 15.2 L/min. Recommendation: Usage looks stable.",
		invoke(t, ToolCheckCompliance, `{"model_name":"AirSense 10"}`))

	assert.Equal(t,
		"Device model 'DreamStation' not found. Valid models are: AirSense 10, AirMini",
		invoke(t, ToolCheckCompliance, `{"model_name":"DreamStation"}`),
		"lookup failures are the bare error message")

	out := invoke(t, ToolFindManual, `not json`)
	assert.True(t, strings.HasPrefix(out, "Invalid arguments for find_troubleshooting_manual"), out)
}

func TestFindManualTool(t *testing.T) {
	out := invoke(t, ToolFindManual, `{"device_model":"AirSense 10","issue_keywords":"loud clicking"}`)
	assert.Contains(t, out, "filter blockage")

	out = invoke(t, ToolFindManual, `{"device_model":"AirMini","issue_keywords":"beeping"}`)
	assert.Contains(t, out, "no specific manual page")
}

func TestGetToolInfos(t *testing.T) {
	infos, err := GetToolInfos(context.Background(), GetDeviceTools(devices.DefaultRegistry()))
	require.NoError(t, err)

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{ToolListDevices, ToolCheckCompliance, ToolFindManual}, names)
}
