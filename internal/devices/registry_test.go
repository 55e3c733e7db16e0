package devices

import (
	"errors"
	"strings"
	"testing"

	errx "github.com/cpap-support-agent/server/internal/core/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListModelNames(t *testing.T) {
	reg := DefaultRegistry()

	first := reg.ListModelNames()
	assert.Equal(t, []string{"AirSense 10", "AirMini"}, first)

	first[0] = "mutated"
	assert.Equal(t, []string{"AirSense 10", "AirMini"}, reg.ListModelNames(), "returned slice must not alias the registry")
}

func TestGetMetricsByModel(t *testing.T) {
	reg := DefaultRegistry()

	for _, name := range reg.ListModelNames() {
		for _, query := range []string{name, strings.ToUpper(name), strings.ToLower(name)} {
			m, err := reg.GetMetricsByModel(query)
			require.NoError(t, err)
			assert.True(t, strings.EqualFold(m.ModelName, query))
		}
	}
}

func TestGetMetricsByModelNotFound(t *testing.T) {
	_, err := DefaultRegistry().GetMetricsByModel("DreamStation")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "not found")
	assert.Contains(t, err.Error(), "AirSense 10, AirMini")
	assert.ErrorIs(t, err, errx.ErrNotFound)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "DreamStation", nf.ModelName)
}

func TestGetMetricsByModelFirstMatchWins(t *testing.T) {
	reg := NewRegistry([]DeviceMetrics{
		{ModelName: "AirSense 11", UsageHoursLastWeek: 10},
		{ModelName: "airsense 11", UsageHoursLastWeek: 20},
	})
	m, err := reg.GetMetricsByModel("AIRSENSE 11")
	require.NoError(t, err)
	assert.Equal(t, 10.0, m.UsageHoursLastWeek)
}

func TestCheckCompliance(t *testing.T) {
	reg := DefaultRegistry()

	t.Run("compliant", func(t *testing.T) {
		v, err := reg.CheckCompliance("AirSense 10")
		require.NoError(t, err)
		assert.True(t, v.Compliant)
		assert.Equal(t, "32.5 hours last week", v.UsageText)
		assert.Equal(t, "15.2 L/min", v.LeakText)
		assert.Equal(t, "Usage looks stable.", v.Recommendation)
	})

	t.Run("non compliant with high leak", func(t *testing.T) {
		v, err := reg.CheckCompliance("airmini")
		require.NoError(t, err)
		assert.False(t, v.Compliant)
		assert.Contains(t, v.UsageText, "4.0 hours")
		assert.Equal(t, "30.1 L/min", v.LeakText)
		assert.Equal(t, "High leak rate may require mask refitting.", v.Recommendation)
	})

	t.Run("unknown device propagates lookup error", func(t *testing.T) {
		_, err := reg.CheckCompliance("DreamStation")
		var nf *NotFoundError
		assert.ErrorAs(t, err, &nf)
	})
}

func TestThresholdsBoundaries(t *testing.T) {
	th := DefaultThresholds()
	assert.InDelta(t, 19.6, th.MinWeeklyUsageHours, 1e-9)

	atLimit := th.Evaluate(DeviceMetrics{UsageHoursLastWeek: th.MinWeeklyUsageHours, AvgMaskLeakRate: 24})
	assert.True(t, atLimit.Compliant)
	assert.Equal(t, "Usage looks stable.", atLimit.Recommendation, "24 L/min is not above the limit")
	assert.Equal(t, "24.0 L/min", atLimit.LeakText)

	below := th.Evaluate(DeviceMetrics{UsageHoursLastWeek: 19.5, AvgMaskLeakRate: 24.01})
	assert.False(t, below.Compliant)
	assert.Equal(t, "High leak rate may require mask refitting.", below.Recommendation)
}

func TestWithThresholds(t *testing.T) {
	reg := DefaultRegistry(WithThresholds(Thresholds{MinWeeklyUsageHours: 40, MaxMaskLeakRate: 10}))

	v, err := reg.CheckCompliance("AirSense 10")
	require.NoError(t, err)
	assert.False(t, v.Compliant)
	assert.Equal(t, "High leak rate may require mask refitting.", v.Recommendation)
}
