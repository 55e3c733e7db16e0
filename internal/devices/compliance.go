package devices

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// Therapy counts as compliant at 4 hours a night on 70% of the last 7 nights.
	minNightlyHours    = 4
	nightsPerWeek      = 7
	minCompliantNights = 0.7

	// DefaultMaxMaskLeakRate is the leak rate (L/min) above which refitting is suggested.
	DefaultMaxMaskLeakRate = 24.0

	refitRecommendation  = "High leak rate may require mask refitting."
	stableRecommendation = "Usage looks stable."
)

// Thresholds are the clinical limits CheckCompliance applies.
type Thresholds struct {
	MinWeeklyUsageHours float64 `envconfig:"COMPLIANCE_MIN_WEEKLY_HOURS" default:"19.6"`
	MaxMaskLeakRate     float64 `envconfig:"COMPLIANCE_MAX_LEAK_RATE" default:"24"`
}

// DefaultThresholds returns 19.6 hours a week and 24 L/min.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinWeeklyUsageHours: minNightlyHours * nightsPerWeek * minCompliantNights,
		MaxMaskLeakRate:     DefaultMaxMaskLeakRate,
	}
}

// ComplianceVerdict is derived on demand from a DeviceMetrics record.
type ComplianceVerdict struct {
	Compliant      bool   `json:"compliant"`
	UsageText      string `json:"usage"`
	LeakText       string `json:"leak_rate"`
	Recommendation string `json:"recommendation"`
}

// CheckCompliance evaluates the last week of usage for the named device.
// Lookup failures are returned unchanged.
func (r *Registry) CheckCompliance(name string) (ComplianceVerdict, error) {
	m, err := r.GetMetricsByModel(name)
	if err != nil {
		return ComplianceVerdict{}, err
	}
	return r.thresholds.Evaluate(m), nil
}

// Evaluate applies the thresholds to one device.
func (t Thresholds) Evaluate(m DeviceMetrics) ComplianceVerdict {
	recommendation := stableRecommendation
	if m.AvgMaskLeakRate > t.MaxMaskLeakRate {
		recommendation = refitRecommendation
	}
	return ComplianceVerdict{
		Compliant:      m.UsageHoursLastWeek >= t.MinWeeklyUsageHours,
		UsageText:      fmt.Sprintf("%.1f hours last week", m.UsageHoursLastWeek),
		LeakText:       formatRate(m.AvgMaskLeakRate) + " L/min",
		Recommendation: recommendation,
	}
}

// formatRate prints the shortest exact form of v, keeping one decimal for
// whole numbers (30.1 -> "30.1", 24 -> "24.0").
func formatRate(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
