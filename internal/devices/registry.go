// Package devices holds the simulated cloud-connected CPAP telemetry and the
// business rules evaluated over it.
package devices

import (
	"fmt"
	"strings"

	errx "github.com/cpap-support-agent/server/internal/core/error"
)

// DeviceMetrics is one device's telemetry snapshot.
type DeviceMetrics struct {
	ModelName          string  `json:"model_name"`
	UsageHoursLastWeek float64 `json:"usage_hours_last_week"`
	AvgMaskLeakRate    float64 `json:"avg_mask_leak_rate"` // L/min
	LastServiceDate    string  `json:"last_service_date"`
}

// NotFoundError is returned when no device matches the requested model name.
type NotFoundError struct {
	ModelName   string
	ValidModels []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Device model '%s' not found. Valid models are: %s",
		e.ModelName, strings.Join(e.ValidModels, ", "))
}

// Is lets callers match any device lookup miss with errors.Is(err, errx.ErrNotFound).
func (e *NotFoundError) Is(target error) bool {
	return target == errx.ErrNotFound
}

// Registry is an ordered, read-only list of devices. It is safe for
// concurrent use because nothing mutates it after construction.
type Registry struct {
	metrics    []DeviceMetrics
	thresholds Thresholds
}

// Option customises a Registry at construction time.
type Option func(*Registry)

// WithThresholds overrides the compliance thresholds.
func WithThresholds(t Thresholds) Option {
	return func(r *Registry) {
		r.thresholds = t
	}
}

// NewRegistry copies metrics in order. Duplicate model names are accepted;
// lookups return the first case-insensitive match.
func NewRegistry(metrics []DeviceMetrics, opts ...Option) *Registry {
	r := &Registry{
		metrics:    append([]DeviceMetrics(nil), metrics...),
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultRegistry returns the simulated account with its two connected devices.
func DefaultRegistry(opts ...Option) *Registry {
	return NewRegistry([]DeviceMetrics{
		{ModelName: "AirSense 10", UsageHoursLastWeek: 32.5, AvgMaskLeakRate: 15.2, LastServiceDate: "2025-01-15"},
		{ModelName: "AirMini", UsageHoursLastWeek: 4.0, AvgMaskLeakRate: 30.1, LastServiceDate: "2024-11-01"},
	}, opts...)
}

// Thresholds returns the thresholds used by CheckCompliance.
func (r *Registry) Thresholds() Thresholds {
	return r.thresholds
}

// ListModelNames returns all model names in registry order.
func (r *Registry) ListModelNames() []string {
	names := make([]string, 0, len(r.metrics))
	for _, m := range r.metrics {
		names = append(names, m.ModelName)
	}
	return names
}

// GetMetricsByModel returns the first device whose model name equals name,
// ignoring case.
func (r *Registry) GetMetricsByModel(name string) (DeviceMetrics, error) {
	for _, m := range r.metrics {
		if strings.EqualFold(m.ModelName, name) {
			return m, nil
		}
	}
	return DeviceMetrics{}, &NotFoundError{ModelName: name, ValidModels: r.ListModelNames()}
}
