// Package interfaces defines the cross-cutting contracts shared by the userapi packages
package interfaces

import "context"

// Logger defines the interface for logging implementations
type Logger interface {
	// Debug logs debug level messages
	Debug(msg string, fields ...map[string]interface{})

	// Info logs info level messages
	Info(msg string, fields ...map[string]interface{})

	// Warn logs warning level messages
	Warn(msg string, fields ...map[string]interface{})

	// Error logs error level messages
	Error(msg string, err error, fields ...map[string]interface{})

	// Fatal logs fatal level messages and exits
	Fatal(msg string, err error, fields ...map[string]interface{})

	// WithFields returns a logger with additional fields
	WithFields(fields map[string]interface{}) Logger
}

// Metrics defines the interface for metrics collection
type Metrics interface {
	// Counter increments a counter metric
	Counter(name string, value float64, labels map[string]string)

	// Gauge sets a gauge metric
	Gauge(name string, value float64, labels map[string]string)

	// Timer records timing metrics in milliseconds
	Timer(name string, duration float64, labels map[string]string)

	// Snapshot returns the current value of every recorded series
	Snapshot() map[string]float64
}

// HealthChecker defines the interface for health checking
type HealthChecker interface {
	// HealthCheck returns nil when the component is able to serve requests
	HealthCheck(ctx context.Context) error
}
