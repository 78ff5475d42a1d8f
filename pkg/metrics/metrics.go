// Package metrics provides metrics implementations for userapi
package metrics

import (
	"sort"
	"strings"
	"sync"

	"github.com/memtensor/userapi/pkg/interfaces"
)

// NoOpMetrics is a no-operation metrics implementation
type NoOpMetrics struct{}

// Counter increments a counter metric
func (m *NoOpMetrics) Counter(name string, value float64, labels map[string]string) {}

// Gauge sets a gauge metric
func (m *NoOpMetrics) Gauge(name string, value float64, labels map[string]string) {}

// Timer records timing metrics
func (m *NoOpMetrics) Timer(name string, duration float64, labels map[string]string) {}

// Snapshot always returns an empty map
func (m *NoOpMetrics) Snapshot() map[string]float64 {
	return map[string]float64{}
}

// MemoryMetrics keeps every series in process memory. Timers are stored as
// two series, name_count and name_sum_ms.
type MemoryMetrics struct {
	mu     sync.RWMutex
	series map[string]float64
}

// NewMemoryMetrics creates an empty in-memory collector
func NewMemoryMetrics() *MemoryMetrics {
	return &MemoryMetrics{series: make(map[string]float64)}
}

// Counter increments a counter metric
func (m *MemoryMetrics) Counter(name string, value float64, labels map[string]string) {
	key := seriesKey(name, labels)
	m.mu.Lock()
	m.series[key] += value
	m.mu.Unlock()
}

// Gauge sets a gauge metric
func (m *MemoryMetrics) Gauge(name string, value float64, labels map[string]string) {
	key := seriesKey(name, labels)
	m.mu.Lock()
	m.series[key] = value
	m.mu.Unlock()
}

// Timer records timing metrics in milliseconds
func (m *MemoryMetrics) Timer(name string, duration float64, labels map[string]string) {
	countKey := seriesKey(name+"_count", labels)
	sumKey := seriesKey(name+"_sum_ms", labels)
	m.mu.Lock()
	m.series[countKey]++
	m.series[sumKey] += duration
	m.mu.Unlock()
}

// Snapshot returns a copy of every recorded series
func (m *MemoryMetrics) Snapshot() map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]float64, len(m.series))
	for k, v := range m.series {
		out[k] = v
	}
	return out
}

// seriesKey renders name{k="v",...} with labels sorted by key
func seriesKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(labels[k])
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String()
}

var _ interfaces.Metrics = (*NoOpMetrics)(nil)
var _ interfaces.Metrics = (*MemoryMetrics)(nil)

// NewNoOpMetrics creates a new no-op metrics implementation
func NewNoOpMetrics() interfaces.Metrics {
	return &NoOpMetrics{}
}

// NewTestMetrics creates a metrics implementation for testing
func NewTestMetrics() interfaces.Metrics {
	return NewMemoryMetrics()
}
