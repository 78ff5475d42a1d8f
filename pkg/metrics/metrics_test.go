package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoOpMetrics(t *testing.T) {
	m := NewNoOpMetrics()
	assert.NotPanics(t, func() {
		m.Counter("requests", 1, nil)
		m.Gauge("users", 3, map[string]string{"role": "admin"})
		m.Timer("latency", 12.5, nil)
	})
	assert.Empty(t, m.Snapshot())
}

func TestMemoryMetricsCounter(t *testing.T) {
	m := NewMemoryMetrics()
	labels := map[string]string{"method": "GET", "status": "200"}

	m.Counter("http_requests_total", 1, labels)
	m.Counter("http_requests_total", 2, labels)
	m.Counter("http_requests_total", 1, map[string]string{"status": "404", "method": "GET"})

	snap := m.Snapshot()
	assert.Equal(t, 3.0, snap[`http_requests_total{method="GET",status="200"}`])
	assert.Equal(t, 1.0, snap[`http_requests_total{method="GET",status="404"}`])
}

func TestMemoryMetricsGaugeAndTimer(t *testing.T) {
	m := NewMemoryMetrics()

	m.Gauge("tokens_removed", 5, nil)
	m.Gauge("tokens_removed", 2, nil)
	m.Timer("http_request_duration", 10, nil)
	m.Timer("http_request_duration", 30, nil)

	snap := m.Snapshot()
	assert.Equal(t, 2.0, snap["tokens_removed"])
	assert.Equal(t, 2.0, snap["http_request_duration_count"])
	assert.Equal(t, 40.0, snap["http_request_duration_sum_ms"])
}

func TestSnapshotIsCopy(t *testing.T) {
	m := NewMemoryMetrics()
	m.Counter("a", 1, nil)

	snap := m.Snapshot()
	snap["a"] = 100

	assert.Equal(t, 1.0, m.Snapshot()["a"])
}

func TestMemoryMetricsConcurrent(t *testing.T) {
	m := NewMemoryMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Counter("hits", 1, nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50.0, m.Snapshot()["hits"])
}
