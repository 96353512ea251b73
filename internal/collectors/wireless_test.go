package collectors

import (
	"testing"

	"github.com/merakitools/dashboard-exporter/internal/retain"
	"github.com/stretchr/testify/assert"
)

func TestZeroValidMetrics_RetentionPolicy(t *testing.T) {
	cache := retain.New(retain.WithZeroValid(ZeroValidMetrics...))
	labels := map[string]string{"serial": "Q2XX-0001", "network_id": "N1", "direction": "downstream"}

	// Packet totals are retention-eligible: a transient zero keeps the last
	// real value.
	v, ok := cache.Apply(metricPacketsTotal, labels, ptr(120))
	assert.True(t, ok)
	assert.Equal(t, 120.0, v)
	v, ok = cache.Apply(metricPacketsTotal, labels, ptr(0))
	assert.True(t, ok)
	assert.Equal(t, 120.0, v)

	// An idle AP's 0% utilization is a real reading, never masked.
	apLabels := map[string]string{"serial": "Q2XX-0001", "band": "5", "kind": "total"}
	v, ok = cache.Apply(metricChannelUtilization, apLabels, ptr(42))
	assert.True(t, ok)
	assert.Equal(t, 42.0, v)
	v, ok = cache.Apply(metricChannelUtilization, apLabels, ptr(0))
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)

	// Zero association attempts and zero lost packets likewise export as 0.
	statLabels := map[string]string{"network_id": "N1", "stat": "assoc"}
	_, _ = cache.Apply(metricConnectionStats, statLabels, ptr(7))
	v, ok = cache.Apply(metricConnectionStats, statLabels, ptr(0))
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)

	_, _ = cache.Apply(metricPacketsLost, labels, ptr(3))
	v, ok = cache.Apply(metricPacketsLost, labels, ptr(0))
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)

	// An absent reading is still retained for every series.
	v, ok = cache.Apply(metricChannelUtilization, apLabels, nil)
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)
}
