package retain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestApply_RetainsAcrossTransientZero(t *testing.T) {
	c := New()
	labels := map[string]string{"serial": "Q2XX-0001", "direction": "downstream"}

	v, ok := c.Apply("packets_total", labels, ptr(42))
	assert.True(t, ok)
	assert.Equal(t, 42.0, v)

	// A transient zero keeps the last real value.
	v, ok = c.Apply("packets_total", labels, ptr(0))
	assert.True(t, ok)
	assert.Equal(t, 42.0, v)

	// An absent reading keeps it too.
	v, ok = c.Apply("packets_total", labels, nil)
	assert.True(t, ok)
	assert.Equal(t, 42.0, v)

	// A new real value replaces it.
	v, ok = c.Apply("packets_total", labels, ptr(7))
	assert.True(t, ok)
	assert.Equal(t, 7.0, v)
}

func TestApply_ZeroValidMetricBypassesRetention(t *testing.T) {
	c := New(WithZeroValid("packets_lost"))
	labels := map[string]string{"serial": "Q2XX-0001"}

	v, ok := c.Apply("packets_lost", labels, ptr(5))
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)

	// Zero is authoritative for loss counts.
	v, ok = c.Apply("packets_lost", labels, ptr(0))
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestApply_NoPriorValuePassesThrough(t *testing.T) {
	c := New()
	labels := map[string]string{"serial": "Q2XX-0002"}

	// Zero without history passes through as zero.
	v, ok := c.Apply("packets_total", labels, ptr(0))
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)

	// Nil without history means nothing to export.
	_, ok = c.Apply("packets_total", labels, nil)
	assert.False(t, ok)
}

func TestApply_KeysAreIndependentPerLabelTuple(t *testing.T) {
	c := New()

	_, _ = c.Apply("util", map[string]string{"serial": "A", "band": "5"}, ptr(10))
	_, _ = c.Apply("util", map[string]string{"serial": "B", "band": "5"}, ptr(20))

	v, ok := c.Apply("util", map[string]string{"serial": "A", "band": "5"}, nil)
	assert.True(t, ok)
	assert.Equal(t, 10.0, v)

	v, ok = c.Apply("util", map[string]string{"band": "5", "serial": "B"}, nil)
	assert.True(t, ok)
	assert.Equal(t, 20.0, v, "label ordering at the call site must not matter")
}

func TestCacheKey_Canonicalization(t *testing.T) {
	a := cacheKey("m", map[string]string{"x": "1", "y": "2"})
	b := cacheKey("m", map[string]string{"y": "2", "x": "1"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, cacheKey("m", map[string]string{"x": "1", "y": "3"}))
	assert.Equal(t, "m", cacheKey("m", nil))
}
