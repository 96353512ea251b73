// Package retain suppresses transient zero or absent readings for metrics
// whose source occasionally reports empty data mid-poll. The exported series
// keeps its last real value instead of dipping to zero. Metrics that treat
// zero as authoritative (loss or error counts) are declared at construction
// and bypass retention.
package retain

import (
	"sort"
	"strings"
	"sync"
)

type entry struct {
	value float64
}

type Cache struct {
	mu        sync.RWMutex
	retained  map[string]entry
	zeroValid map[string]bool
}

type Option func(*Cache)

// WithZeroValid marks metric names whose zero readings are real values and
// must never be replaced by a retained one.
func WithZeroValid(names ...string) Option {
	return func(c *Cache) {
		for _, n := range names {
			c.zeroValid[n] = true
		}
	}
}

func New(opts ...Option) *Cache {
	c := &Cache{
		retained:  make(map[string]entry),
		zeroValid: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Apply decides which value to export for one sample.
//
// A real candidate (non-nil and, for retention-eligible metrics, non-zero)
// is stored and returned. A nil candidate, or a zero candidate on a
// retention-eligible metric, returns the previously retained value if one
// exists; otherwise the candidate passes through unchanged: (0, true) for a
// zero and (0, false) for nil, so the caller can skip the sample entirely.
//
// Entries live for the process lifetime. Cardinality is bounded by the
// device population, so there is no eviction.
func (c *Cache) Apply(metricName string, labels map[string]string, candidate *float64) (float64, bool) {
	key := cacheKey(metricName, labels)

	if candidate != nil && (*candidate != 0 || c.zeroValid[metricName]) {
		c.mu.Lock()
		c.retained[key] = entry{value: *candidate}
		c.mu.Unlock()
		return *candidate, true
	}

	c.mu.RLock()
	prev, ok := c.retained[key]
	c.mu.RUnlock()
	if ok {
		return prev.value, true
	}
	if candidate != nil {
		return *candidate, true
	}
	return 0, false
}

// cacheKey canonicalizes the label set by label name so identical samples
// hash identically regardless of call-site ordering.
func cacheKey(metricName string, labels map[string]string) string {
	if len(labels) == 0 {
		return metricName
	}
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(metricName)
	for _, name := range names {
		b.WriteByte('|')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(labels[name])
	}
	return b.String()
}
