package collector

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/merakitools/dashboard-exporter/internal/dashapi"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCollector struct {
	name string
	tier Tier
	fn   func(ctx context.Context) error
}

func (s *stubCollector) Name() string { return s.name }
func (s *stubCollector) Tier() Tier   { return s.tier }
func (s *stubCollector) Collect(ctx context.Context) error {
	if s.fn == nil {
		return nil
	}
	return s.fn(ctx)
}

func newTestManager(t *testing.T, timeout time.Duration) (*Manager, *RunStats) {
	t.Helper()
	stats := NewRunStats(prometheus.NewRegistry())
	m := NewManager(Intervals{Fast: time.Minute, Medium: 5 * time.Minute, Slow: 15 * time.Minute}, timeout, stats)
	return m, stats
}

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	c, err := vec.GetMetricWithLabelValues(labels...)
	require.NoError(t, err)
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestTick_FailureIsolation(t *testing.T) {
	m, stats := newTestManager(t, time.Second)

	m.Add(&stubCollector{name: "a", tier: TierFast})
	m.Add(&stubCollector{name: "b", tier: TierFast, fn: func(context.Context) error {
		return &dashapi.APIError{StatusCode: 502, Status: "502 Bad Gateway"}
	}})
	m.Add(&stubCollector{name: "c", tier: TierFast})

	before := time.Now().Unix()
	m.Tick(context.Background(), TierFast)

	// Siblings ran and succeeded despite b failing.
	assert.GreaterOrEqual(t, stats.LastSuccess("a", TierFast), float64(before))
	assert.GreaterOrEqual(t, stats.LastSuccess("c", TierFast), float64(before))
	assert.Zero(t, stats.ErrorCount("a", TierFast, CategoryServerError))
	assert.Zero(t, stats.ErrorCount("c", TierFast, CategoryServerError))

	// b counted exactly one error with the right category and no success.
	assert.Equal(t, 1.0, stats.ErrorCount("b", TierFast, CategoryServerError))
	assert.Zero(t, stats.LastSuccess("b", TierFast))

	// A second tick still runs everything.
	m.Tick(context.Background(), TierFast)
	assert.Equal(t, 2.0, stats.ErrorCount("b", TierFast, CategoryServerError))
}

func TestTick_TimeoutIsClassifiedAndDoesNotBlockTheTick(t *testing.T) {
	m, stats := newTestManager(t, 50*time.Millisecond)

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	m.Add(&stubCollector{name: "slow", tier: TierFast, fn: func(ctx context.Context) error {
		<-release // never honors the context
		return nil
	}})
	m.Add(&stubCollector{name: "quick", tier: TierFast})

	start := time.Now()
	m.Tick(context.Background(), TierFast)
	elapsed := time.Since(start)

	assert.Less(t, elapsed, time.Second, "tick must not wait for the timed-out collector")
	assert.Equal(t, 1.0, stats.ErrorCount("slow", TierFast, CategoryTimeout))
	assert.Zero(t, stats.LastSuccess("slow", TierFast))
	assert.Greater(t, stats.LastSuccess("quick", TierFast), 0.0)
}

func TestTick_PanicIsRecoveredAndCounted(t *testing.T) {
	m, stats := newTestManager(t, time.Second)

	m.Add(&stubCollector{name: "panics", tier: TierMedium, fn: func(context.Context) error {
		panic("boom")
	}})
	m.Add(&stubCollector{name: "fine", tier: TierMedium})

	m.Tick(context.Background(), TierMedium)

	assert.Equal(t, 1.0, stats.ErrorCount("panics", TierMedium, CategoryUnknown))
	assert.Greater(t, stats.LastSuccess("fine", TierMedium), 0.0)
}

func TestTick_OverlappingInvocationIsSkipped(t *testing.T) {
	m, stats := newTestManager(t, time.Minute)

	started := make(chan struct{})
	release := make(chan struct{})
	m.Add(&stubCollector{name: "blocked", tier: TierSlow, fn: func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.Tick(context.Background(), TierSlow)
	}()
	<-started

	// The next tick fires while the first pass is still running.
	done := make(chan struct{})
	go func() {
		m.Tick(context.Background(), TierSlow)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second tick did not skip the running collector")
	}
	assert.Equal(t, 1.0, counterValue(t, stats.skips, "blocked", "slow"))

	close(release)
	wg.Wait()
}

func TestRun_TierTicksDoNotOverlap(t *testing.T) {
	stats := NewRunStats(prometheus.NewRegistry())
	m := NewManager(Intervals{Fast: 10 * time.Millisecond, Medium: time.Minute, Slow: time.Minute}, time.Second, stats)

	// One slow and one instant collector on the same tier. Because a tick
	// waits for every collector, both run exactly once per tick; an
	// overlapping tick would let the instant one race ahead of the slow one.
	var slowRuns, quickRuns atomic.Int32
	m.Add(&stubCollector{name: "slow", tier: TierFast, fn: func(ctx context.Context) error {
		slowRuns.Add(1)
		time.Sleep(45 * time.Millisecond)
		return nil
	}})
	m.Add(&stubCollector{name: "quick", tier: TierFast, fn: func(ctx context.Context) error {
		quickRuns.Add(1)
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(120 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not drain after cancellation")
	}

	assert.Equal(t, slowRuns.Load(), quickRuns.Load(), "every tick runs each collector exactly once")
	assert.GreaterOrEqual(t, slowRuns.Load(), int32(2), "the ticker fired after the immediate first pass")
	assert.Zero(t, counterValue(t, stats.skips, "slow", "fast"), "no tick fired while the previous one was running")
}

func TestRegistry_SameFactoryTwiceYieldsTwoInstances(t *testing.T) {
	r := NewRegistry()
	factory := func(Deps) Collector { return &stubCollector{name: "dup", tier: TierFast} }
	r.Register(factory)
	r.Register(factory)

	built := r.Build(Deps{})
	require.Len(t, built, 2)
	assert.NotSame(t, built[0], built[1])
}

func TestManager_AddAfterRunPanics(t *testing.T) {
	m, _ := newTestManager(t, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Run(ctx)
	assert.Panics(t, func() {
		m.Add(&stubCollector{name: "late", tier: TierFast})
	})
}
