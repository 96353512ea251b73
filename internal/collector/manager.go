package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Manager owns one repeating timer per tier. On each tick it fans out to
// every collector of that tier concurrently, wraps each invocation with a
// timeout, duration measurement and error classification, and waits for all
// of them before the tick counts as complete.
//
// Scheduling is fixed-rate best-effort: when a tick's work exceeds the tier
// interval the next tick fires only after the previous one completed. Ticks
// of the same tier never overlap; tiers are independent of each other.
type Manager struct {
	mu         sync.Mutex
	collectors map[Tier][]*managedCollector
	intervals  Intervals
	timeout    time.Duration
	stats      *RunStats
	started    bool
}

type managedCollector struct {
	Collector
	running atomic.Bool
}

func NewManager(intervals Intervals, timeout time.Duration, stats *RunStats) *Manager {
	return &Manager{
		collectors: make(map[Tier][]*managedCollector),
		intervals:  intervals,
		timeout:    timeout,
		stats:      stats,
	}
}

// Add registers a collector instance with the manager. The production set
// comes from Registry.Build at bootstrap; tests and extensions may add more
// before Run is called.
func (m *Manager) Add(c Collector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		panic("collector added after the manager was started")
	}
	m.collectors[c.Tier()] = append(m.collectors[c.Tier()], &managedCollector{Collector: c})
}

// AddAll registers every collector of a built registry.
func (m *Manager) AddAll(cs []Collector) {
	for _, c := range cs {
		m.Add(c)
	}
}

// Run starts one scheduling loop per non-empty tier and blocks until the
// context is cancelled and all in-flight ticks have drained.
func (m *Manager) Run(ctx context.Context) {
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, tier := range allTiers {
		if len(m.collectors[tier]) == 0 {
			continue
		}
		wg.Add(1)
		go func(t Tier) {
			defer wg.Done()
			m.runTier(ctx, t)
		}(tier)
	}
	wg.Wait()
}

func (m *Manager) runTier(ctx context.Context, tier Tier) {
	interval := m.intervals.For(tier)
	zap.S().Infof("Starting %s tier with %d collectors, interval %s", tier, len(m.collectors[tier]), interval)

	// First pass right away, then on the ticker. The ticker drops missed
	// ticks while Tick blocks, which is exactly the no-overlap semantic.
	m.Tick(ctx, tier)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			zap.S().Infof("Stopping %s tier", tier)
			return
		case <-ticker.C:
			// A tick may still be pending after cancellation; don't run it.
			if ctx.Err() != nil {
				zap.S().Infof("Stopping %s tier", tier)
				return
			}
			m.Tick(ctx, tier)
		}
	}
}

// Tick runs every collector of the tier concurrently and waits for all of
// them to reach a terminal state. Exported for tests.
func (m *Manager) Tick(ctx context.Context, tier Tier) {
	var wg sync.WaitGroup
	for _, mc := range m.collectors[tier] {
		wg.Add(1)
		go func(mc *managedCollector) {
			defer wg.Done()
			m.runOne(ctx, tier, mc)
		}(mc)
	}
	wg.Wait()
}

// runOne is the single composition point wrapping every collector
// invocation: overlap skip, timeout, duration, classification, counting.
// A failure here never propagates to sibling collectors or the next tick.
func (m *Manager) runOne(ctx context.Context, tier Tier, mc *managedCollector) {
	if !mc.running.CompareAndSwap(false, true) {
		zap.S().Warnf("Collector %s is still running from a previous tick, skipping", mc.Name())
		m.stats.IncSkip(mc.Name(), tier)
		return
	}

	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	start := time.Now()

	done := make(chan error, 1)
	go func() {
		defer mc.running.Store(false)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("collector %s panicked: %v", mc.Name(), r)
			}
		}()
		done <- mc.Collect(cctx)
	}()

	var err error
	select {
	case err = <-done:
	case <-cctx.Done():
		// Timeout or shutdown. The tick proceeds without waiting further;
		// the running flag keeps the collector from overlapping itself
		// until Collect actually returns.
		err = cctx.Err()
	}

	elapsed := time.Since(start)
	m.stats.ObserveRun(mc.Name(), tier, elapsed)

	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			// Shutdown, not a collector failure.
			return
		}
		category := Classify(err)
		m.stats.IncError(mc.Name(), tier, category)
		zap.S().Warnf("Collector %s failed after %s (%s): %s", mc.Name(), elapsed, category, err)
		return
	}

	m.stats.SetLastSuccess(mc.Name(), tier, time.Now())
	zap.S().Debugf("Collector %s finished in %s", mc.Name(), elapsed)
}
