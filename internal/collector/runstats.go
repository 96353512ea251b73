package collector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// RunStats tracks the operational health of every collector: run duration,
// error counts by category, last successful run and raw API call outcomes.
type RunStats struct {
	duration    *prometheus.HistogramVec
	errors      *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
	skips       *prometheus.CounterVec
	apiCalls    *prometheus.CounterVec
}

func NewRunStats(reg prometheus.Registerer) *RunStats {
	s := &RunStats{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_exporter_collector_duration_seconds",
			Help:    "Wall-clock duration of one collection pass.",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"collector", "tier"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_exporter_collector_errors_total",
			Help: "Collection passes that failed, by error category.",
		}, []string{"collector", "tier", "category"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dashboard_exporter_collector_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful collection pass.",
		}, []string{"collector", "tier"}),
		skips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_exporter_collector_skipped_ticks_total",
			Help: "Ticks skipped because the previous pass was still running.",
		}, []string{"collector", "tier"}),
		apiCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_exporter_api_calls_total",
			Help: "Dashboard API calls by logical call name and outcome.",
		}, []string{"call", "outcome"}),
	}
	reg.MustRegister(s.duration, s.errors, s.lastSuccess, s.skips, s.apiCalls)
	return s
}

func (s *RunStats) ObserveRun(collector string, tier Tier, d time.Duration) {
	s.duration.WithLabelValues(collector, tier.String()).Observe(d.Seconds())
}

func (s *RunStats) IncError(collector string, tier Tier, category Category) {
	s.errors.WithLabelValues(collector, tier.String(), string(category)).Inc()
}

func (s *RunStats) SetLastSuccess(collector string, tier Tier, t time.Time) {
	s.lastSuccess.WithLabelValues(collector, tier.String()).Set(float64(t.Unix()))
}

func (s *RunStats) IncSkip(collector string, tier Tier) {
	s.skips.WithLabelValues(collector, tier.String()).Inc()
}

// ObserveAPICall is the hook handed to the API client.
func (s *RunStats) ObserveAPICall(call string, outcome string, _ time.Duration) {
	s.apiCalls.WithLabelValues(call, outcome).Inc()
}

// LastSuccess returns the currently exported last-success timestamp, zero
// when the collector has never succeeded. Used by tests and the health
// endpoint.
func (s *RunStats) LastSuccess(collector string, tier Tier) float64 {
	g, err := s.lastSuccess.GetMetricWithLabelValues(collector, tier.String())
	if err != nil {
		return 0
	}
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

// ErrorCount returns the current error counter value for one collector and
// category. Used by tests.
func (s *RunStats) ErrorCount(collector string, tier Tier, category Category) float64 {
	c, err := s.errors.GetMetricWithLabelValues(collector, tier.String(), string(category))
	if err != nil {
		return 0
	}
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
