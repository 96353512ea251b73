// Package metricstore is the single source of truth for exported metric
// values. Collectors register their metric definitions once at startup and
// mutate samples through handles; the HTTP exposition path reads the backing
// prometheus registry concurrently.
package metricstore

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

type Kind int

const (
	Gauge Kind = iota
	Counter
	Histogram
)

func (k Kind) String() string {
	switch k {
	case Gauge:
		return "gauge"
	case Counter:
		return "counter"
	case Histogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// ErrLabelCardinality is returned when a sample mutation passes a label
// tuple that does not match the metric definition.
var ErrLabelCardinality = errors.New("label values do not match the metric definition")

// Definition describes one metric family. Immutable after registration.
type Definition struct {
	Name    string
	Help    string
	Kind    Kind
	Labels  []string
	Buckets []float64 // histograms only, nil means prometheus defaults
}

// Handle is the mutation capability for one registered metric family.
type Handle struct {
	def     Definition
	gauge   *prometheus.GaugeVec
	counter *prometheus.CounterVec
	hist    *prometheus.HistogramVec
}

func (h *Handle) Definition() Definition { return h.def }

type Store struct {
	reg     *prometheus.Registry
	mu      sync.Mutex
	handles map[string]*Handle
}

func New() *Store {
	return &Store{
		reg:     prometheus.NewRegistry(),
		handles: make(map[string]*Handle),
	}
}

// Registry exposes the backing registry for the exposition handler and for
// components that register native prometheus collectors (run stats).
func (s *Store) Registry() *prometheus.Registry { return s.reg }

// MustMetric registers a metric family and returns its handle. Registering
// the same name twice is a programming error and panics, surfacing at
// startup rather than being swallowed.
func (s *Store) MustMetric(def Definition) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.handles[def.Name]; exists {
		panic(fmt.Sprintf("metric %s registered twice", def.Name))
	}

	h := &Handle{def: def}
	switch def.Kind {
	case Gauge:
		h.gauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: def.Name, Help: def.Help}, def.Labels)
		s.reg.MustRegister(h.gauge)
	case Counter:
		h.counter = prometheus.NewCounterVec(prometheus.CounterOpts{Name: def.Name, Help: def.Help}, def.Labels)
		s.reg.MustRegister(h.counter)
	case Histogram:
		opts := prometheus.HistogramOpts{Name: def.Name, Help: def.Help}
		if def.Buckets != nil {
			opts.Buckets = def.Buckets
		}
		h.hist = prometheus.NewHistogramVec(opts, def.Labels)
		s.reg.MustRegister(h.hist)
	default:
		panic(fmt.Sprintf("metric %s has unknown kind %d", def.Name, def.Kind))
	}

	s.handles[def.Name] = h
	return h
}

// Set upserts a gauge sample. Last write wins per label tuple.
func (s *Store) Set(h *Handle, value float64, labelValues ...string) error {
	if h.gauge == nil {
		return fmt.Errorf("metric %s is not a gauge", h.def.Name)
	}
	m, err := h.gauge.GetMetricWithLabelValues(labelValues...)
	if err != nil {
		return fmt.Errorf("%w: metric %s: %s", ErrLabelCardinality, h.def.Name, err)
	}
	m.Set(value)
	return nil
}

// Add increments a counter sample.
func (s *Store) Add(h *Handle, value float64, labelValues ...string) error {
	if h.counter == nil {
		return fmt.Errorf("metric %s is not a counter", h.def.Name)
	}
	m, err := h.counter.GetMetricWithLabelValues(labelValues...)
	if err != nil {
		return fmt.Errorf("%w: metric %s: %s", ErrLabelCardinality, h.def.Name, err)
	}
	m.Add(value)
	return nil
}

// Observe records a histogram observation.
func (s *Store) Observe(h *Handle, value float64, labelValues ...string) error {
	if h.hist == nil {
		return fmt.Errorf("metric %s is not a histogram", h.def.Name)
	}
	m, err := h.hist.GetMetricWithLabelValues(labelValues...)
	if err != nil {
		return fmt.Errorf("%w: metric %s: %s", ErrLabelCardinality, h.def.Name, err)
	}
	m.Observe(value)
	return nil
}

// Sample is one exported (name, labels, value) triple.
type Sample struct {
	Name   string
	Labels string // canonical "k=v,k=v" form, sorted by label name
	Value  float64
}

// Snapshot gathers a point-in-time view of every sample. Families are
// ordered by name; histogram families export their _count and _sum series.
// Concurrent mutation during a snapshot is allowed, individual samples stay
// consistent (last write wins).
func (s *Store) Snapshot() ([]Sample, error) {
	families, err := s.reg.Gather()
	if err != nil {
		return nil, fmt.Errorf("gathering metrics: %w", err)
	}

	var samples []Sample
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			labels := canonicalLabels(m)
			switch {
			case m.GetGauge() != nil:
				samples = append(samples, Sample{Name: fam.GetName(), Labels: labels, Value: m.GetGauge().GetValue()})
			case m.GetCounter() != nil:
				samples = append(samples, Sample{Name: fam.GetName(), Labels: labels, Value: m.GetCounter().GetValue()})
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				samples = append(samples,
					Sample{Name: fam.GetName() + "_count", Labels: labels, Value: float64(h.GetSampleCount())},
					Sample{Name: fam.GetName() + "_sum", Labels: labels, Value: h.GetSampleSum()},
				)
			}
		}
	}
	return samples, nil
}

// FamilyCardinality is the series count of one metric family, served by the
// cardinality introspection endpoint.
type FamilyCardinality struct {
	Name   string `json:"name"`
	Series int    `json:"series"`
}

func (s *Store) Cardinality() ([]FamilyCardinality, error) {
	families, err := s.reg.Gather()
	if err != nil {
		return nil, fmt.Errorf("gathering metrics: %w", err)
	}
	out := make([]FamilyCardinality, 0, len(families))
	for _, fam := range families {
		out = append(out, FamilyCardinality{Name: fam.GetName(), Series: len(fam.GetMetric())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func canonicalLabels(m *dto.Metric) string {
	pairs := m.GetLabel()
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.GetName()+"="+p.GetValue())
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
