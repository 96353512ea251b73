package collectors

import (
	"github.com/merakitools/dashboard-exporter/internal/collector"
	"github.com/merakitools/dashboard-exporter/internal/metricstore"
)

// setRetained routes a candidate value through the retention cache before
// exporting it, so a transient zero or absent reading does not make the
// series dip. Samples with no candidate and no retained value are skipped.
func setRetained(deps collector.Deps, h *metricstore.Handle, candidate *float64, labelValues ...string) error {
	def := h.Definition()
	labels := make(map[string]string, len(def.Labels))
	for i, name := range def.Labels {
		if i < len(labelValues) {
			labels[name] = labelValues[i]
		}
	}
	value, ok := deps.Retain.Apply(def.Name, labels, candidate)
	if !ok {
		return nil
	}
	return deps.Store.Set(h, value, labelValues...)
}

func ptr(v float64) *float64 { return &v }
