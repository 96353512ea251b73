package collectors

import (
	"context"
	"fmt"

	"github.com/merakitools/dashboard-exporter/internal/collector"
	"github.com/merakitools/dashboard-exporter/internal/metricstore"
	"go.uber.org/zap"
)

// SensorCollector exports the latest environmental sensor readings.
// Organizations without sensor hardware answer NOT_AVAILABLE, which is zero
// data rather than an error.
type SensorCollector struct {
	deps collector.Deps

	reading *metricstore.Handle
}

func NewSensors(deps collector.Deps) collector.Collector {
	c := &SensorCollector{deps: deps}
	c.reading = deps.Store.MustMetric(metricstore.Definition{
		Name:   "dashboard_exporter_sensor_reading",
		Help:   "Latest sensor reading per device and metric (celsius, percent, open/closed).",
		Kind:   metricstore.Gauge,
		Labels: []string{"serial", "network_id", "metric"},
	})
	return c
}

func (c *SensorCollector) Name() string         { return "sensors" }
func (c *SensorCollector) Tier() collector.Tier { return collector.TierFast }

func (c *SensorCollector) Collect(ctx context.Context) error {
	orgID := c.deps.Cfg.API.OrgID

	readings, err := c.deps.API.ListSensorReadings(ctx, orgID)
	if err != nil {
		if collector.IsNotAvailable(err) {
			zap.S().Debugf("Sensor readings not available for org %s", orgID)
			return nil
		}
		return fmt.Errorf("fetching sensor readings: %w", err)
	}

	for _, r := range readings {
		if err := c.deps.Store.Set(c.reading, r.Value, r.Serial, r.NetworkID, r.Metric); err != nil {
			return err
		}
	}
	return nil
}
