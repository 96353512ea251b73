package collectors

import (
	"context"
	"fmt"

	"github.com/merakitools/dashboard-exporter/internal/collector"
	"github.com/merakitools/dashboard-exporter/internal/metricstore"
	"go.uber.org/zap"
)

// DeviceCollector exports per-device availability and uplink state, and
// feeds the discovery cache with resolved device names.
type DeviceCollector struct {
	deps collector.Deps

	deviceUp *metricstore.Handle
	uplinkUp *metricstore.Handle
}

func NewDevices(deps collector.Deps) collector.Collector {
	c := &DeviceCollector{deps: deps}
	c.deviceUp = deps.Store.MustMetric(metricstore.Definition{
		Name:   "dashboard_exporter_device_up",
		Help:   "Whether the device currently reports status online.",
		Kind:   metricstore.Gauge,
		Labels: []string{"serial", "name", "model", "network_id"},
	})
	c.uplinkUp = deps.Store.MustMetric(metricstore.Definition{
		Name:   "dashboard_exporter_device_uplink_up",
		Help:   "Whether the device uplink interface is active.",
		Kind:   metricstore.Gauge,
		Labels: []string{"serial", "network_id", "interface"},
	})
	return c
}

func (c *DeviceCollector) Name() string         { return "devices" }
func (c *DeviceCollector) Tier() collector.Tier { return collector.TierMedium }

func (c *DeviceCollector) Collect(ctx context.Context) error {
	orgID := c.deps.Cfg.API.OrgID

	statuses, err := c.deps.API.ListDeviceStatuses(ctx, orgID)
	if err != nil {
		return fmt.Errorf("fetching device statuses: %w", err)
	}
	for _, st := range statuses {
		up := 0.0
		if st.Status == "online" {
			up = 1.0
		}
		if err := c.deps.Store.Set(c.deviceUp, up, st.Serial, st.Name, st.Model, st.NetworkID); err != nil {
			return err
		}
		c.deps.Discovery.Remember(st.MAC, st.Name)
	}

	uplinks, err := c.deps.API.ListUplinkStatuses(ctx, orgID)
	if err != nil {
		if collector.IsNotAvailable(err) {
			// Orgs without appliance or cellular products have no uplinks.
			zap.S().Debugf("Uplink statuses not available for org %s", orgID)
			return nil
		}
		return fmt.Errorf("fetching uplink statuses: %w", err)
	}
	for _, device := range uplinks {
		for _, uplink := range device.Uplinks {
			up := 0.0
			if uplink.Status == "active" || uplink.Status == "ready" {
				up = 1.0
			}
			if err := c.deps.Store.Set(c.uplinkUp, up, device.Serial, device.NetworkID, uplink.Interface); err != nil {
				return err
			}
		}
	}
	return nil
}
