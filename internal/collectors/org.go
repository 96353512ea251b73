// Package collectors contains the production collector set and the table
// that registers it.
package collectors

import (
	"context"
	"fmt"

	"github.com/merakitools/dashboard-exporter/internal/collector"
	"github.com/merakitools/dashboard-exporter/internal/metricstore"
	"go.uber.org/zap"
)

// OrgCollector exports organization-level data: API availability, license
// state and licensed device counts. Slow tier, the data barely changes.
type OrgCollector struct {
	deps collector.Deps

	apiEnabled      *metricstore.Handle
	licenseOK       *metricstore.Handle
	licensedDevices *metricstore.Handle
}

func NewOrg(deps collector.Deps) collector.Collector {
	c := &OrgCollector{deps: deps}
	c.apiEnabled = deps.Store.MustMetric(metricstore.Definition{
		Name:   "dashboard_exporter_org_api_enabled",
		Help:   "Whether API access is enabled for the organization.",
		Kind:   metricstore.Gauge,
		Labels: []string{"org_id", "org_name"},
	})
	c.licenseOK = deps.Store.MustMetric(metricstore.Definition{
		Name:   "dashboard_exporter_org_license_ok",
		Help:   "Whether the organization license status is OK.",
		Kind:   metricstore.Gauge,
		Labels: []string{"org_id"},
	})
	c.licensedDevices = deps.Store.MustMetric(metricstore.Definition{
		Name:   "dashboard_exporter_org_licensed_devices",
		Help:   "Licensed device count by device type.",
		Kind:   metricstore.Gauge,
		Labels: []string{"org_id", "device_type"},
	})
	return c
}

func (c *OrgCollector) Name() string         { return "org" }
func (c *OrgCollector) Tier() collector.Tier { return collector.TierSlow }

func (c *OrgCollector) Collect(ctx context.Context) error {
	orgID := c.deps.Cfg.API.OrgID

	org, err := c.deps.API.GetOrganization(ctx, orgID)
	if err != nil {
		// Nothing useful can be done without the organization itself.
		return fmt.Errorf("fetching organization: %w", err)
	}
	enabled := 0.0
	if org.API.Enabled {
		enabled = 1.0
	}
	if err := c.deps.Store.Set(c.apiEnabled, enabled, org.ID, org.Name); err != nil {
		return err
	}

	overview, err := c.deps.API.GetLicenseOverview(ctx, orgID)
	if err != nil {
		if collector.IsNotAvailable(err) {
			// Per-device licensing orgs have no overview endpoint.
			zap.S().Debugf("License overview not available for org %s", orgID)
			return nil
		}
		return fmt.Errorf("fetching license overview: %w", err)
	}

	ok := 0.0
	if overview.Status == "OK" {
		ok = 1.0
	}
	if err := c.deps.Store.Set(c.licenseOK, ok, org.ID); err != nil {
		return err
	}
	for deviceType, count := range overview.LicensedDeviceCounts {
		if err := c.deps.Store.Set(c.licensedDevices, float64(count), org.ID, deviceType); err != nil {
			return err
		}
	}
	return nil
}
