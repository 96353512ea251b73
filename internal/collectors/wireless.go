package collectors

import (
	"context"
	"fmt"

	"github.com/merakitools/dashboard-exporter/internal/collector"
	"github.com/merakitools/dashboard-exporter/internal/metricstore"
	"go.uber.org/zap"
)

const (
	metricChannelUtilization = "dashboard_exporter_wireless_channel_utilization_percent"
	metricConnectionStats    = "dashboard_exporter_wireless_connection_stats"
	metricPacketsTotal       = "dashboard_exporter_wireless_packets_total"
	metricPacketsLost        = "dashboard_exporter_wireless_packets_lost"
)

// ZeroValidMetrics lists the metric names whose zero readings are
// authoritative and bypass retention. An idle AP legitimately reports 0%
// utilization and zero association attempts, and a clean link reports zero
// lost packets; only the packet totals treat a zero as a polling artifact.
// Declared here, next to the metrics themselves, instead of being inferred
// from naming conventions.
var ZeroValidMetrics = []string{
	metricChannelUtilization,
	metricConnectionStats,
	metricPacketsLost,
}

// connectionStatsTimespan is the lookback for association outcome counts.
const connectionStatsTimespan = 300

// WirelessCollector exports per-AP channel utilization, per-network
// association outcomes and per-device packet counters. The vendor
// occasionally reports absent packet totals mid-poll, so those series go
// through the retention cache; everything else keeps its zeros.
type WirelessCollector struct {
	deps collector.Deps

	utilization     *metricstore.Handle
	connectionStats *metricstore.Handle
	packetsTotal    *metricstore.Handle
	packetsLost     *metricstore.Handle
}

func NewWireless(deps collector.Deps) collector.Collector {
	c := &WirelessCollector{deps: deps}
	c.utilization = deps.Store.MustMetric(metricstore.Definition{
		Name:   metricChannelUtilization,
		Help:   "Wireless channel utilization per access point and band.",
		Kind:   metricstore.Gauge,
		Labels: []string{"serial", "band", "kind"},
	})
	c.connectionStats = deps.Store.MustMetric(metricstore.Definition{
		Name:   metricConnectionStats,
		Help:   "Wireless association outcomes on the network over the lookback window.",
		Kind:   metricstore.Gauge,
		Labels: []string{"network_id", "stat"},
	})
	c.packetsTotal = deps.Store.MustMetric(metricstore.Definition{
		Name:   metricPacketsTotal,
		Help:   "Wireless packets transferred per device and direction.",
		Kind:   metricstore.Gauge,
		Labels: []string{"serial", "network_id", "direction"},
	})
	c.packetsLost = deps.Store.MustMetric(metricstore.Definition{
		Name:   metricPacketsLost,
		Help:   "Wireless packets lost per device and direction. Zero is a real value.",
		Kind:   metricstore.Gauge,
		Labels: []string{"serial", "network_id", "direction"},
	})
	return c
}

func (c *WirelessCollector) Name() string         { return "wireless" }
func (c *WirelessCollector) Tier() collector.Tier { return collector.TierFast }

func (c *WirelessCollector) Collect(ctx context.Context) error {
	orgID := c.deps.Cfg.API.OrgID

	networks, err := c.deps.API.ListNetworks(ctx, orgID)
	if err != nil {
		return fmt.Errorf("fetching networks: %w", err)
	}

	var firstErr error
	for _, network := range networks {
		if !hasWireless(network.ProductTypes) {
			continue
		}
		if err := c.collectNetwork(ctx, network.ID); err != nil {
			if collector.IsNotAvailable(err) {
				zap.S().Debugf("Wireless stats not available for network %s", network.ID)
				continue
			}
			zap.S().Warnf("Wireless collection failed for network %s: %s", network.ID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if err := c.collectPacketLoss(ctx, orgID); err != nil {
		if collector.IsNotAvailable(err) {
			zap.S().Debugf("Packet loss stats not available for org %s", orgID)
		} else if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *WirelessCollector) collectNetwork(ctx context.Context, networkID string) error {
	utilization, err := c.deps.API.GetChannelUtilization(ctx, networkID)
	if err != nil {
		return fmt.Errorf("fetching channel utilization: %w", err)
	}
	for _, ap := range utilization {
		if len(ap.Wifi0) > 0 {
			u := ap.Wifi0[len(ap.Wifi0)-1]
			if err := c.setUtilization(ap.Serial, "2.4", u.Utilization, u.Wifi, u.NonWifi); err != nil {
				return err
			}
		}
		if len(ap.Wifi1) > 0 {
			u := ap.Wifi1[len(ap.Wifi1)-1]
			if err := c.setUtilization(ap.Serial, "5", u.Utilization, u.Wifi, u.NonWifi); err != nil {
				return err
			}
		}
	}

	stats, err := c.deps.API.GetWirelessConnectionStats(ctx, networkID, connectionStatsTimespan)
	if err != nil {
		return fmt.Errorf("fetching connection stats: %w", err)
	}
	for stat, candidate := range map[string]*float64{
		"assoc":   stats.Assoc,
		"auth":    stats.Auth,
		"dhcp":    stats.DHCP,
		"dns":     stats.DNS,
		"success": stats.Success,
	} {
		if err := setRetained(c.deps, c.connectionStats, candidate, networkID, stat); err != nil {
			return err
		}
	}
	return nil
}

func (c *WirelessCollector) setUtilization(serial, band string, total, wifi, nonWifi float64) error {
	for kind, value := range map[string]float64{
		"total":    total,
		"wifi":     wifi,
		"non_wifi": nonWifi,
	} {
		if err := setRetained(c.deps, c.utilization, ptr(value), serial, band, kind); err != nil {
			return err
		}
	}
	return nil
}

func (c *WirelessCollector) collectPacketLoss(ctx context.Context, orgID string) error {
	stats, err := c.deps.API.GetPacketLossStats(ctx, orgID, connectionStatsTimespan)
	if err != nil {
		return fmt.Errorf("fetching packet loss stats: %w", err)
	}
	for _, device := range stats {
		pairs := []struct {
			direction string
			total     *float64
			lost      *float64
		}{
			{"downstream", device.DownstreamTotal, device.DownstreamLost},
			{"upstream", device.UpstreamTotal, device.UpstreamLost},
		}
		for _, p := range pairs {
			if err := setRetained(c.deps, c.packetsTotal, p.total, device.Serial, device.NetworkID, p.direction); err != nil {
				return err
			}
			if err := setRetained(c.deps, c.packetsLost, p.lost, device.Serial, device.NetworkID, p.direction); err != nil {
				return err
			}
		}
	}
	return nil
}

func hasWireless(productTypes []string) bool {
	for _, t := range productTypes {
		if t == "wireless" {
			return true
		}
	}
	return false
}
