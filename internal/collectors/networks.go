package collectors

import (
	"context"
	"fmt"
	"strconv"

	"github.com/merakitools/dashboard-exporter/internal/clientstore"
	"github.com/merakitools/dashboard-exporter/internal/collector"
	"github.com/merakitools/dashboard-exporter/internal/dashapi"
	"github.com/merakitools/dashboard-exporter/internal/metricstore"
	"go.uber.org/zap"
)

// clientTimespanSeconds is the lookback window for the per-network client
// listing.
const clientTimespanSeconds = 300

// NetworkCollector refreshes the client inventory per network, exports
// client counts and sweeps stale networks out of the store.
type NetworkCollector struct {
	deps collector.Deps

	networkClients *metricstore.Handle
	storeNetworks  *metricstore.Handle
	storeEvictions *metricstore.Handle
}

func NewNetworks(deps collector.Deps) collector.Collector {
	c := &NetworkCollector{deps: deps}
	c.networkClients = deps.Store.MustMetric(metricstore.Definition{
		Name:   "dashboard_exporter_network_clients",
		Help:   "Clients seen on the network within the lookback window.",
		Kind:   metricstore.Gauge,
		Labels: []string{"network_id", "network_name"},
	})
	c.storeNetworks = deps.Store.MustMetric(metricstore.Definition{
		Name: "dashboard_exporter_client_store_networks",
		Help: "Networks currently held in the client store.",
		Kind: metricstore.Gauge,
	})
	c.storeEvictions = deps.Store.MustMetric(metricstore.Definition{
		Name: "dashboard_exporter_client_store_evictions_total",
		Help: "Networks evicted from the client store after exceeding the TTL.",
		Kind: metricstore.Counter,
	})
	return c
}

func (c *NetworkCollector) Name() string         { return "networks" }
func (c *NetworkCollector) Tier() collector.Tier { return collector.TierMedium }

func (c *NetworkCollector) Collect(ctx context.Context) error {
	orgID := c.deps.Cfg.API.OrgID

	networks, err := c.deps.API.ListNetworks(ctx, orgID)
	if err != nil {
		return fmt.Errorf("fetching networks: %w", err)
	}

	// Per-network failures are classified and skipped; the pass carries on
	// and the first significant error is reported once at the end.
	var firstErr error
	for _, network := range networks {
		records, err := c.deps.API.ListNetworkClients(ctx, network.ID, clientTimespanSeconds)
		if err != nil {
			if collector.IsNotAvailable(err) {
				zap.S().Debugf("Client listing not available for network %s", network.ID)
				continue
			}
			zap.S().Warnf("Failed to list clients for network %s: %s", network.ID, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("listing clients for network %s: %w", network.ID, err)
			}
			continue
		}

		c.deps.Clients.Update(network.ID, c.toStoreClients(records))

		if err := c.deps.Store.Set(c.networkClients, float64(len(records)), network.ID, network.Name); err != nil {
			return err
		}
	}

	evicted := c.deps.Clients.CleanupStale()
	if evicted > 0 {
		zap.S().Infof("Evicted %d stale networks from the client store", evicted)
		if err := c.deps.Store.Add(c.storeEvictions, float64(evicted)); err != nil {
			return err
		}
	}
	if err := c.deps.Store.Set(c.storeNetworks, float64(c.deps.Clients.NetworkCount())); err != nil {
		return err
	}
	return firstErr
}

func (c *NetworkCollector) toStoreClients(records []dashapi.ClientRecord) []clientstore.Client {
	out := make([]clientstore.Client, 0, len(records))
	for _, r := range records {
		client := clientstore.Client{
			ID:          r.ID,
			MAC:         r.MAC,
			IP:          r.IP,
			Description: r.Description,
			VLAN:        vlanString(r.VLAN),
		}
		if hostname, ok := c.deps.Discovery.Hostname(r.MAC); ok {
			client.Hostname = hostname
		} else if r.Description != "" {
			client.Hostname = r.Description
			c.deps.Discovery.Remember(r.MAC, r.Description)
		}
		out = append(out, client)
	}
	return out
}

// vlanString normalizes the VLAN field, which the API returns either as a
// number or a string.
func vlanString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.Itoa(int(t))
	default:
		return ""
	}
}
