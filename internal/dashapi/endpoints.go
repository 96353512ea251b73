package dashapi

import (
	"context"
	"fmt"
)

func (c *Client) GetOrganization(ctx context.Context, orgID string) (*Organization, error) {
	var org Organization
	_, err := c.get(ctx, "getOrganization", fmt.Sprintf("/organizations/%s", orgID), nil, &org)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (c *Client) GetLicenseOverview(ctx context.Context, orgID string) (*LicenseOverview, error) {
	var overview LicenseOverview
	_, err := c.get(ctx, "getLicenseOverview", fmt.Sprintf("/organizations/%s/licenses/overview", orgID), nil, &overview)
	if err != nil {
		return nil, err
	}
	return &overview, nil
}

func (c *Client) ListNetworks(ctx context.Context, orgID string) ([]Network, error) {
	var networks []Network
	err := c.getPaginated(ctx, "listNetworks", fmt.Sprintf("/organizations/%s/networks", orgID), nil, func(body []byte) error {
		var page []Network
		if err := json.Unmarshal(body, &page); err != nil {
			return err
		}
		networks = append(networks, page...)
		return nil
	})
	return networks, err
}

func (c *Client) ListDevices(ctx context.Context, orgID string) ([]Device, error) {
	var devices []Device
	err := c.getPaginated(ctx, "listDevices", fmt.Sprintf("/organizations/%s/devices", orgID), nil, func(body []byte) error {
		var page []Device
		if err := json.Unmarshal(body, &page); err != nil {
			return err
		}
		devices = append(devices, page...)
		return nil
	})
	return devices, err
}

func (c *Client) ListDeviceStatuses(ctx context.Context, orgID string) ([]DeviceStatus, error) {
	var statuses []DeviceStatus
	err := c.getPaginated(ctx, "listDeviceStatuses", fmt.Sprintf("/organizations/%s/devices/statuses", orgID), nil, func(body []byte) error {
		var page []DeviceStatus
		if err := json.Unmarshal(body, &page); err != nil {
			return err
		}
		statuses = append(statuses, page...)
		return nil
	})
	return statuses, err
}

func (c *Client) ListUplinkStatuses(ctx context.Context, orgID string) ([]UplinkStatus, error) {
	var uplinks []UplinkStatus
	err := c.getPaginated(ctx, "listUplinkStatuses", fmt.Sprintf("/organizations/%s/uplinks/statuses", orgID), nil, func(body []byte) error {
		var page []UplinkStatus
		if err := json.Unmarshal(body, &page); err != nil {
			return err
		}
		uplinks = append(uplinks, page...)
		return nil
	})
	return uplinks, err
}

// ListNetworkClients returns the clients seen on a network during the given
// timespan in seconds.
func (c *Client) ListNetworkClients(ctx context.Context, networkID string, timespan int) ([]ClientRecord, error) {
	var clients []ClientRecord
	query := map[string]string{"timespan": fmt.Sprintf("%d", timespan)}
	err := c.getPaginated(ctx, "listNetworkClients", fmt.Sprintf("/networks/%s/clients", networkID), query, func(body []byte) error {
		var page []ClientRecord
		if err := json.Unmarshal(body, &page); err != nil {
			return err
		}
		clients = append(clients, page...)
		return nil
	})
	return clients, err
}

func (c *Client) GetChannelUtilization(ctx context.Context, networkID string) ([]ChannelUtilization, error) {
	var utilization []ChannelUtilization
	_, err := c.get(ctx, "getChannelUtilization", fmt.Sprintf("/networks/%s/networkHealth/channelUtilization", networkID), nil, &utilization)
	if err != nil {
		return nil, err
	}
	return utilization, nil
}

func (c *Client) GetWirelessConnectionStats(ctx context.Context, networkID string, timespan int) (*ConnectionStats, error) {
	var stats ConnectionStats
	query := map[string]string{"timespan": fmt.Sprintf("%d", timespan)}
	_, err := c.get(ctx, "getWirelessConnectionStats", fmt.Sprintf("/networks/%s/wireless/connectionStats", networkID), query, &stats)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) GetPacketLossStats(ctx context.Context, orgID string, timespan int) ([]PacketLossStats, error) {
	var stats []PacketLossStats
	query := map[string]string{"timespan": fmt.Sprintf("%d", timespan)}
	err := c.getPaginated(ctx, "getPacketLossStats", fmt.Sprintf("/organizations/%s/wireless/devices/packetLoss/byDevice", orgID), query, func(body []byte) error {
		var page []PacketLossStats
		if err := json.Unmarshal(body, &page); err != nil {
			return err
		}
		stats = append(stats, page...)
		return nil
	})
	return stats, err
}

// sensorReadingsPage mirrors the nested wire shape of the latest-readings
// endpoint, flattened into SensorReading values for the collector.
type sensorReadingsPage []struct {
	Serial  string `json:"serial"`
	Network struct {
		ID string `json:"id"`
	} `json:"network"`
	Readings []struct {
		Metric      string `json:"metric"`
		TS          string `json:"ts"`
		Temperature *struct {
			Celsius float64 `json:"celsius"`
		} `json:"temperature"`
		Humidity *struct {
			RelativePercentage float64 `json:"relativePercentage"`
		} `json:"humidity"`
		Door *struct {
			Open bool `json:"open"`
		} `json:"door"`
	} `json:"readings"`
}

func (c *Client) ListSensorReadings(ctx context.Context, orgID string) ([]SensorReading, error) {
	var readings []SensorReading
	err := c.getPaginated(ctx, "listSensorReadings", fmt.Sprintf("/organizations/%s/sensor/readings/latest", orgID), nil, func(body []byte) error {
		var page sensorReadingsPage
		if err := json.Unmarshal(body, &page); err != nil {
			return err
		}
		for _, device := range page {
			for _, r := range device.Readings {
				reading := SensorReading{
					Serial:    device.Serial,
					NetworkID: device.Network.ID,
					Metric:    r.Metric,
					TS:        r.TS,
				}
				switch {
				case r.Temperature != nil:
					reading.Value = r.Temperature.Celsius
				case r.Humidity != nil:
					reading.Value = r.Humidity.RelativePercentage
				case r.Door != nil:
					if r.Door.Open {
						reading.Value = 1
					}
				default:
					// Reading types without a mapping are skipped.
					continue
				}
				readings = append(readings, reading)
			}
		}
		return nil
	})
	return readings, err
}
