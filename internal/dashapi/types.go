package dashapi

// Typed results decoded at the API boundary. Collectors never see raw maps.

type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	API  struct {
		Enabled bool `json:"enabled"`
	} `json:"api"`
}

type LicenseOverview struct {
	Status               string         `json:"status"`
	ExpirationDate       string         `json:"expirationDate"`
	LicensedDeviceCounts map[string]int `json:"licensedDeviceCounts"`
}

type Network struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	ProductTypes []string `json:"productTypes"`
	TimeZone     string   `json:"timeZone"`
	Tags         []string `json:"tags"`
}

type Device struct {
	Serial      string `json:"serial"`
	Name        string `json:"name"`
	Model       string `json:"model"`
	MAC         string `json:"mac"`
	NetworkID   string `json:"networkId"`
	ProductType string `json:"productType"`
	LanIP       string `json:"lanIp"`
	Firmware    string `json:"firmware"`
}

type DeviceStatus struct {
	Serial    string `json:"serial"`
	Name      string `json:"name"`
	Model     string `json:"model"`
	MAC       string `json:"mac"`
	NetworkID string `json:"networkId"`
	// Status is one of online, alerting, offline, dormant.
	Status         string `json:"status"`
	LastReportedAt string `json:"lastReportedAt"`
	PublicIP       string `json:"publicIp"`
}

type UplinkStatus struct {
	Serial    string `json:"serial"`
	NetworkID string `json:"networkId"`
	Model     string `json:"model"`
	Uplinks   []struct {
		Interface string `json:"interface"`
		Status    string `json:"status"`
		IP        string `json:"ip"`
	} `json:"uplinks"`
}

type ClientRecord struct {
	ID          string `json:"id"`
	MAC         string `json:"mac"`
	IP          string `json:"ip"`
	Description string `json:"description"`
	VLAN        any    `json:"vlan"`
	Status      string `json:"status"`
	Usage       struct {
		Sent float64 `json:"sent"`
		Recv float64 `json:"recv"`
	} `json:"usage"`
}

type ChannelUtilization struct {
	Serial string `json:"serial"`
	MAC    string `json:"mac"`
	Wifi0  []struct {
		Utilization float64 `json:"utilization"`
		Wifi        float64 `json:"wifi"`
		NonWifi     float64 `json:"nonWifi"`
	} `json:"wifi0"`
	Wifi1 []struct {
		Utilization float64 `json:"utilization"`
		Wifi        float64 `json:"wifi"`
		NonWifi     float64 `json:"nonWifi"`
	} `json:"wifi1"`
}

// ConnectionStats aggregates wireless association outcomes over a timespan.
type ConnectionStats struct {
	Assoc   *float64 `json:"assoc"`
	Auth    *float64 `json:"auth"`
	DHCP    *float64 `json:"dhcp"`
	DNS     *float64 `json:"dns"`
	Success *float64 `json:"success"`
}

// PacketLossStats carries per-network upstream/downstream packet counts. The
// totals are retention-eligible, the loss counts are authoritative at zero.
type PacketLossStats struct {
	NetworkID       string   `json:"networkId"`
	Serial          string   `json:"serial"`
	DownstreamTotal *float64 `json:"downstreamTotal"`
	DownstreamLost  *float64 `json:"downstreamLost"`
	UpstreamTotal   *float64 `json:"upstreamTotal"`
	UpstreamLost    *float64 `json:"upstreamLost"`
}

type SensorReading struct {
	Serial    string  `json:"serial"`
	NetworkID string  `json:"networkId"`
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
	TS        string  `json:"ts"`
}
