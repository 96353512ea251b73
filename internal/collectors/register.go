package collectors

import (
	"github.com/merakitools/dashboard-exporter/internal/collector"
	"github.com/merakitools/dashboard-exporter/internal/config"
)

// BuildRegistry assembles the production collector set in one place,
// honoring the per-collector enable flags. Registration order is the
// instantiation order at bootstrap.
func BuildRegistry(cfg config.CollectorConfig) *collector.Registry {
	r := collector.NewRegistry()
	if cfg.Org {
		r.Register(NewOrg)
	}
	if cfg.Devices {
		r.Register(NewDevices)
	}
	if cfg.Networks {
		r.Register(NewNetworks)
	}
	if cfg.Wireless {
		r.Register(NewWireless)
	}
	if cfg.Sensors {
		r.Register(NewSensors)
	}
	return r
}
