// Package collector contains the tiered collection core: the collector
// contract, the registry assembled at bootstrap, the per-tier scheduler and
// the failure taxonomy.
package collector

import (
	"context"

	"github.com/merakitools/dashboard-exporter/internal/clientstore"
	"github.com/merakitools/dashboard-exporter/internal/config"
	"github.com/merakitools/dashboard-exporter/internal/dashapi"
	"github.com/merakitools/dashboard-exporter/internal/metricstore"
	"github.com/merakitools/dashboard-exporter/internal/retain"
)

// Collector is one bounded unit of periodic data-gathering. Instances are
// created once at startup, register their metrics in the constructor and
// live until shutdown.
//
// Collect performs one full collection pass. Expected per-resource failures
// are classified and skipped internally; a returned error means the pass as
// a whole failed and counts against the collector's health. The manager
// isolates that failure from sibling collectors either way.
type Collector interface {
	Name() string
	Tier() Tier
	Collect(ctx context.Context) error
}

// Deps is everything a collector constructor may bind to.
type Deps struct {
	API       *dashapi.Client
	Store     *metricstore.Store
	Retain    *retain.Cache
	Clients   *clientstore.ClientStore
	Discovery *clientstore.DiscoveryService
	Cfg       config.Config
}

// Factory builds one collector instance. Metric registration happens here,
// so duplicate metric names surface as a panic during bootstrap.
type Factory func(deps Deps) Collector

// Registry is the static mapping from tier to collector factories. It is an
// explicit object constructed at bootstrap, not package-level state, so
// tests can build and tear down their own.
type Registry struct {
	factories []Factory
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a factory. Registering the same factory twice yields two
// independent collector instances.
func (r *Registry) Register(f Factory) {
	r.factories = append(r.factories, f)
}

// Build instantiates every registered factory exactly once, in registration
// order.
func (r *Registry) Build(deps Deps) []Collector {
	out := make([]Collector, 0, len(r.factories))
	for _, f := range r.factories {
		out = append(out, f(deps))
	}
	return out
}
