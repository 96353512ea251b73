package clientstore

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DiscoveryService caches resolved device and client hostnames by MAC so
// collectors can label series without re-resolving on every pass. Entries
// expire on their own TTL, unlike the metric retention cache.
type DiscoveryService struct {
	cache *gocache.Cache
}

func NewDiscoveryService(ttl time.Duration) *DiscoveryService {
	return &DiscoveryService{
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Remember stores a resolved hostname for a MAC.
func (d *DiscoveryService) Remember(mac string, hostname string) {
	if mac == "" || hostname == "" {
		return
	}
	d.cache.SetDefault(mac, hostname)
}

// Hostname returns the cached hostname for a MAC.
func (d *DiscoveryService) Hostname(mac string) (string, bool) {
	v, found := d.cache.Get(mac)
	if !found {
		return "", false
	}
	return v.(string), true
}

// Len returns the number of cached entries, expired ones included until the
// janitor sweeps them.
func (d *DiscoveryService) Len() int {
	return d.cache.ItemCount()
}
