// Package clientstore holds inventory discovered from the dashboard API,
// independent of the metric pipeline. Entries are refreshed wholesale per
// network and evicted in bulk once a network goes stale.
package clientstore

import (
	"sync"
	"time"
)

// Client is one discovered client device on a network.
type Client struct {
	ID          string
	MAC         string
	IP          string
	Description string
	Hostname    string
	VLAN        string
}

type indexedClient struct {
	networkID string
	client    Client
}

type networkEntry struct {
	clients     map[string]Client // keyed by client ID
	refreshedAt time.Time
}

// ClientStore is the per-network client inventory with secondary indices by
// MAC and by IP. All mutations keep the indices consistent: an Update
// replaces a network's set wholesale, never merges.
type ClientStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	networks map[string]*networkEntry
	byMAC    map[string]indexedClient
	byIP     map[string]indexedClient

	// now is swappable for staleness tests.
	now func() time.Time
}

func New(ttl time.Duration) *ClientStore {
	return &ClientStore{
		ttl:      ttl,
		networks: make(map[string]*networkEntry),
		byMAC:    make(map[string]indexedClient),
		byIP:     make(map[string]indexedClient),
		now:      time.Now,
	}
}

// Update replaces the client set of a network and records the refresh time.
// Secondary indices are consistent again before Update returns.
func (s *ClientStore) Update(networkID string, clients []Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropIndexesLocked(networkID)

	entry := &networkEntry{
		clients:     make(map[string]Client, len(clients)),
		refreshedAt: s.now(),
	}
	for _, c := range clients {
		entry.clients[c.ID] = c
		if c.MAC != "" {
			s.byMAC[c.MAC] = indexedClient{networkID: networkID, client: c}
		}
		if c.IP != "" {
			s.byIP[c.IP] = indexedClient{networkID: networkID, client: c}
		}
	}
	s.networks[networkID] = entry
}

// ByNetwork returns all clients of a network.
func (s *ClientStore) ByNetwork(networkID string) []Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.networks[networkID]
	if !ok {
		return nil
	}
	out := make([]Client, 0, len(entry.clients))
	for _, c := range entry.clients {
		out = append(out, c)
	}
	return out
}

func (s *ClientStore) ByMAC(mac string) (Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ic, ok := s.byMAC[mac]
	return ic.client, ok
}

func (s *ClientStore) ByIP(ip string) (Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ic, ok := s.byIP[ip]
	return ic.client, ok
}

// ClientCount returns the number of clients currently known on a network.
func (s *ClientStore) ClientCount(networkID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.networks[networkID]
	if !ok {
		return 0
	}
	return len(entry.clients)
}

// NetworkCount returns the number of networks currently held.
func (s *ClientStore) NetworkCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.networks)
}

// IsStale reports whether a network has not been refreshed within the TTL.
// Unknown networks are not stale, they are absent.
func (s *ClientStore) IsStale(networkID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.networks[networkID]
	if !ok {
		return false
	}
	return s.now().Sub(entry.refreshedAt) > s.ttl
}

// CleanupStale evicts every network whose data exceeded the TTL and returns
// the number of networks removed. Candidates are snapshotted first; a
// network refreshed concurrently during the sweep is left alone.
func (s *ClientStore) CleanupStale() int {
	s.mu.RLock()
	type candidate struct {
		networkID   string
		refreshedAt time.Time
	}
	var candidates []candidate
	for id, entry := range s.networks {
		if s.now().Sub(entry.refreshedAt) > s.ttl {
			candidates = append(candidates, candidate{networkID: id, refreshedAt: entry.refreshedAt})
		}
	}
	s.mu.RUnlock()

	evicted := 0
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range candidates {
		entry, ok := s.networks[c.networkID]
		if !ok || !entry.refreshedAt.Equal(c.refreshedAt) {
			// Refreshed since the snapshot was taken.
			continue
		}
		s.dropIndexesLocked(c.networkID)
		delete(s.networks, c.networkID)
		evicted++
	}
	return evicted
}

// dropIndexesLocked removes a network's entries from the secondary indices.
// Caller holds the write lock.
func (s *ClientStore) dropIndexesLocked(networkID string) {
	for mac, ic := range s.byMAC {
		if ic.networkID == networkID {
			delete(s.byMAC, mac)
		}
	}
	for ip, ic := range s.byIP {
		if ic.networkID == networkID {
			delete(s.byIP, ip)
		}
	}
}
