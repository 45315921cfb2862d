package catalog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store is the read side of the tool-server catalog plus the best-effort
// health write used by the monitor.
type Store interface {
	FindRegionsContaining(ctx context.Context, lat, lon float64) ([]Region, error)
	FindRegionMappings(ctx context.Context, regionIDs []string) ([]RegionToolMapping, error)
	FindGlobalServers(ctx context.Context) ([]ToolServer, error)
	// FindActiveServers lists every active, deployed server, global or
	// regional, for the health monitor.
	FindActiveServers(ctx context.Context) ([]ToolServer, error)
	FindParentRegion(ctx context.Context, regionID string) (*Region, error)
	UpdateHealthStatus(ctx context.Context, slug string, status HealthStatus, checkedAt time.Time) error
}

// RegionIndex answers point-in-region queries. Elasticsearch implements it
// when a region index is configured.
type RegionIndex interface {
	FindRegionsContaining(ctx context.Context, lat, lon float64) ([]Region, error)
}

// IndexedStore routes point lookups to a RegionIndex and everything else to
// the underlying Store.
type IndexedStore struct {
	Store
	Index RegionIndex
}

func (s IndexedStore) FindRegionsContaining(ctx context.Context, lat, lon float64) ([]Region, error) {
	return s.Index.FindRegionsContaining(ctx, lat, lon)
}

// MemoryStore keeps the catalog in process. Used by tests and local runs.
type MemoryStore struct {
	mu       sync.RWMutex
	regions  map[string]Region
	servers  map[string]ToolServer
	mappings []memoryMapping
}

type memoryMapping struct {
	regionID string
	slug     string
	priority int
	active   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		regions: make(map[string]Region),
		servers: make(map[string]ToolServer),
	}
}

func (m *MemoryStore) AddRegion(r Region) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regions[r.ID] = r
}

func (m *MemoryStore) AddServer(s ToolServer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.servers[s.Slug] = s
}

func (m *MemoryStore) AddMapping(regionID, slug string, priority int, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mappings = append(m.mappings, memoryMapping{regionID: regionID, slug: slug, priority: priority, active: active})
}

func (m *MemoryStore) FindRegionsContaining(_ context.Context, lat, lon float64) ([]Region, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Region
	for _, r := range m.regions {
		if r.IsActive && r.Contains(lat, lon) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryStore) FindRegionMappings(_ context.Context, regionIDs []string) ([]RegionToolMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[string]bool, len(regionIDs))
	for _, id := range regionIDs {
		wanted[id] = true
	}

	var out []RegionToolMapping
	for _, mp := range m.mappings {
		if !mp.active || !wanted[mp.regionID] {
			continue
		}
		srv, ok := m.servers[mp.slug]
		if !ok {
			continue
		}
		out = append(out, RegionToolMapping{
			RegionID:   mp.regionID,
			RegionName: m.regions[mp.regionID].Name,
			Priority:   mp.priority,
			IsActive:   mp.active,
			Server:     srv,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

func (m *MemoryStore) FindGlobalServers(_ context.Context) ([]ToolServer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ToolServer
	for _, s := range m.servers {
		if s.IsGlobal && s.IsActive && s.IsDeployed {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (m *MemoryStore) FindActiveServers(_ context.Context) ([]ToolServer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ToolServer
	for _, s := range m.servers {
		if s.Usable() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

// Server returns the stored row for slug.
func (m *MemoryStore) Server(slug string) (ToolServer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.servers[slug]
	return s, ok
}

func (m *MemoryStore) FindParentRegion(_ context.Context, regionID string) (*Region, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.regions[regionID]
	if !ok || r.ParentRegionID == nil {
		return nil, nil
	}
	parent, ok := m.regions[*r.ParentRegionID]
	if !ok {
		return nil, nil
	}
	return &parent, nil
}

func (m *MemoryStore) UpdateHealthStatus(_ context.Context, slug string, status HealthStatus, checkedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.servers[slug]; ok {
		s.HealthStatus = status
		s.LastCheckedAt = &checkedAt
		m.servers[slug] = s
	}
	return nil
}
