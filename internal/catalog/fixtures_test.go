package catalog

import (
	"context"

	"agri-advisor/internal/common/logger"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

// newKenyaStore builds a small catalog:
//
//	global (0) > kenya (1) > nakuru (2)
//	global (0) > ethiopia (1)
func newKenyaStore() *MemoryStore {
	m := NewMemoryStore()
	m.AddRegion(Region{ID: "global", Name: "Global", Code: "GLOBAL", Level: 0,
		MinLat: -90, MaxLat: 90, MinLon: -180, MaxLon: 180, IsActive: true})
	m.AddRegion(Region{ID: "ke", Name: "Kenya", Code: "KE", Level: 1,
		MinLat: -4.7, MaxLat: 5.0, MinLon: 33.9, MaxLon: 41.9, ParentRegionID: strPtr("global"), IsActive: true})
	m.AddRegion(Region{ID: "ke-nakuru", Name: "Nakuru", Code: "KE-31", Level: 2,
		MinLat: -1.0, MaxLat: 0.5, MinLon: 35.5, MaxLon: 36.6, ParentRegionID: strPtr("ke"), IsActive: true})
	m.AddRegion(Region{ID: "et", Name: "Ethiopia", Code: "ET", Level: 1,
		MinLat: 3.4, MaxLat: 14.9, MinLon: 33.0, MaxLon: 48.0, ParentRegionID: strPtr("global"), IsActive: true})

	m.AddServer(ToolServer{Slug: "accuweather", Name: "AccuWeather", Category: CategoryWeather,
		IsGlobal: true, IsActive: true, IsDeployed: true})
	m.AddServer(ToolServer{Slug: "isda-soil", Name: "iSDA Soil", Category: CategorySoil,
		IsActive: true, IsDeployed: true})
	m.AddServer(ToolServer{Slug: "gap-advisory", Name: "GAP Advisory", Category: CategoryAdvisory,
		IsActive: true, IsDeployed: true})
	m.AddServer(ToolServer{Slug: "tomorrow-io", Name: "Tomorrow.io", Category: CategoryClimate,
		IsActive: true, IsDeployed: false})

	m.AddMapping("ke", "isda-soil", 20, true)
	m.AddMapping("ke-nakuru", "isda-soil", 5, true)
	m.AddMapping("ke", "gap-advisory", 10, true)
	m.AddMapping("ke", "tomorrow-io", 1, true)
	m.AddMapping("et", "gap-advisory", 1, true)
	return m
}

func allEndpoints() Endpoints {
	return NewEndpoints(map[string]string{
		"accuweather":  "http://accuweather:8000/",
		"isda-soil":    "http://isda:8000",
		"gap-advisory": "http://gap:8000",
		"tomorrow-io":  "http://tomorrow:8000",
	})
}

// faultyStore overrides selected Store methods with errors.
type faultyStore struct {
	*MemoryStore
	regionsErr  error
	mappingsErr error
	globalErr   error
	activeErr   error
	parentErr   error
	extra       []Region
}

func (f *faultyStore) FindRegionsContaining(ctx context.Context, lat, lon float64) ([]Region, error) {
	if f.regionsErr != nil {
		return nil, f.regionsErr
	}
	out, _ := f.MemoryStore.FindRegionsContaining(ctx, lat, lon)
	return append(out, f.extra...), nil
}

func (f *faultyStore) FindRegionMappings(ctx context.Context, ids []string) ([]RegionToolMapping, error) {
	if f.mappingsErr != nil {
		return nil, f.mappingsErr
	}
	return f.MemoryStore.FindRegionMappings(ctx, ids)
}

func (f *faultyStore) FindGlobalServers(ctx context.Context) ([]ToolServer, error) {
	if f.globalErr != nil {
		return nil, f.globalErr
	}
	return f.MemoryStore.FindGlobalServers(ctx)
}

func (f *faultyStore) FindActiveServers(ctx context.Context) ([]ToolServer, error) {
	if f.activeErr != nil {
		return nil, f.activeErr
	}
	return f.MemoryStore.FindActiveServers(ctx)
}

func (f *faultyStore) FindParentRegion(ctx context.Context, id string) (*Region, error) {
	if f.parentErr != nil {
		return nil, f.parentErr
	}
	return f.MemoryStore.FindParentRegion(ctx, id)
}

func nopLogger() logger.Logger { return logger.NewNoOpLogger() }
