package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "agri-advisor/internal/common/errors"
	"agri-advisor/internal/common/logger"
)

func newTestRegistry(t *testing.T, store Store, endpoints EndpointResolver) *ServerRegistry {
	log := logger.NewTestLogger(t)
	return NewServerRegistry(store, NewRegionResolver(store, log), endpoints, log)
}

func slugs(servers []ToolServer) []string {
	out := make([]string, len(servers))
	for i, s := range servers {
		out[i] = s.Slug
	}
	return out
}

func TestGetActiveServersForLocation_Regional(t *testing.T) {
	registry := newTestRegistry(t, newKenyaStore(), allEndpoints())

	got, err := registry.GetActiveServersForLocation(context.Background(), floatPtr(-0.3), floatPtr(36.1))
	require.NoError(t, err)

	assert.Equal(t, []string{"accuweather"}, slugs(got.Global))
	assert.Equal(t, "http://accuweather:8000", got.Global[0].Endpoint)

	require.Equal(t, []string{"isda-soil", "gap-advisory"}, slugs(got.Regional))
	assert.Equal(t, "Nakuru", got.Regional[0].SourceRegion, "lowest priority mapping wins")
	assert.Equal(t, "Kenya", got.Regional[1].SourceRegion)
	assert.Len(t, got.DetectedRegions, 3)
}

func TestGetActiveServersForLocation_UniqueSlugsAndUsable(t *testing.T) {
	registry := newTestRegistry(t, newKenyaStore(), allEndpoints())

	got, err := registry.GetActiveServersForLocation(context.Background(), floatPtr(4.0), floatPtr(38.0))
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, s := range got.Regional {
		assert.False(t, seen[s.Slug], "duplicate slug %s", s.Slug)
		seen[s.Slug] = true
		assert.True(t, s.IsActive && s.IsDeployed)
		assert.NotEmpty(t, s.Endpoint)
	}
	assert.NotContains(t, seen, "tomorrow-io", "undeployed servers are excluded")
	assert.Equal(t, "Ethiopia", got.Regional[0].SourceRegion)
}

func TestGetActiveServersForLocation_NoCoordinates(t *testing.T) {
	registry := newTestRegistry(t, newKenyaStore(), allEndpoints())

	tests := []struct {
		name     string
		lat, lon *float64
	}{
		{"both missing", nil, nil},
		{"longitude missing", floatPtr(-0.3), nil},
		{"latitude missing", nil, floatPtr(36.1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := registry.GetActiveServersForLocation(context.Background(), tt.lat, tt.lon)
			require.NoError(t, err)
			assert.Equal(t, []string{"accuweather"}, slugs(got.Global))
			assert.Empty(t, got.Regional)
			assert.Empty(t, got.DetectedRegions)
		})
	}
}

func TestGetActiveServersForLocation_DropsServersWithoutEndpoint(t *testing.T) {
	endpoints := NewEndpoints(map[string]string{
		"isda-soil":   "http://isda:8000",
		"accuweather": "   ",
	})
	registry := newTestRegistry(t, newKenyaStore(), endpoints)

	got, err := registry.GetActiveServersForLocation(context.Background(), floatPtr(-0.3), floatPtr(36.1))
	require.NoError(t, err)
	assert.Empty(t, got.Global)
	assert.Equal(t, []string{"isda-soil"}, slugs(got.Regional))
}

func TestGetActiveServersForLocation_RegionalFailureDegrades(t *testing.T) {
	tests := []struct {
		name  string
		store *faultyStore
	}{
		{"region lookup", &faultyStore{MemoryStore: newKenyaStore(), regionsErr: errors.New("boom")}},
		{"mapping lookup", &faultyStore{MemoryStore: newKenyaStore(), mappingsErr: errors.New("boom")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := newTestRegistry(t, tt.store, allEndpoints())
			got, err := registry.GetActiveServersForLocation(context.Background(), floatPtr(-0.3), floatPtr(36.1))
			require.NoError(t, err)
			assert.Equal(t, []string{"accuweather"}, slugs(got.Global))
			assert.Empty(t, got.Regional)
		})
	}
}

func TestGetActiveServersForLocation_GlobalFailure(t *testing.T) {
	store := &faultyStore{MemoryStore: newKenyaStore(), globalErr: errors.New("connection reset")}
	registry := newTestRegistry(t, store, allEndpoints())

	_, err := registry.GetActiveServersForLocation(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestGetActiveServersForLocation_OutsideEveryCountry(t *testing.T) {
	registry := newTestRegistry(t, newKenyaStore(), allEndpoints())

	got, err := registry.GetActiveServersForLocation(context.Background(), floatPtr(51.5), floatPtr(-0.1))
	require.NoError(t, err)
	assert.Empty(t, got.Regional)
	require.Len(t, got.DetectedRegions, 1)
	assert.Equal(t, "global", got.DetectedRegions[0].ID)
}

func TestLocationServers_FindPrefersRegional(t *testing.T) {
	ls := LocationServers{
		Global:   []ToolServer{{Slug: "gap-advisory", Endpoint: "http://global"}},
		Regional: []ToolServer{{Slug: "gap-advisory", Endpoint: "http://regional"}},
	}
	s, ok := ls.Find("gap-advisory")
	require.True(t, ok)
	assert.Equal(t, "http://regional", s.Endpoint)

	_, ok = ls.Find("missing")
	assert.False(t, ok)
	assert.Len(t, ls.All(), 2)
}

func TestEndpoints(t *testing.T) {
	e := NewEndpoints(map[string]string{
		"ACCUWEATHER": "http://weather:8000///",
		"soil-key":    " http://soil:8000 ",
		"blank":       "",
	})
	assert.Equal(t, 2, e.Len())

	u, ok := e.ResolveEndpoint(ToolServer{Slug: "accuweather"})
	require.True(t, ok)
	assert.Equal(t, "http://weather:8000", u)

	u, ok = e.ResolveEndpoint(ToolServer{Slug: "isda-soil", EndpointKey: "soil-key"})
	require.True(t, ok)
	assert.Equal(t, "http://soil:8000", u)

	_, ok = e.ResolveEndpoint(ToolServer{Slug: "blank"})
	assert.False(t, ok)
}

func TestEndpoints_IsolatedFromInput(t *testing.T) {
	in := map[string]string{"accuweather": "http://a"}
	e := NewEndpoints(in)
	in["accuweather"] = "http://b"

	u, _ := e.ResolveEndpoint(ToolServer{Slug: "accuweather"})
	assert.Equal(t, "http://a", u)
}

func TestServerRegistry_MonitoredServers(t *testing.T) {
	store := newKenyaStore()
	store.AddServer(ToolServer{Slug: "nextgen-fertilizer", Category: CategoryFertilizer,
		EndpointKey: "NEXTGEN", IsActive: true, IsDeployed: true})
	store.AddServer(ToolServer{Slug: "retired", Category: CategoryMarket, IsActive: false, IsDeployed: true})

	endpoints := NewEndpoints(map[string]string{
		"accuweather": "http://accuweather:8000",
		"isda-soil":   "http://isda:8000",
		"nextgen":     "http://nextgen:8000/",
		"retired":     "http://retired:8000",
	})
	registry := newTestRegistry(t, store, endpoints)

	servers, err := registry.MonitoredServers(context.Background())
	require.NoError(t, err)

	// gap-advisory has no endpoint; tomorrow-io is not deployed.
	assert.Equal(t, []string{"accuweather", "isda-soil", "nextgen-fertilizer"}, slugs(servers))
	assert.Equal(t, "http://nextgen:8000", servers[2].Endpoint)
}

func TestServerRegistry_MonitoredServers_StoreError(t *testing.T) {
	store := &faultyStore{MemoryStore: newKenyaStore(), activeErr: errors.New("connection reset")}
	registry := newTestRegistry(t, store, allEndpoints())

	_, err := registry.MonitoredServers(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCatalogQueryFailed))
}
