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

func TestRegionContains_EdgesInclusive(t *testing.T) {
	r := Region{MinLat: -1, MaxLat: 1, MinLon: 10, MaxLon: 12}

	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"center", 0, 11, true},
		{"min corner", -1, 10, true},
		{"max corner", 1, 12, true},
		{"north of box", 1.0001, 11, false},
		{"west of box", 0, 9.9999, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Contains(tt.lat, tt.lon))
		})
	}
}

func TestFindRegionsForPoint_MostSpecificFirst(t *testing.T) {
	resolver := NewRegionResolver(newKenyaStore(), logger.NewTestLogger(t))

	regions, err := resolver.FindRegionsForPoint(context.Background(), -0.3, 36.1)
	require.NoError(t, err)

	ids := make([]string, len(regions))
	for i, r := range regions {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"ke-nakuru", "ke", "global"}, ids)
}

func TestFindRegionsForPoint_EveryResultContainsPoint(t *testing.T) {
	store := &faultyStore{
		MemoryStore: newKenyaStore(),
		extra: []Region{
			{ID: "far", Name: "Far Away", Level: 3, MinLat: 50, MaxLat: 51, MinLon: 0, MaxLon: 1, IsActive: true},
			{ID: "off", Name: "Disabled", Level: 3, MinLat: -90, MaxLat: 90, MinLon: -180, MaxLon: 180},
		},
	}
	resolver := NewRegionResolver(store, logger.NewNoOpLogger())

	points := [][2]float64{{-0.3, 36.1}, {9.0, 38.7}, {4.0, 35.0}, {-89, 179}}
	for _, p := range points {
		regions, err := resolver.FindRegionsForPoint(context.Background(), p[0], p[1])
		require.NoError(t, err)
		for _, r := range regions {
			assert.True(t, r.IsActive)
			assert.True(t, r.Contains(p[0], p[1]), "region %s does not contain %v", r.ID, p)
		}
	}
}

func TestFindRegionsForPoint_OverlapBothReturned(t *testing.T) {
	resolver := NewRegionResolver(newKenyaStore(), logger.NewNoOpLogger())

	// Kenya and Ethiopia boxes overlap around Moyale.
	regions, err := resolver.FindRegionsForPoint(context.Background(), 4.0, 38.0)
	require.NoError(t, err)
	require.Len(t, regions, 3)
	assert.Equal(t, "Ethiopia", regions[0].Name)
	assert.Equal(t, "Kenya", regions[1].Name)
	assert.Equal(t, "global", regions[2].ID)
}

func TestFindRegionsForPoint_StoreError(t *testing.T) {
	store := &faultyStore{MemoryStore: newKenyaStore(), regionsErr: errors.New("connection refused")}
	resolver := NewRegionResolver(store, logger.NewNoOpLogger())

	_, err := resolver.FindRegionsForPoint(context.Background(), 0, 0)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCatalogQueryFailed))
}

func TestBuildHierarchy(t *testing.T) {
	resolver := NewRegionResolver(newKenyaStore(), logger.NewTestLogger(t))
	ctx := context.Background()

	got := resolver.BuildHierarchy(ctx, []string{"ke-nakuru"})
	assert.Equal(t, []string{"global", "ke", "ke-nakuru"}, HierarchyIDs(got))

	again := resolver.BuildHierarchy(ctx, HierarchyIDs(got))
	assert.Equal(t, got, again)
}

func TestBuildHierarchy_Empty(t *testing.T) {
	resolver := NewRegionResolver(newKenyaStore(), logger.NewNoOpLogger())
	assert.Empty(t, resolver.BuildHierarchy(context.Background(), nil))
}

func TestBuildHierarchy_CycleTerminates(t *testing.T) {
	m := NewMemoryStore()
	m.AddRegion(Region{ID: "a", Name: "A", ParentRegionID: strPtr("b"), IsActive: true})
	m.AddRegion(Region{ID: "b", Name: "B", ParentRegionID: strPtr("c"), IsActive: true})
	m.AddRegion(Region{ID: "c", Name: "C", ParentRegionID: strPtr("a"), IsActive: true})
	resolver := NewRegionResolver(m, logger.NewTestLogger(t))

	got := resolver.BuildHierarchy(context.Background(), []string{"a"})
	assert.Equal(t, []string{"a", "b", "c"}, HierarchyIDs(got))
}

func TestBuildHierarchy_SelfParent(t *testing.T) {
	m := NewMemoryStore()
	m.AddRegion(Region{ID: "loop", Name: "Loop", ParentRegionID: strPtr("loop"), IsActive: true})
	resolver := NewRegionResolver(m, logger.NewNoOpLogger())

	got := resolver.BuildHierarchy(context.Background(), []string{"loop"})
	assert.Equal(t, []string{"loop"}, HierarchyIDs(got))
}

func TestBuildHierarchy_ParentLookupErrorKeepsPartial(t *testing.T) {
	store := &faultyStore{MemoryStore: newKenyaStore(), parentErr: errors.New("timeout")}
	resolver := NewRegionResolver(store, logger.NewNoOpLogger())

	got := resolver.BuildHierarchy(context.Background(), []string{"ke-nakuru"})
	assert.Equal(t, []string{"ke-nakuru"}, HierarchyIDs(got))
}
