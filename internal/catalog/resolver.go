package catalog

import (
	"context"
	"sort"

	apperrors "agri-advisor/internal/common/errors"
	"agri-advisor/internal/common/logger"
)

// MaxHierarchyDepth bounds a single parent chain. Real hierarchies are a
// handful of levels deep (global > country > zone > county).
const MaxHierarchyDepth = 32

// RegionResolver answers point containment and ancestor expansion.
type RegionResolver struct {
	store  Store
	logger logger.Logger
}

func NewRegionResolver(store Store, log logger.Logger) *RegionResolver {
	return &RegionResolver{
		store:  store,
		logger: log.With(map[string]interface{}{"component": "region-resolver"}),
	}
}

// FindRegionsForPoint returns every active region whose bbox contains the
// point, most specific first.
func (r *RegionResolver) FindRegionsForPoint(ctx context.Context, lat, lon float64) ([]Region, error) {
	candidates, err := r.store.FindRegionsContaining(ctx, lat, lon)
	if err != nil {
		return nil, apperrors.NewCatalogQueryFailedError("regions_containing", err)
	}

	out := make([]Region, 0, len(candidates))
	for _, reg := range candidates {
		if reg.IsActive && reg.Contains(lat, lon) {
			out = append(out, reg)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level > out[j].Level
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// BuildHierarchy returns ids plus every ancestor reachable through parent
// pointers. Running it on its own output returns the same set.
func (r *RegionResolver) BuildHierarchy(ctx context.Context, ids []string) map[string]struct{} {
	visited := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		visited[id] = struct{}{}
	}

	for _, id := range ids {
		r.walkAncestors(ctx, id, visited)
	}
	return visited
}

func (r *RegionResolver) walkAncestors(ctx context.Context, start string, visited map[string]struct{}) {
	chain := map[string]struct{}{start: {}}
	current := start

	for depth := 0; ; depth++ {
		if depth >= MaxHierarchyDepth {
			r.logger.Error("region hierarchy too deep", map[string]interface{}{
				"error": apperrors.NewRegionHierarchyCycleError(start),
			})
			return
		}
		if ctx.Err() != nil {
			return
		}

		parent, err := r.store.FindParentRegion(ctx, current)
		if err != nil {
			r.logger.Warn("parent region lookup failed", map[string]interface{}{
				"regionId": current,
				"error":    err.Error(),
			})
			return
		}
		if parent == nil {
			return
		}

		if _, seen := chain[parent.ID]; seen {
			r.logger.Error("region hierarchy cycle detected", map[string]interface{}{
				"error": apperrors.NewRegionHierarchyCycleError(parent.ID),
				"from":  start,
			})
			return
		}
		chain[parent.ID] = struct{}{}
		visited[parent.ID] = struct{}{}
		current = parent.ID
	}
}

// HierarchyIDs flattens a hierarchy set into a sorted slice.
func HierarchyIDs(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
