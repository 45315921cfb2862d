package catalog

import (
	"context"
	"sort"

	apperrors "agri-advisor/internal/common/errors"
	"agri-advisor/internal/common/logger"
)

// ServerRegistry selects the tool servers reachable from a location.
type ServerRegistry struct {
	store     Store
	resolver  *RegionResolver
	endpoints EndpointResolver
	logger    logger.Logger
}

func NewServerRegistry(store Store, resolver *RegionResolver, endpoints EndpointResolver, log logger.Logger) *ServerRegistry {
	return &ServerRegistry{
		store:     store,
		resolver:  resolver,
		endpoints: endpoints,
		logger:    log.With(map[string]interface{}{"component": "server-registry"}),
	}
}

// GetActiveServersForLocation returns global servers and, when both
// coordinates are given, the deduplicated regional servers of every region
// containing the point and its ancestors. Only a failure to read global
// servers is returned as an error; regional lookup failures degrade to
// global-only.
func (r *ServerRegistry) GetActiveServersForLocation(ctx context.Context, lat, lon *float64) (LocationServers, error) {
	out := LocationServers{Global: []ToolServer{}, Regional: []ToolServer{}, DetectedRegions: []Region{}}

	globals, err := r.store.FindGlobalServers(ctx)
	if err != nil {
		return out, apperrors.NewCatalogQueryFailedError("global_servers", err)
	}
	for _, s := range globals {
		if !s.IsGlobal || !s.Usable() {
			continue
		}
		if resolved, ok := r.withEndpoint(s); ok {
			out.Global = append(out.Global, resolved)
		}
	}

	if lat == nil || lon == nil {
		return out, nil
	}

	regions, err := r.resolver.FindRegionsForPoint(ctx, *lat, *lon)
	if err != nil {
		r.logger.Warn("region lookup failed, using global servers only", map[string]interface{}{
			"error": err,
		})
		return out, nil
	}
	out.DetectedRegions = regions
	if len(regions) == 0 {
		return out, nil
	}

	ids := make([]string, len(regions))
	for i, reg := range regions {
		ids[i] = reg.ID
	}
	hierarchy := HierarchyIDs(r.resolver.BuildHierarchy(ctx, ids))

	mappings, err := r.store.FindRegionMappings(ctx, hierarchy)
	if err != nil {
		r.logger.Warn("region mapping lookup failed, using global servers only", map[string]interface{}{
			"error":   err.Error(),
			"regions": hierarchy,
		})
		return out, nil
	}

	out.Regional = r.dedupeRegional(mappings)

	r.logger.Debug("servers resolved for location", map[string]interface{}{
		"lat":      *lat,
		"lon":      *lon,
		"regions":  len(regions),
		"global":   len(out.Global),
		"regional": len(out.Regional),
	})
	return out, nil
}

// dedupeRegional keeps the first mapping per slug in ascending priority
// order. The store already sorts, but the order is re-established here so a
// store that does not sort cannot change which mapping wins.
func (r *ServerRegistry) dedupeRegional(mappings []RegionToolMapping) []ToolServer {
	ordered := sortMappingsByPriority(mappings)

	seen := make(map[string]struct{}, len(ordered))
	out := make([]ToolServer, 0, len(ordered))
	for _, m := range ordered {
		if !m.IsActive {
			continue
		}
		if _, dup := seen[m.Server.Slug]; dup {
			continue
		}
		seen[m.Server.Slug] = struct{}{}

		if !m.Server.Usable() {
			continue
		}
		srv, ok := r.withEndpoint(m.Server)
		if !ok {
			continue
		}
		srv.SourceRegion = m.RegionName
		out = append(out, srv)
	}
	return out
}

// MonitoredServers lists every active, deployed catalog server that has a
// configured endpoint. It is the health monitor's ServerSource.
func (r *ServerRegistry) MonitoredServers(ctx context.Context) ([]ToolServer, error) {
	servers, err := r.store.FindActiveServers(ctx)
	if err != nil {
		return nil, apperrors.NewCatalogQueryFailedError("active_servers", err)
	}
	out := make([]ToolServer, 0, len(servers))
	for _, s := range servers {
		if !s.Usable() {
			continue
		}
		if resolved, ok := r.withEndpoint(s); ok {
			out = append(out, resolved)
		}
	}
	return out, nil
}

func (r *ServerRegistry) withEndpoint(s ToolServer) (ToolServer, bool) {
	u, ok := r.endpoints.ResolveEndpoint(s)
	if !ok {
		r.logger.Debug("dropping server without endpoint", map[string]interface{}{
			"slug":  s.Slug,
			"error": apperrors.NewEndpointNotConfiguredError(s.Slug),
		})
		return ToolServer{}, false
	}
	s.Endpoint = u
	return s, true
}

func sortMappingsByPriority(in []RegionToolMapping) []RegionToolMapping {
	out := make([]RegionToolMapping, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}
