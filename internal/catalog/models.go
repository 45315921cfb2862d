package catalog

import "time"

// Category is an advisory topic used to pick tool servers.
type Category string

const (
	CategoryWeather    Category = "weather"
	CategorySoil       Category = "soil"
	CategoryFertilizer Category = "fertilizer"
	CategoryFeed       Category = "feed"
	CategoryClimate    Category = "climate"
	CategoryAdvisory   Category = "advisory"

	// Server-only categories; intent detection never emits these.
	CategoryCropHealth Category = "crop_health"
	CategoryMarket     Category = "market"
)

// IntentCategories is the fixed set intent detection can produce, in
// dispatch order.
var IntentCategories = []Category{
	CategoryWeather,
	CategorySoil,
	CategoryFertilizer,
	CategoryFeed,
	CategoryClimate,
	CategoryAdvisory,
}

// HealthStatus is the last observed probe result for a tool server.
type HealthStatus string

const (
	HealthUnknown   HealthStatus = "unknown"
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// Region is a named area approximated by an axis-aligned bounding box.
// Level 0 is global; higher levels are more specific.
type Region struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Code           string  `json:"code"`
	Level          int     `json:"level"`
	MinLat         float64 `json:"minLat"`
	MaxLat         float64 `json:"maxLat"`
	MinLon         float64 `json:"minLon"`
	MaxLon         float64 `json:"maxLon"`
	ParentRegionID *string `json:"parentRegionId,omitempty"`
	IsActive       bool    `json:"isActive"`
}

// Contains reports whether the point lies inside the bbox, edges included.
func (r Region) Contains(lat, lon float64) bool {
	return lat >= r.MinLat && lat <= r.MaxLat && lon >= r.MinLon && lon <= r.MaxLon
}

// ToolServer is an external JSON-RPC service exposing advisory tools.
// SourceRegion is only set on regional results.
type ToolServer struct {
	Slug          string       `json:"slug"`
	Name          string       `json:"name"`
	Category      Category     `json:"category"`
	Tools         []string     `json:"tools,omitempty"`
	Capabilities  []string     `json:"capabilities,omitempty"`
	IsGlobal      bool         `json:"isGlobal"`
	IsActive      bool         `json:"isActive"`
	IsDeployed    bool         `json:"isDeployed"`
	EndpointKey   string       `json:"endpointKey,omitempty"`
	HealthStatus  HealthStatus `json:"healthStatus,omitempty"`
	LastCheckedAt *time.Time   `json:"lastCheckedAt,omitempty"`
	SourceRegion  string       `json:"sourceRegion,omitempty"`
	Endpoint      string       `json:"endpoint,omitempty"`
}

// Usable reports whether the server may be dispatched to.
func (s ToolServer) Usable() bool {
	return s.IsActive && s.IsDeployed
}

// RegionToolMapping binds a server to a region. Lower Priority wins.
type RegionToolMapping struct {
	RegionID   string     `json:"regionId"`
	RegionName string     `json:"regionName"`
	Priority   int        `json:"priority"`
	IsActive   bool       `json:"isActive"`
	Server     ToolServer `json:"server"`
}

// LocationServers is what the registry hands to the orchestrator.
type LocationServers struct {
	Global          []ToolServer `json:"global"`
	Regional        []ToolServer `json:"regional"`
	DetectedRegions []Region     `json:"detectedRegions"`
}

// All returns global servers followed by regional ones.
func (l LocationServers) All() []ToolServer {
	out := make([]ToolServer, 0, len(l.Global)+len(l.Regional))
	out = append(out, l.Global...)
	return append(out, l.Regional...)
}

// Find returns the first server with the given slug, regional entries
// taking precedence over global ones.
func (l LocationServers) Find(slug string) (ToolServer, bool) {
	for _, s := range l.Regional {
		if s.Slug == slug {
			return s, true
		}
	}
	for _, s := range l.Global {
		if s.Slug == slug {
			return s, true
		}
	}
	return ToolServer{}, false
}
