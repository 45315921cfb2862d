// internal/workers/advisory/resolve-servers/models.go
package resolveservers

import "agri-advisor/internal/catalog"

type Input struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type Output struct {
	catalog.LocationServers
	Country string `json:"country"`
}

const inputSchema = `{
	"type": "object",
	"properties": {
		"latitude":  {"type": ["number", "null"], "minimum": -90, "maximum": 90},
		"longitude": {"type": ["number", "null"], "minimum": -180, "maximum": 180}
	}
}`
