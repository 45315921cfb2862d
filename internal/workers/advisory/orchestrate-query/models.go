// internal/workers/advisory/orchestrate-query/models.go
package orchestratequery

import (
	"agri-advisor/internal/catalog"
	"agri-advisor/internal/orchestrator"
)

type Input struct {
	RequestID string   `json:"requestId"`
	Message   string   `json:"message"`
	Language  string   `json:"language"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type Output struct {
	*orchestrator.Result
	DetectedRegions []catalog.Region `json:"detectedRegions"`
}

const inputSchema = `{
	"type": "object",
	"required": ["message"],
	"properties": {
		"requestId": {"type": "string"},
		"message":   {"type": "string", "minLength": 1, "maxLength": 4000},
		"language":  {"type": "string", "maxLength": 16},
		"latitude":  {"type": ["number", "null"], "minimum": -90, "maximum": 90},
		"longitude": {"type": ["number", "null"], "minimum": -180, "maximum": 180}
	}
}`
