// internal/workers/advisory/detect-intent/models.go
package detectintent

import "agri-advisor/internal/intent"

type Input struct {
	Message  string `json:"message"`
	Language string `json:"language"`
	Country  string `json:"country"`
}

type Output struct {
	intent.Detection
}

const inputSchema = `{
	"type": "object",
	"required": ["message"],
	"properties": {
		"message":  {"type": "string", "minLength": 1, "maxLength": 4000},
		"language": {"type": "string", "maxLength": 16},
		"country":  {"type": "string"}
	}
}`
