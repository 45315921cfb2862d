// pkg/registry/schema.go
package registry

// BindingRegistry is the declarative table mapping advisory categories to
// the tool servers and tools that answer them.
type BindingRegistry struct {
	Version     string    `json:"version"`
	LastUpdated string    `json:"lastUpdated"`
	Bindings    []Binding `json:"bindings"`
}

// Binding describes how one category is served. Slugs are tried in order;
// the first present in the location's server list is used.
type Binding struct {
	Category            string            `json:"category"`
	DataSource          string            `json:"dataSource"`
	Slugs               []string          `json:"slugs"`
	RequiresCoordinates bool              `json:"requiresCoordinates"`
	CoordinateHeaders   bool              `json:"coordinateHeaders"`
	TimeoutClass        string            `json:"timeoutClass"`
	Defaults            map[string]string `json:"defaults,omitempty"`
	Calls               []ToolCall        `json:"calls"`
}

// ToolCall is one sub-call of a binding. Arguments names the builders that
// contribute request arguments; Static arguments are sent as is.
type ToolCall struct {
	Name      string                 `json:"name"`
	Tool      string                 `json:"tool"`
	Arguments []string               `json:"arguments"`
	Static    map[string]interface{} `json:"static,omitempty"`
}

const (
	TimeoutClassDefault = "default"
	TimeoutClassImage   = "image"
)

// Argument builders understood by the orchestrator.
const (
	ArgCoordinates = "coordinates"
	ArgCrop        = "crop"
	ArgLivestock   = "livestock"
	ArgLanguage    = "language"
	ArgMessage     = "message"
	ArgCountry     = "country"
)

// bindingSchema covers the per-field rules of the binding file. Rules that
// span items (duplicate categories, duplicate call names) live in
// checkUnique.
const bindingSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["bindings"],
  "additionalProperties": false,
  "properties": {
    "version": {"type": "string"},
    "lastUpdated": {"type": "string"},
    "bindings": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["category", "slugs", "calls"],
        "additionalProperties": false,
        "properties": {
          "category": {
            "type": "string",
            "enum": ["weather", "soil", "fertilizer", "feed", "climate", "advisory", "crop_health", "market"]
          },
          "dataSource": {"type": "string"},
          "slugs": {
            "type": "array",
            "minItems": 1,
            "uniqueItems": true,
            "items": {"type": "string", "minLength": 1}
          },
          "requiresCoordinates": {"type": "boolean"},
          "coordinateHeaders": {"type": "boolean"},
          "timeoutClass": {"type": "string", "enum": ["", "default", "image"]},
          "defaults": {"type": "object", "additionalProperties": {"type": "string"}},
          "calls": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["name", "tool"],
              "additionalProperties": false,
              "properties": {
                "name": {"type": "string", "minLength": 1},
                "tool": {"type": "string", "minLength": 1},
                "arguments": {
                  "type": ["array", "null"],
                  "items": {
                    "type": "string",
                    "enum": ["coordinates", "crop", "livestock", "language", "message", "country"]
                  }
                },
                "static": {"type": "object"}
              }
            }
          }
        }
      }
    }
  }
}`
