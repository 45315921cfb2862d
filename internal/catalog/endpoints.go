package catalog

import (
	"strings"
)

// EndpointResolver maps a server to its base URL.
type EndpointResolver interface {
	ResolveEndpoint(server ToolServer) (string, bool)
}

// Endpoints is an immutable key→URL table built once from configuration.
type Endpoints struct {
	urls map[string]string
}

// NewEndpoints copies the table; later changes to the input are not seen.
// Blank URLs are dropped and trailing slashes trimmed.
func NewEndpoints(urls map[string]string) Endpoints {
	copied := make(map[string]string, len(urls))
	for k, v := range urls {
		v = strings.TrimRight(strings.TrimSpace(v), "/")
		if v == "" {
			continue
		}
		copied[strings.ToLower(k)] = v
	}
	return Endpoints{urls: copied}
}

// ResolveEndpoint looks up the server's EndpointKey, falling back to its slug.
func (e Endpoints) ResolveEndpoint(server ToolServer) (string, bool) {
	if server.EndpointKey != "" {
		if u, ok := e.urls[strings.ToLower(server.EndpointKey)]; ok {
			return u, true
		}
	}
	u, ok := e.urls[strings.ToLower(server.Slug)]
	return u, ok
}

// Len reports how many endpoints are configured.
func (e Endpoints) Len() int { return len(e.urls) }
