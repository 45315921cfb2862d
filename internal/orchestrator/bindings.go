package orchestrator

import (
	"strconv"
	"strings"

	"agri-advisor/internal/catalog"
	"agri-advisor/internal/intent"
	"agri-advisor/pkg/registry"
)

const (
	headerFarmLatitude  = "X-Farm-Latitude"
	headerFarmLongitude = "X-Farm-Longitude"
)

// Bindings indexes a binding registry by category.
type Bindings struct {
	byCategory map[catalog.Category]registry.Binding
}

func NewBindings(reg *registry.BindingRegistry) *Bindings {
	b := &Bindings{byCategory: make(map[catalog.Category]registry.Binding, len(reg.Bindings))}
	for _, binding := range reg.Bindings {
		b.byCategory[catalog.Category(binding.Category)] = binding
	}
	return b
}

// DefaultBindings returns the built-in category table.
func DefaultBindings() *Bindings {
	return NewBindings(registry.Default())
}

// LoadBindings reads bindings from path, or returns the built-in table when
// path is empty.
func LoadBindings(path string) (*Bindings, error) {
	if path == "" {
		return DefaultBindings(), nil
	}
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return nil, err
	}
	return NewBindings(reg), nil
}

func (b *Bindings) For(category catalog.Category) (registry.Binding, bool) {
	binding, ok := b.byCategory[category]
	return binding, ok
}

// selectServer returns the first candidate slug present in servers.
func selectServer(binding registry.Binding, servers catalog.LocationServers) (catalog.ToolServer, bool) {
	for _, slug := range binding.Slugs {
		if s, ok := servers.Find(slug); ok {
			return s, true
		}
	}
	return catalog.ToolServer{}, false
}

// callInput is everything an argument builder may draw on.
type callInput struct {
	latitude       *float64
	longitude      *float64
	message        string
	language       string
	country        string
	classification *intent.Classification
	defaults       map[string]string
}

func buildArguments(call registry.ToolCall, in callInput) map[string]interface{} {
	args := make(map[string]interface{}, len(call.Static)+len(call.Arguments)+1)
	for k, v := range call.Static {
		args[k] = v
	}

	for _, name := range call.Arguments {
		switch name {
		case registry.ArgCoordinates:
			if in.latitude != nil && in.longitude != nil {
				args["latitude"] = *in.latitude
				args["longitude"] = *in.longitude
			}
		case registry.ArgCrop:
			args["crop"] = resolveCrop(in)
		case registry.ArgLivestock:
			livestock := in.classification.PrimaryLivestock()
			if livestock == "" {
				livestock = in.defaults[registry.ArgLivestock]
			}
			args["livestock_type"] = livestock
		case registry.ArgLanguage:
			if in.language != "" {
				args["language"] = in.language
			}
		case registry.ArgMessage:
			args["query"] = in.message
		case registry.ArgCountry:
			args["country"] = in.country
		}
	}
	return args
}

func buildHeaders(binding registry.Binding, in callInput) map[string]string {
	if !binding.CoordinateHeaders || in.latitude == nil || in.longitude == nil {
		return nil
	}
	return map[string]string{
		headerFarmLatitude:  strconv.FormatFloat(*in.latitude, 'f', -1, 64),
		headerFarmLongitude: strconv.FormatFloat(*in.longitude, 'f', -1, 64),
	}
}

// cropWords maps message words to canonical crop names.
var cropWords = []struct {
	word string
	crop string
}{
	{"maize", "maize"},
	{"corn", "maize"},
	{"mahindi", "maize"},
	{"beans", "beans"},
	{"maharage", "beans"},
	{"wheat", "wheat"},
	{"ngano", "wheat"},
	{"teff", "teff"},
	{"sorghum", "sorghum"},
	{"mtama", "sorghum"},
	{"rice", "rice"},
	{"mchele", "rice"},
	{"cassava", "cassava"},
	{"muhogo", "cassava"},
	{"potato", "potato"},
	{"viazi", "potato"},
	{"tomato", "tomato"},
	{"nyanya", "tomato"},
	{"coffee", "coffee"},
	{"kahawa", "coffee"},
	{"tea", "tea"},
	{"banana", "banana"},
	{"ndizi", "banana"},
}

// resolveCrop prefers the classifier's crop, then a crop named in the
// message, then the binding default.
func resolveCrop(in callInput) string {
	if crop := in.classification.PrimaryCrop(); crop != "" {
		return crop
	}
	for _, field := range strings.FieldsFunc(strings.ToLower(in.message), isWordSeparator) {
		for _, cw := range cropWords {
			if field == cw.word {
				return cw.crop
			}
		}
	}
	return in.defaults[registry.ArgCrop]
}

func isWordSeparator(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'':
		return false
	case r > 127:
		return false
	}
	return true
}
