package intent

import (
	"strings"

	"agri-advisor/internal/catalog"
)

// Classification is the structured output of the remote classifier.
type Classification struct {
	MainIntent string   `json:"main_intent"`
	Confidence float64  `json:"confidence"`
	Crops      []string `json:"crops"`
	Livestock  []string `json:"livestock"`
	Practices  []string `json:"practices"`
}

// PrimaryCrop returns the first detected crop, or "".
func (c *Classification) PrimaryCrop() string {
	if c == nil || len(c.Crops) == 0 {
		return ""
	}
	return c.Crops[0]
}

// PrimaryLivestock returns the first detected livestock type, or "".
func (c *Classification) PrimaryLivestock() string {
	if c == nil || len(c.Livestock) == 0 {
		return ""
	}
	return c.Livestock[0]
}

var (
	soilPractices       = []string{"soil_preparation", "soil_analysis"}
	fertilizerPractices = []string{"fertilization"}
	feedMarkers         = []string{"feed", "nutrition"}
	advisoryMarkers     = []string{"advis", "growth_stage", "growth stage", "pest", "disease", "harvest", "planting"}
)

// CategoriesFromClassification maps a classification onto categories.
// Rules are independent; several may apply.
func CategoriesFromClassification(c *Classification) map[catalog.Category]bool {
	out := make(map[catalog.Category]bool)
	if c == nil {
		return out
	}

	intent := strings.ToLower(c.MainIntent)
	practices := lowerAll(c.Practices)

	if strings.Contains(intent, "weather") {
		out[catalog.CategoryWeather] = true
	}
	if strings.Contains(intent, "climate") || strings.Contains(intent, "seasonal") {
		out[catalog.CategoryClimate] = true
	}
	if strings.Contains(intent, "soil") || containsAny(practices, soilPractices) {
		out[catalog.CategorySoil] = true
	}
	if strings.Contains(intent, "fertiliz") || containsAny(practices, fertilizerPractices) {
		out[catalog.CategoryFertilizer] = true
	}
	if len(c.Livestock) > 0 || mentionsAny(intent, practices, feedMarkers) {
		out[catalog.CategoryFeed] = true
	}
	if mentionsAny(intent, practices, advisoryMarkers) {
		out[catalog.CategoryAdvisory] = true
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func containsAny(values, wanted []string) bool {
	for _, v := range values {
		for _, w := range wanted {
			if v == w {
				return true
			}
		}
	}
	return false
}

// mentionsAny reports whether the intent or any practice contains a marker.
func mentionsAny(intent string, practices, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(intent, m) {
			return true
		}
		for _, p := range practices {
			if strings.Contains(p, m) {
				return true
			}
		}
	}
	return false
}
