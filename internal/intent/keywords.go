// Package intent detects which advisory categories a farmer's message is
// about: a static keyword table first, a remote classifier second.
package intent

import (
	"strings"

	"agri-advisor/internal/catalog"
)

// keywordTable holds lowercase substrings per category. Entries cover
// English, Swahili and Amharic phrasing seen in farmer messages.
var keywordTable = map[catalog.Category][]string{
	catalog.CategoryWeather: {
		"weather", "forecast", "rainfall", "raining", "rainy", "will it rain",
		"temperature", "humidity", "wind speed",
		"hali ya hewa", "mvua", "joto",
		"የአየር ሁኔታ", "ዝናብ",
	},
	catalog.CategorySoil: {
		"soil", "ph level", "acidity", "organic matter", "soil test",
		"udongo",
		"አፈር",
	},
	catalog.CategoryFertilizer: {
		"fertilizer", "fertiliser", "fertilize", "fertilise", "npk", "urea",
		"manure", "compost", "top dress", "top-dress",
		"mbolea",
		"ማዳበሪያ",
	},
	catalog.CategoryFeed: {
		"feed", "fodder", "livestock", "cattle", "dairy", "poultry", "chicken",
		"goat", "sheep", "pigs", "silage", "napier",
		"chakula cha mifugo", "mifugo", "ng'ombe", "kuku", "lishe",
		"መኖ", "ከብት",
	},
	catalog.CategoryClimate: {
		"climate", "seasonal", "season outlook", "el nino", "el niño", "la nina",
		"drought", "long rains", "short rains",
		"tabianchi", "ukame", "msimu",
		"የአየር ንብረት", "ድርቅ",
	},
	catalog.CategoryAdvisory: {
		"pest", "disease", "harvest", "planting", "when to plant", "growth stage",
		"advice", "advise", "armyworm", "blight", "weeding", "spacing",
		"ushauri", "wadudu", "magonjwa", "mavuno", "kupanda",
		"ምክር", "ተባይ",
	},
}

// DetectIntentsFromKeywords returns the categories whose keyword lists match
// message, case-insensitively. An empty map means no match.
func DetectIntentsFromKeywords(message string) map[catalog.Category]bool {
	lower := strings.ToLower(message)
	found := make(map[catalog.Category]bool)

	for _, category := range catalog.IntentCategories {
		for _, kw := range keywordTable[category] {
			if strings.Contains(lower, kw) {
				found[category] = true
				break
			}
		}
	}
	return found
}

// Categories flattens a category set into dispatch order.
func Categories(set map[catalog.Category]bool) []catalog.Category {
	out := make([]catalog.Category, 0, len(set))
	for _, c := range catalog.IntentCategories {
		if set[c] {
			out = append(out, c)
		}
	}
	return out
}
