package orchestrator

import (
	"strings"

	"agri-advisor/internal/catalog"
)

// GlobalLabel is used when no detected region names a known country.
const GlobalLabel = "global"

var knownCountries = []string{
	"kenya", "ethiopia", "tanzania", "uganda", "rwanda",
	"nigeria", "ghana", "india", "malawi", "zambia",
}

var countryCodes = map[string]string{
	"KE": "kenya",
	"ET": "ethiopia",
	"TZ": "tanzania",
	"UG": "uganda",
	"RW": "rwanda",
	"NG": "nigeria",
	"GH": "ghana",
	"IN": "india",
	"MW": "malawi",
	"ZM": "zambia",
}

// CountryLabel derives a coarse country label from detected regions, most
// specific first. Subdivision codes like "KE-31" resolve through their
// country prefix.
func CountryLabel(regions []catalog.Region) string {
	for _, r := range regions {
		name := strings.ToLower(r.Name)
		for _, c := range knownCountries {
			if strings.Contains(name, c) {
				return c
			}
		}

		code := strings.ToUpper(r.Code)
		if i := strings.IndexByte(code, '-'); i > 0 {
			code = code[:i]
		}
		if c, ok := countryCodes[code]; ok {
			return c
		}
	}
	return GlobalLabel
}

// displayCountry renders a label for human-readable text.
func displayCountry(label string) string {
	if label == "" || label == GlobalLabel {
		return "the farmer's region"
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
