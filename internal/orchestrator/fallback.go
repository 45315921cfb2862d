package orchestrator

import (
	"fmt"

	"agri-advisor/internal/catalog"
)

const (
	ReasonNoCoordinates = "coordinates not provided"
	ReasonCancelled     = "request cancelled"
	ReasonTimeout       = "service timed out"
	ReasonUnreachable   = "service unreachable"
	ReasonNoData        = "service returned no data"
)

// FallbackContext tells the downstream answer composer that a data source
// was unavailable and that it should rely on general knowledge instead.
type FallbackContext struct {
	Category    catalog.Category `json:"category"`
	DataSource  string           `json:"dataSource"`
	Reason      string           `json:"reason"`
	Country     string           `json:"country"`
	Instruction string           `json:"instruction"`
}

func reasonNoService(category catalog.Category, country string) string {
	return fmt.Sprintf("no %s service available for %s", category, country)
}

func newFallback(category catalog.Category, dataSource, reason, country string) *FallbackContext {
	if dataSource == "" {
		dataSource = string(category) + " service"
	}
	return &FallbackContext{
		Category:   category,
		DataSource: dataSource,
		Reason:     reason,
		Country:    country,
		Instruction: fmt.Sprintf(
			"Live %s data from %s is unavailable (%s). Answer using general agricultural knowledge for %s "+
				"and tell the farmer the advice is not based on current local %s data.",
			category, dataSource, reason, displayCountry(country), category,
		),
	}
}
