package intent

import (
	"context"

	"agri-advisor/internal/catalog"
	apperrors "agri-advisor/internal/common/errors"
	"agri-advisor/internal/common/logger"
	"agri-advisor/internal/common/metrics"
)

// Source says which tier produced a detection.
type Source string

const (
	SourceKeywords Source = "keywords"
	SourceLLM      Source = "llm"
	SourceNone     Source = "none"
)

// Classifier is the remote tier. RemoteClassifier implements it.
type Classifier interface {
	Classify(ctx context.Context, message, language string) (*Classification, error)
}

// Detection is the outcome of intent detection. Classification is set only
// when the remote tier returned one.
type Detection struct {
	Categories     []catalog.Category `json:"categories"`
	Classification *Classification    `json:"classification,omitempty"`
	Source         Source             `json:"source"`
}

type Detector struct {
	classifier Classifier
	logger     logger.Logger
}

// NewDetector builds a detector. A nil classifier disables the remote tier.
func NewDetector(classifier Classifier, log logger.Logger) *Detector {
	return &Detector{
		classifier: classifier,
		logger:     log.With(map[string]interface{}{"component": "intent-detector"}),
	}
}

// DetectIntents runs the keyword tier and, only when it finds nothing, the
// remote classifier. It never fails: an unusable classifier yields an empty
// detection with SourceNone. country is used for logging only.
func (d *Detector) DetectIntents(ctx context.Context, message, country, language string) Detection {
	if found := DetectIntentsFromKeywords(message); len(found) > 0 {
		return d.done(Detection{Categories: Categories(found), Source: SourceKeywords}, country)
	}

	none := Detection{Categories: []catalog.Category{}, Source: SourceNone}
	if d.classifier == nil {
		return d.done(none, country)
	}

	cl, err := d.classifier.Classify(ctx, message, language)
	if err != nil {
		d.logger.Warn("intent classification unavailable", map[string]interface{}{
			"country": country,
			"error":   apperrors.NewClassificationUnavailableError(err),
		})
		return d.done(none, country)
	}

	derived := CategoriesFromClassification(cl)
	if len(derived) == 0 {
		none.Classification = cl
		return d.done(none, country)
	}
	return d.done(Detection{Categories: Categories(derived), Classification: cl, Source: SourceLLM}, country)
}

func (d *Detector) done(det Detection, country string) Detection {
	metrics.IntentDetections.WithLabelValues(string(det.Source)).Inc()
	d.logger.Debug("intents detected", map[string]interface{}{
		"source":     string(det.Source),
		"categories": det.Categories,
		"country":    country,
	})
	return det
}
