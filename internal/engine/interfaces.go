package engine

import (
	"github.com/fontanka/edc-check/internal/model"
)

// Classifier is what the engine needs from the term classifier: matching
// for extraction and similarity for duplicate detection.
type Classifier interface {
	Classify(text string) model.ClassificationResult
	Similarity(a, b string) float64
	FuzzyThreshold() float64
}

// Overrides replays reviewer decisions over extracted events.
type Overrides interface {
	Apply(patientID string, period model.Period, events []model.HFEvent) []model.HFEvent
}
