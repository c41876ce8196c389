// Package classify wraps the misinformation classifier. The model itself is
// a black box behind Classifier; HTTPClassifier talks to a model server and
// KeywordClassifier is a rule-based stand-in for development.
package classify

import (
	"context"
	"slices"
)

// Labels returned by the model. Only LabelMisinformation and
// LabelMisinformationSevere trigger an automatic report.
const (
	LabelMisinformation       = 0
	LabelNeutral              = 1
	LabelMisinformationSevere = 2
)

var flagLabels = []int{LabelMisinformation, LabelMisinformationSevere}

// Classifier predicts a label for a piece of text.
type Classifier interface {
	Predict(ctx context.Context, text string) (int, error)
}

// Flagged reports whether label should raise an automatic misinformation report.
func Flagged(label int) bool {
	return slices.Contains(flagLabels, label)
}
