package classify

import (
	"context"
	"strings"
)

// misinformationPhrases are claims commonly seen in COVID-19 misinformation.
var misinformationPhrases = []string{
	"5g causes covid", "5g spreads covid", "covid is a hoax", "plandemic",
	"vaccines contain microchips", "vaccine microchip", "bleach cures",
	"drink bleach", "covid isn't real", "covid is not real",
}

// severePhrases additionally mark the claim as dangerous.
var severePhrases = []string{
	"drink bleach", "bleach cures", "don't get vaccinated", "refuse the vaccine",
}

// KeywordClassifier flags text containing known misinformation phrases. It
// needs no model server and is used when none is configured.
type KeywordClassifier struct {
	phrases []string
	severe  []string
}

// NewKeywordClassifier returns a KeywordClassifier with the default phrase lists.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{phrases: misinformationPhrases, severe: severePhrases}
}

// Predict implements Classifier.
func (k *KeywordClassifier) Predict(_ context.Context, text string) (int, error) {
	lower := strings.ToLower(text)
	for _, p := range k.severe {
		if strings.Contains(lower, p) {
			return LabelMisinformationSevere, nil
		}
	}
	for _, p := range k.phrases {
		if strings.Contains(lower, p) {
			return LabelMisinformation, nil
		}
	}
	return LabelNeutral, nil
}
