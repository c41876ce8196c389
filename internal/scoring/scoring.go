// Package scoring queries a toxicity-scoring service for the attributes the
// moderators are shown when a public message is edited.
package scoring

import "context"

// Attributes requested for every comment.
var Attributes = []string{
	"SEVERE_TOXICITY",
	"PROFANITY",
	"IDENTITY_ATTACK",
	"THREAT",
	"TOXICITY",
	"FLIRTATION",
}

// Scorer returns a score in [0,1] per attribute.
type Scorer interface {
	Score(ctx context.Context, text string) (map[string]float64, error)
}
