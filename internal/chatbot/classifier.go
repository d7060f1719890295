package chatbot

import (
	"strings"

	"shopassist/internal/model"
)

// Classifier assigns an intent to a message using first-match-wins over
// the pattern table. Earlier declared intents win regardless of how
// specific a later pattern is.
type Classifier struct {
	table *PatternTable
}

// NewClassifier creates a classifier over the given table
func NewClassifier(table *PatternTable) *Classifier {
	return &Classifier{table: table}
}

// Classify returns the first matching intent with MatchedConfidence, or
// IntentOther with FallbackConfidence when nothing matches.
func (c *Classifier) Classify(text string) model.IntentMatch {
	lower := strings.ToLower(text)

	for _, entry := range c.table.intents {
		for _, re := range entry.Patterns {
			if re.MatchString(lower) {
				return model.IntentMatch{Intent: entry.Intent, Confidence: model.MatchedConfidence}
			}
		}
	}

	return model.IntentMatch{Intent: model.IntentOther, Confidence: model.FallbackConfidence}
}
