package game

import "strings"

// ChoiceClassifier decides whether a choice is dark (true) or light (false).
type ChoiceClassifier interface {
	Classify(choiceID, choiceText string) bool
}

// ClassifierFunc adapts a plain function to ChoiceClassifier.
type ClassifierFunc func(choiceID, choiceText string) bool

func (f ClassifierFunc) Classify(choiceID, choiceText string) bool {
	return f(choiceID, choiceText)
}

var (
	darkIDKeywords   = []string{"dark", "hurt", "ignore", "nihil", "cruel", "abandon"}
	darkTextKeywords = []string{"kill", "abandon", "nothing matters", "don't care", "meaningless", "leave them", "walk away"}
)

// KeywordClassifier matches lowercased ids and texts against fixed keyword sets.
type KeywordClassifier struct {
	idKeywords   []string
	textKeywords []string
}

var _ ChoiceClassifier = (*KeywordClassifier)(nil)

// NewKeywordClassifier returns the default keyword heuristic.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		idKeywords:   darkIDKeywords,
		textKeywords: darkTextKeywords,
	}
}

// Classify reports whether the choice is dark. Empty input is light.
func (k *KeywordClassifier) Classify(choiceID, choiceText string) bool {
	return containsAny(strings.ToLower(choiceID), k.idKeywords) ||
		containsAny(strings.ToLower(choiceText), k.textKeywords)
}

func containsAny(s string, keywords []string) bool {
	if s == "" {
		return false
	}
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

var defaultClassifier = NewKeywordClassifier()

// Classify uses the default keyword classifier.
func Classify(choiceID, choiceText string) bool {
	return defaultClassifier.Classify(choiceID, choiceText)
}
