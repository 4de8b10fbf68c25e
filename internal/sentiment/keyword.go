package sentiment

import (
	"context"
	"strings"
)

var positiveTerms = []string{
	"surge", "rally", "rallies", "gain", "climb", "soar", "rebound",
	"record high", "beat expectations", "upgrade", "bullish", "recover",
	"boom", "jump", "strong demand",
}

var negativeTerms = []string{
	"plunge", "slump", "tumble", "crash", "fall", "slide", "drop",
	"record low", "miss expectations", "downgrade", "bearish", "fears",
	"recession", "shortage", "default", "sanction",
}

// KeywordScorer is the lexicon fallback used when no model-backed scorer is
// configured or its quota is exhausted.
type KeywordScorer struct{}

func NewKeywordScorer() *KeywordScorer {
	return &KeywordScorer{}
}

func (s *KeywordScorer) Score(_ context.Context, title, body string) (Result, error) {
	text := strings.ToLower(title + " " + body)

	pos := countHits(text, positiveTerms)
	neg := countHits(text, negativeTerms)

	total := pos + neg
	if total == 0 {
		return Result{Label: Neutral, Confidence: 0.5}, nil
	}

	if pos == neg {
		return Result{Label: Neutral, Confidence: 0.5}, nil
	}

	label := Positive
	dominant := pos
	if neg > pos {
		label = Negative
		dominant = neg
	}

	// Margin of the dominant polarity, floored so a single hit still
	// carries some weight.
	confidence := float64(dominant) / float64(total)
	if confidence < 0.55 {
		confidence = 0.55
	}
	return Result{Label: label, Confidence: confidence}, nil
}

func countHits(text string, terms []string) int {
	n := 0
	for _, term := range terms {
		n += strings.Count(text, term)
	}
	return n
}
