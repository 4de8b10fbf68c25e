// Package sentiment labels articles as positive, negative or neutral for
// market-moving news.
package sentiment

import "context"

type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

// Result is a single sentiment verdict. Confidence is in [0, 1].
type Result struct {
	Label      Label
	Confidence float64
}

// Scorer scores the sentiment of one article's text.
type Scorer interface {
	Score(ctx context.Context, title, body string) (Result, error)
}
