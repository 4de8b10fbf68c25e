package sentiment

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/feedhound/marketnews/internal/metrics"
)

const geminiModel = "gemini-1.5-flash"

// maxPromptChars keeps over-long article bodies from blowing up prompts.
const maxPromptChars = 4000

// GeminiScorer scores sentiment with the Gemini API, falling back to the
// keyword lexicon when the daily quota is spent or the call fails.
type GeminiScorer struct {
	client   *genai.Client
	quota    *Quota
	fallback Scorer
}

func NewGeminiScorer(apiKey string, maxPerDay int) (*GeminiScorer, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiScorer{
		client:   client,
		quota:    NewQuota(maxPerDay),
		fallback: NewKeywordScorer(),
	}, nil
}

func (s *GeminiScorer) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

func (s *GeminiScorer) Score(ctx context.Context, title, body string) (Result, error) {
	if !s.quota.TryAcquire() {
		return s.fallback.Score(ctx, title, body)
	}

	res, err := s.score(ctx, title, body)
	if err != nil {
		metrics.Global.IncrementSentimentErrors()
		return s.fallback.Score(ctx, title, body)
	}

	metrics.Global.IncrementSentimentScored()
	return res, nil
}

func (s *GeminiScorer) score(ctx context.Context, title, body string) (Result, error) {
	model := s.client.GenerativeModel(geminiModel)

	body = strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(body) > maxPromptChars {
		runes := []rune(body)
		body = string(runes[:maxPromptChars])
	}

	prompt := fmt.Sprintf(`Classify the market sentiment of this news article.

HEADLINE: %s
ARTICLE: %s

Answer with exactly one line in the form:

SENTIMENT: <positive|negative|neutral> <confidence between 0.0 and 1.0>

Example:

SENTIMENT: negative 0.85
`, title, body)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return Result{}, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return Result{}, fmt.Errorf("no response from Gemini")
	}

	raw := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	return parseResponse(raw)
}

// parseResponse is lenient about the exact shape: it scans every line for a
// recognizable label and an optional trailing confidence.
func parseResponse(raw string) (Result, error) {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.ToLower(line))
		line = strings.TrimPrefix(line, "sentiment:")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var label Label
		switch {
		case strings.HasPrefix(line, "positive"):
			label = Positive
		case strings.HasPrefix(line, "negative"):
			label = Negative
		case strings.HasPrefix(line, "neutral"):
			label = Neutral
		default:
			continue
		}

		confidence := 0.5
		fields := strings.Fields(line)
		if len(fields) > 1 {
			if v, err := strconv.ParseFloat(fields[len(fields)-1], 64); err == nil && v >= 0 && v <= 1 {
				confidence = v
			}
		}
		return Result{Label: label, Confidence: confidence}, nil
	}

	return Result{}, fmt.Errorf("could not parse sentiment response: %q", raw)
}
