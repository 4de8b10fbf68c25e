// Package scrape extracts a single normalized article from an HTML page.
package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/feedhound/marketnews/internal/article"
	"github.com/feedhound/marketnews/internal/fetch"
)

const (
	// SummaryLimit is the number of leading characters of the body kept as
	// the article summary.
	SummaryLimit = 500

	minParagraphLen = 20
	maxBodyLen      = 4000
)

// containerSelectors are tried in order; the one yielding the largest text
// block wins.
var containerSelectors = []string{
	"article p",
	".article p",
	".article-body p",
	".content p",
	".post-content p",
	".entry-content p",
	"main p",
	"#content p",
	"p",
}

// junkIndicators mark boilerplate lines that belong to the page, not the
// story.
var junkIndicators = []string{
	"cookie",
	"gdpr",
	"advertisement",
	"subscribe",
	"newsletter",
	"read more",
	"click here",
	"follow us",
	"share this",
	"sign in",
	"log in",
	"privacy policy",
	"terms of service",
}

type Extractor struct {
	client *fetch.Client
}

func NewExtractor(client *fetch.Client) *Extractor {
	return &Extractor{client: client}
}

// Fetch downloads url and extracts its main content. It returns zero or one
// article; Published is always the fetch time since HTML pages rarely expose
// reliable structured dates.
func (e *Extractor) Fetch(ctx context.Context, url string) ([]article.Article, error) {
	resp, err := e.client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch page %s: %w", url, err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", url, err)
	}

	body := extractBody(doc)
	if body == "" {
		return nil, fmt.Errorf("no extractable content at %s", url)
	}

	return []article.Article{{
		Title:        article.TitleOrPlaceholder(extractTitle(doc), url),
		Summary:      summarize(body),
		Body:         body,
		URL:          url,
		Published:    time.Now(),
		SourceDomain: article.Domain(url),
	}}, nil
}

// extractBody walks the candidate selectors and keeps the largest contiguous
// text block after boilerplate filtering.
func extractBody(doc *goquery.Document) string {
	var best string

	for _, selector := range containerSelectors {
		var paragraphs []string
		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) < minParagraphLen {
				return
			}
			if isJunk(text) {
				return
			}
			paragraphs = append(paragraphs, text)
		})

		candidate := strings.Join(paragraphs, "\n\n")
		if len(candidate) > len(best) {
			best = candidate
		}
	}

	return truncateParagraphs(cleanWhitespace(best), maxBodyLen)
}

func extractTitle(doc *goquery.Document) string {
	for _, selector := range []string{"h1", ".article-title", ".headline", ".entry-title", "title"} {
		title := strings.TrimSpace(doc.Find(selector).First().Text())
		if title != "" {
			return title
		}
	}
	return ""
}

func isJunk(line string) bool {
	lower := strings.ToLower(line)
	for _, indicator := range junkIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

func cleanWhitespace(s string) string {
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(s)
}

// truncateParagraphs caps s at limit bytes without cutting a paragraph in
// half.
func truncateParagraphs(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	paragraphs := strings.Split(s, "\n\n")
	var kept []string
	total := 0
	for _, p := range paragraphs {
		if total+len(p) > limit {
			break
		}
		kept = append(kept, p)
		total += len(p) + 2
	}

	if len(kept) == 0 {
		return s[:limit]
	}
	return strings.Join(kept, "\n\n")
}

// summarize keeps the first SummaryLimit characters of body, appending an
// ellipsis when truncated.
func summarize(body string) string {
	flat := strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(flat) <= SummaryLimit {
		return flat
	}
	runes := []rune(flat)
	return string(runes[:SummaryLimit]) + "..."
}
