// Package feed extracts normalized articles from RSS/Atom documents.
package feed

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/feedhound/marketnews/internal/article"
	"github.com/feedhound/marketnews/internal/fetch"
)

// DefaultMaxItems caps how many entries a single feed may contribute; only
// the most recent ones are kept.
const DefaultMaxItems = 15

type Extractor struct {
	client   *fetch.Client
	parser   *gofeed.Parser
	maxItems int
}

func NewExtractor(client *fetch.Client, maxItems int) *Extractor {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Extractor{
		client:   client,
		parser:   gofeed.NewParser(),
		maxItems: maxItems,
	}
}

// Fetch downloads and parses a feed, returning at most maxItems articles,
// newest first. Entries without a title still come back (with a placeholder
// title); relevance filtering is the next stage's job, not this one's.
func (e *Extractor) Fetch(ctx context.Context, url string) ([]article.Article, error) {
	resp, err := e.client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", url, err)
	}
	defer resp.Body.Close()

	parsed, err := e.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}

	fetchedAt := time.Now()
	feedDomain := article.Domain(url)

	items := make([]*gofeed.Item, len(parsed.Items))
	copy(items, parsed.Items)
	sort.SliceStable(items, func(i, j int) bool {
		return itemTime(items[i], fetchedAt).After(itemTime(items[j], fetchedAt))
	})
	if len(items) > e.maxItems {
		items = items[:e.maxItems]
	}

	articles := make([]article.Article, 0, len(items))
	for _, it := range items {
		link := strings.TrimSpace(it.Link)

		domain := article.Domain(link)
		if domain == "unknown" {
			domain = feedDomain
		}

		summary := it.Description
		if summary == "" {
			summary = it.Content
		}

		articles = append(articles, article.Article{
			Title:        article.TitleOrPlaceholder(it.Title, link),
			Summary:      stripHTML(summary),
			Body:         stripHTML(it.Content),
			URL:          link,
			Published:    itemTime(it, fetchedAt),
			SourceDomain: domain,
		})
	}

	return articles, nil
}

func itemTime(it *gofeed.Item, fallback time.Time) time.Time {
	if it.PublishedParsed != nil {
		return *it.PublishedParsed
	}
	if it.UpdatedParsed != nil {
		return *it.UpdatedParsed
	}
	return fallback
}

var (
	tagRe   = regexp.MustCompile(`<[^>]*>`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// stripHTML drops markup and entities, leaving plain text.
func stripHTML(s string) string {
	s = tagRe.ReplaceAllString(s, " ")

	replacer := strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", "\"",
		"&#39;", "'",
		"&apos;", "'",
	)
	s = replacer.Replace(s)

	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
