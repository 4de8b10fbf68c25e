// Package classify decides how a source URL should be fetched: as a
// structured RSS/Atom feed or as an HTML page needing content extraction.
// Classification is advisory — any error falls back to the HTML path, and the
// real fetch can still fail downstream.
package classify

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/feedhound/marketnews/internal/fetch"
	"github.com/feedhound/marketnews/internal/logger"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindFeed
	KindHTML
)

func (k Kind) String() string {
	switch k {
	case KindFeed:
		return "feed"
	case KindHTML:
		return "html"
	default:
		return "unknown"
	}
}

var feedLinkType = regexp.MustCompile(`application/(rss|atom)\+xml`)

type Classifier struct {
	client *fetch.Client
}

func New(client *fetch.Client) *Classifier {
	return &Classifier{client: client}
}

// Classify probes rawURL and reports whether it serves a feed or an HTML
// page. The returned URL equals rawURL except when feed autodiscovery finds a
// `<link>` alternate, in which case it is the discovered feed URL.
//
// Priority: response content-type, then URL shape, then `<link>`
// autodiscovery tags in the body. First match wins.
func (c *Classifier) Classify(ctx context.Context, rawURL string) (Kind, string) {
	resp, err := c.client.Get(ctx, rawURL)
	if err != nil {
		logger.Debug("classify probe failed, assuming html", "url", rawURL, "error", err)
		if urlLooksLikeFeed(rawURL) {
			return KindFeed, rawURL
		}
		return KindHTML, rawURL
	}
	defer resp.Body.Close()

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	for _, hint := range []string{"rss", "xml", "atom"} {
		if strings.Contains(contentType, hint) {
			return KindFeed, rawURL
		}
	}

	if urlLooksLikeFeed(rawURL) {
		return KindFeed, rawURL
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		logger.Debug("classify body parse failed, assuming html", "url", rawURL, "error", err)
		return KindHTML, rawURL
	}

	if discovered := discoverFeedLink(doc, rawURL); discovered != "" {
		logger.Debug("classify discovered feed link", "url", rawURL, "feed", discovered)
		return KindFeed, discovered
	}

	return KindHTML, rawURL
}

func urlLooksLikeFeed(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, hint := range []string{".rss", ".xml", "feed", "rss.xml"} {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// discoverFeedLink searches `<link rel="alternate">` autodiscovery tags and
// returns the first RSS/Atom href resolved against base, or "".
func discoverFeedLink(doc *goquery.Document, base string) string {
	var found string

	doc.Find("link[type]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		linkType, _ := s.Attr("type")
		if !feedLinkType.MatchString(strings.ToLower(linkType)) {
			return true
		}
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}
		found = resolveURL(base, href)
		return found == ""
	})

	return found
}

func resolveURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}
