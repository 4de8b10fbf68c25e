// Package article defines the normalized record produced by content
// extraction and consumed by the filtering and ranking stages.
package article

import (
	"net/url"
	"path"
	"strings"
	"time"
)

// Article is a single normalized news item. Instances are immutable once
// produced by an extractor: Title is never empty (a URL-derived placeholder is
// substituted) and Published always carries a value (fetch time when the
// source provides none).
type Article struct {
	Title        string
	Summary      string
	Body         string
	URL          string
	Published    time.Time
	SourceDomain string
}

// Domain extracts the host of a link, without the www. prefix.
func Domain(link string) string {
	if link == "" {
		return "unknown"
	}
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	host := strings.ToLower(u.Host)
	return strings.TrimPrefix(host, "www.")
}

// TitleOrPlaceholder returns title unchanged when non-empty, otherwise a
// placeholder derived from the link: the last path segment with separators
// turned into spaces, falling back to the host.
func TitleOrPlaceholder(title, link string) string {
	title = strings.TrimSpace(title)
	if title != "" {
		return title
	}

	u, err := url.Parse(link)
	if err == nil {
		seg := path.Base(strings.TrimSuffix(u.Path, "/"))
		if ext := path.Ext(seg); ext != "" {
			seg = strings.TrimSuffix(seg, ext)
		}
		seg = strings.NewReplacer("-", " ", "_", " ").Replace(seg)
		seg = strings.TrimSpace(seg)
		if seg != "" && seg != "." && seg != "/" {
			return seg
		}
	}

	if d := Domain(link); d != "unknown" {
		return d
	}
	return "untitled"
}

// PublishedOr returns published unchanged when set, otherwise fallback.
func PublishedOr(published time.Time, fallback time.Time) time.Time {
	if published.IsZero() {
		return fallback
	}
	return published
}
