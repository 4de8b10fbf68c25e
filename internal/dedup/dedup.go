// Package dedup removes near-duplicate articles within an aggregation pass
// using normalized-title comparison and Jaccard word-set similarity.
package dedup

import (
	"strings"
	"unicode"

	"github.com/feedhound/marketnews/internal/article"
	"github.com/feedhound/marketnews/internal/logger"
	"github.com/feedhound/marketnews/internal/metrics"
)

// DefaultSimilarityThreshold is the Jaccard score above which two titles are
// treated as the same story.
const DefaultSimilarityThreshold = 0.7

type Deduplicator struct {
	threshold float64
}

// New returns a Deduplicator. A threshold <= 0 selects the default.
func New(threshold float64) *Deduplicator {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Deduplicator{threshold: threshold}
}

// Filter returns the input with duplicates removed, preserving order. The
// first occurrence of a story wins; later near-duplicates are dropped.
func (d *Deduplicator) Filter(articles []article.Article) []article.Article {
	kept := make([]article.Article, 0, len(articles))
	seen := make(map[string]struct{}, len(articles))
	keptSets := make([]map[string]struct{}, 0, len(articles))

	dropped := 0
	for _, a := range articles {
		norm := normalizeTitle(a.Title)
		if _, ok := seen[norm]; ok {
			dropped++
			continue
		}

		set := wordSet(norm)
		dup := false
		for _, ks := range keptSets {
			if jaccard(set, ks) > d.threshold {
				dup = true
				break
			}
		}
		if dup {
			dropped++
			continue
		}

		seen[norm] = struct{}{}
		keptSets = append(keptSets, set)
		kept = append(kept, a)
	}

	if dropped > 0 {
		metrics.Global.AddDuplicatesFiltered(int64(dropped))
		logger.Logger.Debug("filtered duplicate articles", "dropped", dropped, "kept", len(kept))
	}
	return kept
}

// normalizeTitle lowercases, strips everything but letters, digits and
// spaces, and collapses runs of whitespace.
func normalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func wordSet(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(normalized) {
		set[w] = struct{}{}
	}
	return set
}

// jaccard computes |A∩B| / |A∪B|. Two empty sets score zero.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
