// Package interest decides whether articles match a user's interest profile.
package interest

import (
	"sort"
	"strings"

	"github.com/feedhound/marketnews/internal/article"
)

// commodityKeywords maps a commodity to the fixed keyword set it contributes
// when a profile is derived. Keys and values are matched case-insensitively.
var commodityKeywords = map[string][]string{
	"oil":         {"oil", "crude", "wti", "brent", "opec", "petroleum", "barrel"},
	"gold":        {"gold", "bullion", "xau", "precious metal"},
	"silver":      {"silver", "xag"},
	"natural gas": {"natural gas", "lng", "henry hub"},
	"copper":      {"copper", "lme"},
	"wheat":       {"wheat", "grain", "harvest"},
	"corn":        {"corn", "maize"},
	"coffee":      {"coffee", "arabica", "robusta"},
}

// Profile is the derived matching profile for one user. Keywords already
// include the commodity expansion; the whole profile is rebuilt from
// preferences on every change, never patched.
type Profile struct {
	Keywords    []string
	Commodities []string
	Regions     []string
}

// Derive builds a Profile from raw preference values. Each commodity
// contributes its fixed keyword set on top of the user's own keywords.
func Derive(keywords, commodities, regions []string) Profile {
	kw := make(map[string]struct{})
	for _, k := range keywords {
		if k = normalizeTerm(k); k != "" {
			kw[k] = struct{}{}
		}
	}

	var coms []string
	for _, c := range commodities {
		c = normalizeTerm(c)
		if c == "" {
			continue
		}
		coms = append(coms, c)
		for _, k := range commodityKeywords[c] {
			kw[k] = struct{}{}
		}
	}

	var regs []string
	for _, r := range regions {
		if r = normalizeTerm(r); r != "" {
			regs = append(regs, r)
		}
	}

	derived := make([]string, 0, len(kw))
	for k := range kw {
		derived = append(derived, k)
	}
	sort.Strings(derived)

	return Profile{Keywords: derived, Commodities: coms, Regions: regs}
}

// Empty reports whether the profile imposes no constraint at all.
func (p Profile) Empty() bool {
	return len(p.Keywords) == 0 && len(p.Commodities) == 0 && len(p.Regions) == 0
}

// Matches checks an article against the profile. Each non-empty dimension
// (keywords, commodities, regions) must have at least one case-insensitive
// substring hit in title+summary+body; an empty dimension imposes no
// constraint.
func Matches(a article.Article, p Profile) bool {
	haystack := strings.ToLower(a.Title + " " + a.Summary + " " + a.Body)

	if len(p.Keywords) > 0 && !containsAny(haystack, p.Keywords) {
		return false
	}
	if len(p.Commodities) > 0 && !matchesCommodity(haystack, p.Commodities) {
		return false
	}
	if len(p.Regions) > 0 && !containsAny(haystack, p.Regions) {
		return false
	}
	return true
}

// matchesCommodity treats a hit on any of a commodity's expanded keywords
// as a hit on the commodity itself.
func matchesCommodity(haystack string, commodities []string) bool {
	for _, c := range commodities {
		if strings.Contains(haystack, c) {
			return true
		}
		if containsAny(haystack, commodityKeywords[c]) {
			return true
		}
	}
	return false
}

func containsAny(haystack string, terms []string) bool {
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

func normalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
