package article

import (
	"testing"
	"time"
)

func TestDomain(t *testing.T) {
	cases := []struct {
		link string
		want string
	}{
		{"https://www.reuters.com/markets/commodities/story", "reuters.com"},
		{"http://dr.dk/nyheder", "dr.dk"},
		{"", "unknown"},
		{"not-a-url", "unknown"},
	}
	for _, tc := range cases {
		if got := Domain(tc.link); got != tc.want {
			t.Errorf("Domain(%q) = %q, want %q", tc.link, got, tc.want)
		}
	}
}

func TestTitleOrPlaceholder(t *testing.T) {
	if got := TitleOrPlaceholder("  OPEC cuts output  ", "https://example.com/x"); got != "OPEC cuts output" {
		t.Errorf("kept title = %q", got)
	}

	got := TitleOrPlaceholder("", "https://example.com/news/oil-prices-rise.html")
	if got != "oil prices rise" {
		t.Errorf("placeholder = %q, want %q", got, "oil prices rise")
	}

	got = TitleOrPlaceholder("", "https://example.com/")
	if got != "example.com" {
		t.Errorf("host fallback = %q, want %q", got, "example.com")
	}

	if got := TitleOrPlaceholder("", ""); got != "untitled" {
		t.Errorf("empty link placeholder = %q, want %q", got, "untitled")
	}
}

func TestPublishedOr(t *testing.T) {
	now := time.Now()
	then := now.Add(-time.Hour)

	if got := PublishedOr(then, now); !got.Equal(then) {
		t.Errorf("PublishedOr kept %v, want %v", got, then)
	}
	if got := PublishedOr(time.Time{}, now); !got.Equal(now) {
		t.Errorf("PublishedOr fallback %v, want %v", got, now)
	}
}
