package cache

import (
	"testing"
	"time"

	"github.com/feedhound/marketnews/internal/article"
)

func TestSetAndGet(t *testing.T) {
	c := New()
	in := []article.Article{{Title: "Brent climbs", URL: "https://example.com/a"}}

	c.Set("https://example.com/feed", in, time.Minute)

	got, ok := c.Get("https://example.com/feed")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 1 || got[0].Title != "Brent climbs" {
		t.Errorf("got %v", got)
	}
}

func TestGetMiss(t *testing.T) {
	c := New()
	if _, ok := c.Get("https://example.com/missing"); ok {
		t.Error("expected cache miss")
	}
}

func TestExpiry(t *testing.T) {
	c := New()
	c.Set("https://example.com/feed", []article.Article{{Title: "stale"}}, time.Millisecond)

	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("https://example.com/feed"); ok {
		t.Error("expected entry to expire")
	}
}

func TestZeroTTLUsesDefault(t *testing.T) {
	c := New()
	c.Set("https://example.com/feed", []article.Article{{Title: "fresh"}}, 0)

	if _, ok := c.Get("https://example.com/feed"); !ok {
		t.Error("expected default TTL to keep entry alive")
	}
}
