package dedup

import (
	"testing"

	"github.com/feedhound/marketnews/internal/article"
)

func titles(articles []article.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Title
	}
	return out
}

func TestFilterDropsNearDuplicateTitles(t *testing.T) {
	d := New(0)
	in := []article.Article{
		{Title: "OPEC announces oil production cuts"},
		{Title: "OPEC announces production cuts for oil"},
		{Title: "Gold prices rally on inflation fears"},
	}

	out := d.Filter(in)
	if len(out) != 2 {
		t.Fatalf("kept %d articles, want 2: %v", len(out), titles(out))
	}
	if out[0].Title != in[0].Title {
		t.Errorf("first occurrence should win, got %q", out[0].Title)
	}
	if out[1].Title != in[2].Title {
		t.Errorf("unrelated article dropped, kept %v", titles(out))
	}
}

func TestFilterExactTitleIgnoresCaseAndPunctuation(t *testing.T) {
	d := New(0)
	in := []article.Article{
		{Title: "Fed Holds Rates Steady!"},
		{Title: "fed holds rates steady"},
	}
	out := d.Filter(in)
	if len(out) != 1 {
		t.Fatalf("kept %d articles, want 1", len(out))
	}
}

func TestFilterKeepsDistinctStories(t *testing.T) {
	d := New(0)
	in := []article.Article{
		{Title: "Oil surges 5%"},
		{Title: "Wheat futures slide after harvest report"},
		{Title: "Copper demand rises in Asia"},
	}
	out := d.Filter(in)
	if len(out) != 3 {
		t.Fatalf("kept %d articles, want 3: %v", len(out), titles(out))
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	d := New(0)
	in := []article.Article{
		{Title: "Gold climbs to record"},
		{Title: "Crude inventories fall sharply"},
		{Title: "Gold climbs to a record"},
		{Title: "Coffee exports rebound"},
	}
	out := d.Filter(in)
	want := []string{"Gold climbs to record", "Crude inventories fall sharply", "Coffee exports rebound"}
	got := titles(out)
	if len(got) != len(want) {
		t.Fatalf("kept %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFilterIdempotent(t *testing.T) {
	d := New(0)
	in := []article.Article{
		{Title: "OPEC announces oil production cuts"},
		{Title: "OPEC announces production cuts for oil"},
	}
	once := d.Filter(in)
	twice := d.Filter(once)
	if len(once) != len(twice) {
		t.Fatalf("second pass changed result: %d vs %d", len(once), len(twice))
	}
}

func TestJaccard(t *testing.T) {
	a := wordSet("opec announces oil production cuts")
	b := wordSet("opec announces production cuts for oil")
	got := jaccard(a, b)
	want := 5.0 / 6.0
	if got < want-0.001 || got > want+0.001 {
		t.Errorf("jaccard = %f, want %f", got, want)
	}

	if jaccard(wordSet(""), a) != 0 {
		t.Error("empty set should score zero")
	}
}

func TestCustomThreshold(t *testing.T) {
	// 3/5 similarity exceeds a 0.5 threshold but not the default.
	in := []article.Article{
		{Title: "oil prices rise today"},
		{Title: "oil prices rise sharply"},
	}
	if got := New(0.5).Filter(in); len(got) != 1 {
		t.Errorf("threshold 0.5: kept %d, want 1", len(got))
	}
	if got := New(0).Filter(in); len(got) != 2 {
		t.Errorf("default threshold: kept %d, want 2", len(got))
	}
}
