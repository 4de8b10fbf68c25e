package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/feedhound/marketnews/internal/aggregate"
	"github.com/feedhound/marketnews/internal/article"
	"github.com/feedhound/marketnews/internal/classify"
	"github.com/feedhound/marketnews/internal/interest"
	"github.com/feedhound/marketnews/internal/push"
	"github.com/feedhound/marketnews/internal/sentiment"
	"github.com/feedhound/marketnews/internal/store"
)

type fixedFetcher struct {
	articles []article.Article
}

func (f *fixedFetcher) Fetch(_ context.Context, _ string) ([]article.Article, error) {
	return f.articles, nil
}

type feedClassifier struct{}

func (feedClassifier) Classify(_ context.Context, rawURL string) (classify.Kind, string) {
	return classify.KindFeed, rawURL
}

type captureSink struct {
	batches [][]push.Message
}

func (s *captureSink) SendBatch(_ context.Context, batch []push.Message) ([]push.Receipt, error) {
	s.batches = append(s.batches, batch)
	receipts := make([]push.Receipt, len(batch))
	for i, m := range batch {
		receipts[i] = push.Receipt{To: m.To}
	}
	return receipts, nil
}

func newTestApp(t *testing.T, sink push.Sink, scorer sentiment.Scorer, articles []article.Article) (*App, *store.MemoryStore) {
	t.Helper()

	st := store.NewMemoryStore()
	engine := aggregate.New(feedClassifier{}, &fixedFetcher{articles: articles}, &fixedFetcher{}, aggregate.Options{})
	dispatcher := push.NewDispatcher(sink, st)
	builtin := []aggregate.Source{{URL: "https://builtin.example/rss", Name: "Builtin", Active: true}}

	return New(st, engine, dispatcher, scorer, builtin), st
}

func TestRunCycleDeliversDigest(t *testing.T) {
	sink := &captureSink{}
	articles := []article.Article{
		{Title: "Oil prices surge 5 percent", URL: "https://a.example/1", Published: time.Now()},
		{Title: "Gold steadies after rally", URL: "https://a.example/2", Published: time.Now()},
	}
	a, st := newTestApp(t, sink, nil, articles)

	ctx := context.Background()
	st.SaveProfile(ctx, "u1", interest.Profile{})
	st.UpsertToken(ctx, store.DeviceToken{Token: "ExponentPushToken[u1]", UserID: "u1"})
	st.SavePreferences(ctx, store.Preference{UserID: "u1", WeekendUpdates: true})

	a.RunCycle(ctx)

	if len(sink.batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(sink.batches))
	}
	msg := sink.batches[0][0]
	if msg.To != "ExponentPushToken[u1]" {
		t.Errorf("message to %q", msg.To)
	}
	if !strings.Contains(msg.Title, "2 new stories") {
		t.Errorf("title = %q", msg.Title)
	}
	if !strings.Contains(msg.Body, "Oil prices surge 5 percent") {
		t.Errorf("body = %q", msg.Body)
	}
}

func TestRunCycleSkipsUsersWithoutDevices(t *testing.T) {
	sink := &captureSink{}
	a, st := newTestApp(t, sink, nil, []article.Article{
		{Title: "Copper demand rises", URL: "https://a.example/1", Published: time.Now()},
	})

	ctx := context.Background()
	st.SaveProfile(ctx, "u1", interest.Profile{})

	a.RunCycle(ctx)

	if len(sink.batches) != 0 {
		t.Errorf("expected no deliveries, got %d batches", len(sink.batches))
	}
}

func TestRunCycleNoMatchesNoNotification(t *testing.T) {
	sink := &captureSink{}
	a, st := newTestApp(t, sink, nil, []article.Article{
		{Title: "Celebrity gossip roundup", URL: "https://a.example/1", Published: time.Now()},
	})

	ctx := context.Background()
	st.SaveProfile(ctx, "u1", interest.Derive(nil, []string{"oil"}, nil))
	st.UpsertToken(ctx, store.DeviceToken{Token: "ExponentPushToken[u1]", UserID: "u1"})

	a.RunCycle(ctx)

	if len(sink.batches) != 0 {
		t.Errorf("expected no deliveries, got %d batches", len(sink.batches))
	}
}

func TestRunCycleFoldsSourceState(t *testing.T) {
	sink := &captureSink{}
	a, st := newTestApp(t, sink, nil, []article.Article{
		{Title: "Wheat futures slide", URL: "https://a.example/1", Published: time.Now()},
	})

	ctx := context.Background()
	st.SaveProfile(ctx, "u1", interest.Profile{})
	st.SaveSources(ctx, "u1", []aggregate.Source{
		{URL: "https://custom.example/rss", Name: "Custom", Active: true},
	})
	st.UpsertToken(ctx, store.DeviceToken{Token: "ExponentPushToken[u1]", UserID: "u1"})
	st.SavePreferences(ctx, store.Preference{UserID: "u1", WeekendUpdates: true})

	a.RunCycle(ctx)

	sources, err := st.Sources(ctx, "u1")
	if err != nil {
		t.Fatalf("Sources: %v", err)
	}
	var custom *aggregate.Source
	for i := range sources {
		if sources[i].URL == "https://custom.example/rss" {
			custom = &sources[i]
		}
	}
	if custom == nil {
		t.Fatal("custom source missing after cycle")
	}
	if custom.LastFetch.IsZero() {
		t.Error("LastFetch not recorded")
	}
	if custom.Kind != classify.KindFeed {
		t.Errorf("Kind = %v, want feed (memoized from classification)", custom.Kind)
	}
}

func TestFormatDigest(t *testing.T) {
	articles := []article.Article{
		{Title: "Oil climbs", URL: "https://a/1"},
		{Title: "Gold slips", URL: "https://a/2"},
		{Title: "Gas steady", URL: "https://a/3"},
		{Title: "Wheat flat", URL: "https://a/4"},
		{Title: "Corn up", URL: "https://a/5"},
	}
	scored := map[string]sentiment.Result{
		"https://a/1": {Label: sentiment.Positive, Confidence: 0.9},
	}

	title, body := formatDigest(articles, scored)
	if title != "5 new stories for you" {
		t.Errorf("title = %q", title)
	}
	if !strings.Contains(body, "Oil climbs [positive]") {
		t.Errorf("body missing sentiment tag: %q", body)
	}
	if !strings.Contains(body, "+2 more") {
		t.Errorf("body missing overflow line: %q", body)
	}
	if strings.Contains(body, "Wheat flat") {
		t.Errorf("body should only preview leading headlines: %q", body)
	}

	title, _ = formatDigest(articles[:1], nil)
	if title != "1 new story for you" {
		t.Errorf("singular title = %q", title)
	}
}
