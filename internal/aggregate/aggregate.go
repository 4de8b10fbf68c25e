// Package aggregate fans out over a user's sources, collects their articles
// and produces a single filtered, deduplicated, recency-sorted result.
package aggregate

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/feedhound/marketnews/internal/article"
	"github.com/feedhound/marketnews/internal/cache"
	"github.com/feedhound/marketnews/internal/classify"
	"github.com/feedhound/marketnews/internal/dedup"
	"github.com/feedhound/marketnews/internal/interest"
	"github.com/feedhound/marketnews/internal/logger"
	"github.com/feedhound/marketnews/internal/metrics"
)

// DefaultMaxArticles caps the size of one aggregation result.
const DefaultMaxArticles = 50

// Source is one configured news source. Kind is memoized after the first
// successful classification so later passes skip the probe.
type Source struct {
	URL         string        `yaml:"url" json:"url"`
	Name        string        `yaml:"name" json:"name"`
	Category    string        `yaml:"category" json:"category"`
	Keywords    []string      `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Active      bool          `yaml:"active" json:"active"`
	Kind        classify.Kind `yaml:"-" json:"kind"`
	LastFetch   time.Time     `yaml:"-" json:"last_fetch"`
	FetchErrors int           `yaml:"-" json:"fetch_errors"`
}

// Outcome records what happened to a single source during one pass.
type Outcome struct {
	URL       string
	Kind      classify.Kind
	Articles  int
	Err       error
	FetchedAt time.Time
}

// Result is the product of one aggregation pass. Outcomes carries per-source
// bookkeeping so callers can fold fetch state back into their stored sources.
type Result struct {
	Articles []article.Article
	Outcomes []Outcome
}

// Fetcher turns a source URL into articles.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]article.Article, error)
}

// Classifier decides how a URL should be fetched and may rewrite it, e.g.
// when a page advertises its own feed.
type Classifier interface {
	Classify(ctx context.Context, rawURL string) (classify.Kind, string)
}

type Engine struct {
	classifier Classifier
	feeds      Fetcher
	pages      Fetcher
	dedup      *dedup.Deduplicator
	cache      *cache.Cache
	max        int
}

// Options tunes an Engine. The zero value selects defaults.
type Options struct {
	MaxArticles         int
	SimilarityThreshold float64
	Cache               *cache.Cache
}

func New(classifier Classifier, feeds, pages Fetcher, opts Options) *Engine {
	if opts.MaxArticles <= 0 {
		opts.MaxArticles = DefaultMaxArticles
	}
	return &Engine{
		classifier: classifier,
		feeds:      feeds,
		pages:      pages,
		dedup:      dedup.New(opts.SimilarityThreshold),
		cache:      opts.Cache,
		max:        opts.MaxArticles,
	}
}

type fetchResult struct {
	articles []article.Article
	outcome  Outcome
}

// Aggregate fetches every active source concurrently and merges the results.
// The source list is snapshotted by the caller; a failing source contributes
// nothing but never fails the pass. Articles are filtered against the
// profile, deduplicated and sorted newest first, capped at MaxArticles.
func (e *Engine) Aggregate(ctx context.Context, sources []Source, profile interest.Profile) Result {
	start := time.Now()

	active := make([]Source, 0, len(sources))
	for _, s := range sources {
		if s.Active {
			active = append(active, s)
		}
	}

	results := make(chan fetchResult, len(active))
	var wg sync.WaitGroup
	for _, src := range active {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			results <- e.fetchSource(ctx, src)
		}(src)
	}
	wg.Wait()
	close(results)

	var merged []article.Article
	outcomes := make([]Outcome, 0, len(active))
	for r := range results {
		outcomes = append(outcomes, r.outcome)
		if r.outcome.Err != nil {
			metrics.Global.IncrementSourcesFailed()
			logger.Logger.Warn("source fetch failed",
				"url", r.outcome.URL,
				"error", r.outcome.Err)
			continue
		}
		metrics.Global.IncrementSourcesFetched()
		merged = append(merged, r.articles...)
	}

	metrics.Global.AddArticlesProcessed(int64(len(merged)))

	matched := merged[:0]
	for _, a := range merged {
		if interest.Matches(a, profile) {
			matched = append(matched, a)
		}
	}
	metrics.Global.AddArticlesMatched(int64(len(matched)))

	deduped := e.dedup.Filter(matched)

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Published.After(deduped[j].Published)
	})
	if len(deduped) > e.max {
		deduped = deduped[:e.max]
	}

	metrics.Global.RecordAggregationTime(time.Since(start))
	logger.Logger.Info("aggregation pass complete",
		"sources", len(active),
		"articles", len(deduped),
		"duration", time.Since(start))

	return Result{Articles: deduped, Outcomes: outcomes}
}

func (e *Engine) fetchSource(ctx context.Context, src Source) fetchResult {
	now := time.Now()
	out := Outcome{URL: src.URL, Kind: src.Kind, FetchedAt: now}

	if e.cache != nil {
		if cached, ok := e.cache.Get(src.URL); ok {
			out.Articles = len(cached)
			return fetchResult{articles: cached, outcome: out}
		}
	}

	url := src.URL
	kind := src.Kind
	if kind == classify.KindUnknown {
		kind, url = e.classifier.Classify(ctx, src.URL)
		out.Kind = kind
	}

	var fetcher Fetcher
	if kind == classify.KindFeed {
		fetcher = e.feeds
	} else {
		fetcher = e.pages
	}

	articles, err := fetcher.Fetch(ctx, url)
	if err != nil {
		out.Err = err
		return fetchResult{outcome: out}
	}

	out.Articles = len(articles)
	if e.cache != nil {
		e.cache.Set(src.URL, articles, 0)
	}
	return fetchResult{articles: articles, outcome: out}
}
