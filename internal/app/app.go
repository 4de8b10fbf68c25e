// Package app runs the digest cycle: aggregate every user's sources, score
// the headlines and push the result to their devices.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/feedhound/marketnews/internal/aggregate"
	"github.com/feedhound/marketnews/internal/article"
	"github.com/feedhound/marketnews/internal/logger"
	"github.com/feedhound/marketnews/internal/metrics"
	"github.com/feedhound/marketnews/internal/push"
	"github.com/feedhound/marketnews/internal/sentiment"
	"github.com/feedhound/marketnews/internal/store"
)

// digestHeadlines is how many stories the notification body previews.
const digestHeadlines = 3

// sentimentTopN caps how many articles per digest get a sentiment score.
const sentimentTopN = 10

type App struct {
	store      store.Store
	engine     *aggregate.Engine
	dispatcher *push.Dispatcher
	scorer     sentiment.Scorer // nil disables sentiment
	builtin    []aggregate.Source
	category   string
}

func New(st store.Store, engine *aggregate.Engine, dispatcher *push.Dispatcher, scorer sentiment.Scorer, builtin []aggregate.Source) *App {
	return &App{
		store:      st,
		engine:     engine,
		dispatcher: dispatcher,
		scorer:     scorer,
		builtin:    builtin,
		category:   "digest",
	}
}

// RunCycle produces and delivers one digest per user. Per-user failures are
// logged and skipped so one bad profile never blocks the rest.
func (a *App) RunCycle(ctx context.Context) {
	start := time.Now()

	users, err := a.store.Users(ctx)
	if err != nil {
		logger.Logger.Error("failed to list users", "error", err)
		metrics.Global.SetError(err.Error())
		return
	}

	logger.Logger.Info("digest cycle started", "users", len(users))

	for _, userID := range users {
		if ctx.Err() != nil {
			logger.Logger.Warn("digest cycle interrupted", "error", ctx.Err())
			return
		}
		if err := a.runUser(ctx, userID); err != nil {
			logger.Logger.Error("digest failed for user", "user", userID, "error", err)
		}
	}

	metrics.Global.SetLastRun()
	logger.Logger.Info("digest cycle complete",
		"users", len(users),
		"duration", time.Since(start))
}

func (a *App) runUser(ctx context.Context, userID string) error {
	profile, err := a.store.Profile(ctx, userID)
	if err != nil && err != store.ErrNotFound {
		return fmt.Errorf("load profile: %w", err)
	}

	sources, err := a.userSources(ctx, userID)
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}

	result := a.engine.Aggregate(ctx, sources, profile)
	a.foldOutcomes(ctx, userID, sources, result.Outcomes)

	if len(result.Articles) == 0 {
		logger.Logger.Debug("no matching articles", "user", userID)
		return nil
	}

	scored := a.scoreTop(ctx, result.Articles)

	prefs, err := a.store.Preferences(ctx, userID)
	if err != nil && err != store.ErrNotFound {
		return fmt.Errorf("load preferences: %w", err)
	}
	prefs.UserID = userID

	tokens, err := a.store.Tokens(ctx, userID)
	if err != nil {
		return fmt.Errorf("load tokens: %w", err)
	}
	if len(tokens) == 0 {
		logger.Logger.Debug("no registered devices", "user", userID)
		return nil
	}

	title, body := formatDigest(result.Articles, scored)
	sum := a.dispatcher.Send(ctx, tokens, prefs, a.category, title, body, map[string]string{
		"article_count": fmt.Sprintf("%d", len(result.Articles)),
	})

	logger.Logger.Info("digest delivered",
		"user", userID,
		"articles", len(result.Articles),
		"sent", sum.Sent,
		"failed", sum.Failed,
		"suppressed", sum.Suppressed)
	return nil
}

// userSources merges the built-in list with the user's own sources. The
// user's copy wins on URL collisions so their memoized kinds and fetch
// bookkeeping survive.
func (a *App) userSources(ctx context.Context, userID string) ([]aggregate.Source, error) {
	custom, err := a.store.Sources(ctx, userID)
	if err != nil && err != store.ErrNotFound {
		return nil, err
	}

	byURL := make(map[string]int, len(custom))
	for i, s := range custom {
		byURL[s.URL] = i
	}

	merged := make([]aggregate.Source, len(custom))
	copy(merged, custom)
	for _, s := range a.builtin {
		if _, ok := byURL[s.URL]; !ok {
			merged = append(merged, s)
		}
	}
	return merged, nil
}

// foldOutcomes writes fetch bookkeeping back to the user's stored sources.
func (a *App) foldOutcomes(ctx context.Context, userID string, sources []aggregate.Source, outcomes []aggregate.Outcome) {
	byURL := make(map[string]aggregate.Outcome, len(outcomes))
	for _, o := range outcomes {
		byURL[o.URL] = o
	}

	changed := false
	for i := range sources {
		o, ok := byURL[sources[i].URL]
		if !ok {
			continue
		}
		sources[i].LastFetch = o.FetchedAt
		if o.Err != nil {
			sources[i].FetchErrors++
		} else {
			sources[i].FetchErrors = 0
			sources[i].Kind = o.Kind
		}
		changed = true
	}

	if !changed {
		return
	}
	if err := a.store.SaveSources(ctx, userID, sources); err != nil {
		logger.Logger.Warn("failed to save source state", "user", userID, "error", err)
	}
}

// scoreTop runs sentiment over the leading articles, keyed by URL.
func (a *App) scoreTop(ctx context.Context, articles []article.Article) map[string]sentiment.Result {
	if a.scorer == nil {
		return nil
	}

	n := len(articles)
	if n > sentimentTopN {
		n = sentimentTopN
	}

	scored := make(map[string]sentiment.Result, n)
	for _, art := range articles[:n] {
		res, err := a.scorer.Score(ctx, art.Title, art.Summary)
		if err != nil {
			logger.Logger.Debug("sentiment scoring failed", "url", art.URL, "error", err)
			continue
		}
		scored[art.URL] = res
	}
	return scored
}

// formatDigest builds the notification title and body from the leading
// headlines.
func formatDigest(articles []article.Article, scored map[string]sentiment.Result) (string, string) {
	title := fmt.Sprintf("%d new stories for you", len(articles))
	if len(articles) == 1 {
		title = "1 new story for you"
	}

	var b strings.Builder
	n := len(articles)
	if n > digestHeadlines {
		n = digestHeadlines
	}
	for i, a := range articles[:n] {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(a.Title)
		if res, ok := scored[a.URL]; ok {
			b.WriteString(fmt.Sprintf(" [%s]", res.Label))
		}
	}
	if len(articles) > digestHeadlines {
		b.WriteString(fmt.Sprintf("\n+%d more", len(articles)-digestHeadlines))
	}

	return title, b.String()
}
