package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/feedhound/marketnews/internal/aggregate"
	"github.com/feedhound/marketnews/internal/app"
	"github.com/feedhound/marketnews/internal/cache"
	"github.com/feedhound/marketnews/internal/classify"
	"github.com/feedhound/marketnews/internal/config"
	"github.com/feedhound/marketnews/internal/feed"
	"github.com/feedhound/marketnews/internal/fetch"
	"github.com/feedhound/marketnews/internal/logger"
	"github.com/feedhound/marketnews/internal/metrics"
	"github.com/feedhound/marketnews/internal/push"
	"github.com/feedhound/marketnews/internal/scheduler"
	"github.com/feedhound/marketnews/internal/scrape"
	"github.com/feedhound/marketnews/internal/sentiment"
	"github.com/feedhound/marketnews/internal/store"
)

func main() {
	once := flag.Bool("once", false, "run one digest cycle and exit")
	flag.Parse()

	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	builtin, err := config.LoadSources(cfg.SourcesConfigPath)
	if err != nil {
		logger.Logger.Error("failed to load source list", "path", cfg.SourcesConfigPath, "error", err)
		os.Exit(1)
	}

	var st store.Store
	if cfg.RedisAddr != "" {
		rs := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rs.Close()
		st = rs
	} else {
		logger.Logger.Warn("REDIS_ADDR not set, using in-memory store")
		st = store.NewMemoryStore()
	}

	client := fetch.NewClient(cfg.RequestTimeout)
	engine := aggregate.New(
		classify.New(client),
		feed.NewExtractor(client, cfg.FeedMaxItems),
		scrape.NewExtractor(client),
		aggregate.Options{
			MaxArticles:         cfg.MaxArticles,
			SimilarityThreshold: cfg.SimilarityThreshold,
			Cache:               cache.New(),
		},
	)

	var scorer sentiment.Scorer
	if cfg.GeminiAPIKey != "" {
		gs, err := sentiment.NewGeminiScorer(cfg.GeminiAPIKey, cfg.MaxSentimentRequests)
		if err != nil {
			logger.Logger.Error("failed to init Gemini scorer", "error", err)
			os.Exit(1)
		}
		defer gs.Close()
		scorer = gs
	} else {
		logger.Logger.Info("GEMINI_API_KEY not set, using keyword sentiment")
		scorer = sentiment.NewKeywordScorer()
	}

	dispatcher := push.NewDispatcher(push.NewExpoSink(cfg.PushEndpoint), st)
	application := app.New(st, engine, dispatcher, scorer, builtin)

	if *once {
		application.RunCycle(context.Background())
		return
	}

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer()
	}

	sched, err := scheduler.New(cfg.CronSpec, application.RunCycle)
	if err != nil {
		logger.Logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	logger.Logger.Info("marketnews started", "cron", cfg.CronSpec, "sources", len(builtin))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Logger.Info("shutting down")
}

func startMonitoringServer() {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	logger.Logger.Info("starting monitoring server", "port", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		logger.Logger.Error("monitoring server error", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
