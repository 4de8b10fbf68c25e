package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	SourcesFetched          int64
	SourcesFailed           int64
	ArticlesProcessed       int64
	ArticlesMatched         int64
	DuplicatesFiltered      int64
	NotificationsSent       int64
	NotificationsFailed     int64
	NotificationsSuppressed int64
	TokensDeactivated       int64
	SentimentScored         int64
	SentimentErrors         int64

	// Timings
	LastAggregationTime    time.Duration
	AverageAggregationTime time.Duration
	TotalAggregationTime   time.Duration
	AggregationCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) IncrementSourcesFetched() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourcesFetched++
}

func (m *Metrics) IncrementSourcesFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourcesFailed++
}

func (m *Metrics) AddArticlesProcessed(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesProcessed += n
}

func (m *Metrics) AddArticlesMatched(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesMatched += n
}

func (m *Metrics) AddDuplicatesFiltered(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered += n
}

func (m *Metrics) IncrementNotificationsSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotificationsSent++
}

func (m *Metrics) IncrementNotificationsFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotificationsFailed++
}

func (m *Metrics) IncrementNotificationsSuppressed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotificationsSuppressed++
}

func (m *Metrics) IncrementTokensDeactivated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TokensDeactivated++
}

func (m *Metrics) IncrementSentimentScored() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentimentScored++
}

func (m *Metrics) IncrementSentimentErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentimentErrors++
}

func (m *Metrics) RecordAggregationTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastAggregationTime = duration
	m.TotalAggregationTime += duration
	m.AggregationCount++

	if m.AggregationCount > 0 {
		m.AverageAggregationTime = m.TotalAggregationTime / time.Duration(m.AggregationCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"sources_fetched":             m.SourcesFetched,
		"sources_failed":              m.SourcesFailed,
		"articles_processed":          m.ArticlesProcessed,
		"articles_matched":            m.ArticlesMatched,
		"duplicates_filtered":         m.DuplicatesFiltered,
		"notifications_sent":          m.NotificationsSent,
		"notifications_failed":        m.NotificationsFailed,
		"notifications_suppressed":    m.NotificationsSuppressed,
		"tokens_deactivated":          m.TokensDeactivated,
		"sentiment_scored":            m.SentimentScored,
		"sentiment_errors":            m.SentimentErrors,
		"last_aggregation_time_ms":    m.LastAggregationTime.Milliseconds(),
		"average_aggregation_time_ms": m.AverageAggregationTime.Milliseconds(),
		"last_run_time":               m.LastRunTime.Format(time.RFC3339),
		"last_error_time":             m.LastErrorTime.Format(time.RFC3339),
		"last_error":                  m.LastError,
		"is_healthy":                  m.IsHealthy,
	}
}
