package sentiment

import (
	"sync"
	"time"

	"github.com/feedhound/marketnews/internal/logger"
)

// Quota caps model-backed scoring requests per day. A max of 0 means
// unlimited.
type Quota struct {
	mu        sync.Mutex
	count     int
	max       int
	resetTime time.Time
}

func NewQuota(maxPerDay int) *Quota {
	return &Quota{
		max:       maxPerDay,
		resetTime: time.Now().Add(24 * time.Hour),
	}
}

// TryAcquire consumes one request slot if available.
func (q *Quota) TryAcquire() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.checkReset()

	if q.max > 0 && q.count >= q.max {
		logger.Logger.Warn("sentiment model quota reached", "used", q.count, "limit", q.max)
		return false
	}

	q.count++
	return true
}

// Used reports how many slots have been consumed in the current window.
func (q *Quota) Used() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.checkReset()
	return q.count
}

func (q *Quota) checkReset() {
	if time.Now().After(q.resetTime) {
		logger.Logger.Info("resetting sentiment quota", "used", q.count, "limit", q.max)
		q.count = 0
		q.resetTime = time.Now().Add(24 * time.Hour)
	}
}
