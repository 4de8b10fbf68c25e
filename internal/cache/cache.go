// Package cache holds recently fetched source results so repeated
// aggregation passes don't refetch unchanged sources.
package cache

import (
	"sync"
	"time"

	"github.com/feedhound/marketnews/internal/article"
)

// DefaultTTL is how long a source's articles stay fresh.
const DefaultTTL = 10 * time.Minute

type item struct {
	articles  []article.Article
	expiresAt time.Time
}

type Cache struct {
	mu    sync.RWMutex
	items map[string]item
}

func New() *Cache {
	c := &Cache{
		items: make(map[string]item),
	}

	// Sweep expired entries periodically
	go c.cleanupLoop()

	return c
}

// Set stores the articles fetched from a source URL.
func (c *Cache) Set(url string, articles []article.Article, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[url] = item{
		articles:  articles,
		expiresAt: time.Now().Add(ttl),
	}
}

// Get returns the cached articles for a source URL if still fresh.
func (c *Cache) Get(url string) ([]article.Article, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, exists := c.items[url]
	if !exists || time.Now().After(it.expiresAt) {
		return nil, false
	}

	return it.articles, true
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(DefaultTTL)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

func (c *Cache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for url, it := range c.items {
		if now.After(it.expiresAt) {
			delete(c.items, url)
		}
	}
}
