package llm

import (
	"sync"
	"time"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
)

// cacheEntry represents a cached merchant inference.
type cacheEntry struct {
	expiry    time.Time
	inference model.MerchantInference
}

// inferenceCache provides thread-safe caching for inference answers keyed by
// merchant key.
type inferenceCache struct {
	entries  map[string]cacheEntry
	stopCh   chan struct{}
	ttl      time.Duration
	mu       sync.RWMutex
	stopOnce sync.Once
}

// newInferenceCache creates a new cache with the specified TTL.
func newInferenceCache(ttl time.Duration) *inferenceCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	cache := &inferenceCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

// get retrieves an inference if it exists and hasn't expired.
func (c *inferenceCache) get(key string) (model.MerchantInference, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.expiry) {
		return model.MerchantInference{}, false
	}
	return entry.inference, true
}

func (c *inferenceCache) set(key string, inference model.MerchantInference) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		inference: inference,
		expiry:    time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *inferenceCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

func (c *inferenceCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

func (c *inferenceCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (c *inferenceCache) Close() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}
