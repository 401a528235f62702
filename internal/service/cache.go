package service

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/rafael/cbenef/internal/config"
	"github.com/rafael/cbenef/internal/models"
)

type cachedResult struct {
	result   models.ExtractionResult
	cachedAt time.Time
	ttl      time.Duration
}

func (c cachedResult) expiresAt() time.Time { return c.cachedAt.Add(c.ttl) }

func (c cachedResult) isExpired(now time.Time) bool { return now.After(c.expiresAt()) }

// Cache is a read-through TTL cache over Integration, keyed by state. Only
// SUCCESS results are stored; errors always retry on the next call.
//
// Concurrent misses for the same state may both run an extraction and the
// later one wins; extractions are idempotent so this only costs a duplicate
// download, and the lock is never held across network calls.
type Cache struct {
	cfg         *config.Config
	integration *Integration

	mu      sync.RWMutex
	entries map[string]cachedResult

	stopSweep chan struct{}
	sweepOnce sync.Once
}

func NewCache(cfg *config.Config, integration *Integration) *Cache {
	return &Cache{
		cfg:         cfg,
		integration: integration,
		entries:     make(map[string]cachedResult),
		stopSweep:   make(chan struct{}),
	}
}

// GetByState serves from cache when a fresh SUCCESS entry exists, otherwise
// extracts and caches the outcome if it succeeded.
func (c *Cache) GetByState(ctx context.Context, state string) *models.ExtractionResult {
	if cached := c.lookup(state); cached != nil {
		log.Printf("[cache] hit for %s", state)
		return cached
	}

	result := c.integration.ExtractByState(ctx, state)
	if result == nil {
		return nil
	}
	c.store(state, *result)
	return result
}

// GetAll serves every enabled state, mixing cache hits with fresh
// extractions for the misses.
func (c *Cache) GetAll(ctx context.Context) []models.ExtractionResult {
	return c.GetMultiple(ctx, c.integration.GetAvailableStates())
}

// GetMultiple splits the requested states into cached and missing, extracts
// the missing ones concurrently, and merges the two sets.
func (c *Cache) GetMultiple(ctx context.Context, states []string) []models.ExtractionResult {
	var results []models.ExtractionResult
	var missing []string

	for _, state := range states {
		if cached := c.lookup(state); cached != nil {
			results = append(results, *cached)
		} else {
			missing = append(missing, state)
		}
	}

	if len(missing) > 0 {
		fresh := c.integration.ExtractMultipleStates(ctx, missing)
		for _, result := range fresh {
			c.store(result.StateCode, result)
		}
		results = append(results, fresh...)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].StateCode < results[j].StateCode
	})
	return results
}

// lookup returns a fresh cached SUCCESS result, evicting on expiry.
func (c *Cache) lookup(state string) *models.ExtractionResult {
	if !c.cfg.CacheEnabledFor(state) {
		return nil
	}

	c.mu.RLock()
	entry, ok := c.entries[state]
	c.mu.RUnlock()
	if !ok {
		return nil
	}

	if entry.isExpired(time.Now()) {
		c.mu.Lock()
		// Recheck under the write lock: another goroutine may have
		// refreshed the entry since the read.
		if current, still := c.entries[state]; still && current.isExpired(time.Now()) {
			delete(c.entries, state)
			log.Printf("[cache] expired entry for %s evicted", state)
		}
		c.mu.Unlock()
		return nil
	}

	result := entry.result
	return &result
}

func (c *Cache) store(state string, result models.ExtractionResult) {
	if !c.cfg.CacheEnabledFor(state) || !result.IsSuccess() {
		return
	}

	ttl := c.cfg.CacheTTLFor(state)

	c.mu.Lock()
	defer c.mu.Unlock()

	if max := c.cfg.Cache.MaxSize; max > 0 && len(c.entries) >= max {
		if _, exists := c.entries[state]; !exists {
			c.evictOldestLocked()
		}
	}

	c.entries[state] = cachedResult{result: result, cachedAt: time.Now(), ttl: ttl}
	log.Printf("[cache] stored %s (%d records, ttl %s)", state, result.RecordCount(), ttl)
}

// evictOldestLocked drops the entry with the earliest cache time. Caller
// holds the write lock.
func (c *Cache) evictOldestLocked() {
	var oldest string
	var oldestAt time.Time
	for state, entry := range c.entries {
		if oldest == "" || entry.cachedAt.Before(oldestAt) {
			oldest = state
			oldestAt = entry.cachedAt
		}
	}
	if oldest != "" {
		delete(c.entries, oldest)
		log.Printf("[cache] evicted %s (capacity)", oldest)
	}
}

// IsCached reports whether a fresh entry exists without touching it.
func (c *Cache) IsCached(state string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[state]
	return ok && !entry.isExpired(time.Now())
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cachedResult)
	log.Printf("[cache] cleared")
}

// ClearForState drops one state's entry if present.
func (c *Cache) ClearForState(state string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, state)
}

// Stats summarizes live (unexpired) cache contents.
func (c *Cache) Stats() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	var entries []map[string]any
	totalStates, totalBenefits := 0, 0

	states := make([]string, 0, len(c.entries))
	for state := range c.entries {
		states = append(states, state)
	}
	sort.Strings(states)

	for _, state := range states {
		entry := c.entries[state]
		expired := entry.isExpired(now)
		if !expired {
			totalStates++
			totalBenefits += entry.result.RecordCount()
		}
		entries = append(entries, map[string]any{
			"stateCode": state,
			"count":     entry.result.RecordCount(),
			"cachedAt":  entry.cachedAt,
			"expiresAt": entry.expiresAt(),
			"isExpired": expired,
		})
	}

	return map[string]any{
		"totalStatesCached":   totalStates,
		"totalBenefitsCached": totalBenefits,
		"entries":             entries,
	}
}

// StartSweeper launches the periodic expired-entry sweep. It runs until
// StopSweeper or ctx cancellation.
func (c *Cache) StartSweeper(ctx context.Context) {
	interval := time.Duration(c.cfg.Cache.CleanupIntervalHours) * time.Hour
	if interval <= 0 {
		interval = time.Hour
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stopSweep:
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
}

// StopSweeper stops the background sweep. Safe to call more than once.
func (c *Cache) StopSweeper() {
	c.sweepOnce.Do(func() { close(c.stopSweep) })
}

func (c *Cache) sweep() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for state, entry := range c.entries {
		if entry.isExpired(now) {
			delete(c.entries, state)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[cache] sweep removed %d expired entries", removed)
	}
}
