package service

import (
	"context"
	"errors"

	"github.com/rafael/cbenef/internal/config"
	"github.com/rafael/cbenef/internal/models"
)

// ErrCacheDisabled is returned by cache operations when the library was
// built without a cache.
var ErrCacheDisabled = errors.New("cache is not enabled")

// Library is the single entry point: extraction, search and cache management
// behind one type. The cache is optional; a nil cache means every call goes
// straight to the extractors.
type Library struct {
	cfg         *config.Config
	integration *Integration
	cache       *Cache
}

func NewLibrary(cfg *config.Config, integration *Integration, cache *Cache) *Library {
	return &Library{cfg: cfg, integration: integration, cache: cache}
}

// GetAvailableStates lists the enabled states in priority order.
func (l *Library) GetAvailableStates() []string {
	return l.integration.GetAvailableStates()
}

// ExtractAllResults extracts every enabled state, returning the per-state
// result envelopes. With useCache set and a cache present, fresh cached
// results are served without re-downloading.
func (l *Library) ExtractAllResults(ctx context.Context, useCache bool) []models.ExtractionResult {
	if useCache && l.cache != nil {
		return l.cache.GetAll(ctx)
	}
	return l.integration.ExtractAllStates(ctx)
}

// ExtractResultByState extracts one state's envelope, optionally through the
// cache. Returns nil for unknown or disabled states.
func (l *Library) ExtractResultByState(ctx context.Context, state string, useCache bool) *models.ExtractionResult {
	if useCache && l.cache != nil {
		return l.cache.GetByState(ctx, state)
	}
	return l.integration.ExtractByState(ctx, state)
}

// ExtractAllBenefits returns the combined records of every enabled state's
// successful extraction.
func (l *Library) ExtractAllBenefits(ctx context.Context, useCache bool) []models.BenefitRecord {
	return flattenRecords(l.ExtractAllResults(ctx, useCache))
}

// ExtractBenefitsByState returns one state's records, empty for unknown,
// disabled, or failed states. The cache is used when present.
func (l *Library) ExtractBenefitsByState(ctx context.Context, state string) []models.BenefitRecord {
	result := l.ExtractResultByState(ctx, state, true)
	if result == nil || !result.IsSuccess() {
		return nil
	}
	return result.Records
}

// SearchBenefits extracts (through the cache when available) and filters the
// combined record set.
func (l *Library) SearchBenefits(ctx context.Context, criteria SearchCriteria) []models.BenefitRecord {
	var states []string
	if criteria.StateCode != "" {
		states = []string{criteria.StateCode}
	} else {
		states = l.GetAvailableStates()
	}
	return Search(flattenRecords(l.extractStates(ctx, states)), criteria)
}

// FindBenefitByCode resolves a full code such as "SC850001". The state prefix
// routes the extraction so only that state's source is fetched.
func (l *Library) FindBenefitByCode(ctx context.Context, fullCode string) *models.BenefitRecord {
	if len(fullCode) < 3 {
		return nil
	}

	records := l.ExtractBenefitsByState(ctx, fullCode[:2])
	if len(records) == 0 {
		return nil
	}
	return FindByFullCode(records, fullCode)
}

func (l *Library) extractStates(ctx context.Context, states []string) []models.ExtractionResult {
	if l.cache != nil {
		return l.cache.GetMultiple(ctx, states)
	}
	return l.integration.ExtractMultipleStates(ctx, states)
}

func flattenRecords(results []models.ExtractionResult) []models.BenefitRecord {
	var records []models.BenefitRecord
	for _, result := range results {
		if result.IsSuccess() {
			records = append(records, result.Records...)
		}
	}
	return records
}

// IsCacheEnabled reports whether a cache is wired in.
func (l *Library) IsCacheEnabled() bool { return l.cache != nil }

// GetCacheStats returns live cache statistics.
func (l *Library) GetCacheStats() (map[string]any, error) {
	if l.cache == nil {
		return nil, ErrCacheDisabled
	}
	return l.cache.Stats(), nil
}

// ClearCache drops all cached results.
func (l *Library) ClearCache() error {
	if l.cache == nil {
		return ErrCacheDisabled
	}
	l.cache.Clear()
	return nil
}

// GetFromCacheByState returns the cached records for a state without
// triggering an extraction; empty when absent or stale.
func (l *Library) GetFromCacheByState(state string) []models.BenefitRecord {
	if l.cache == nil {
		return nil
	}
	cached := l.cache.lookup(state)
	if cached == nil {
		return nil
	}
	return cached.Records
}

// GetAllFromCache returns every fresh cached record without extracting.
func (l *Library) GetAllFromCache() []models.BenefitRecord {
	if l.cache == nil {
		return nil
	}
	var records []models.BenefitRecord
	for _, state := range l.GetAvailableStates() {
		if cached := l.cache.lookup(state); cached != nil {
			records = append(records, cached.Records...)
		}
	}
	return records
}
