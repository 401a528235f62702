package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafael/cbenef/internal/config"
	"github.com/rafael/cbenef/internal/extract"
	"github.com/rafael/cbenef/internal/models"
)

// stubExtractor is a canned Extractor for exercising the service layer
// without network or PDFs.
type stubExtractor struct {
	state    string
	enabled  bool
	priority int
	result   models.ExtractionResult
	calls    atomic.Int32
}

func (s *stubExtractor) StateCode() string { return s.state }

func (s *stubExtractor) SupportedFormats() []models.DocumentFormat {
	return []models.DocumentFormat{models.FormatPDF}
}

func (s *stubExtractor) SourceName() string { return "stub " + s.state }

func (s *stubExtractor) SourceURL() (string, error) { return "https://example.test/" + s.state, nil }

func (s *stubExtractor) IsSourceAvailable(ctx context.Context) bool { return true }

func (s *stubExtractor) LastModified(ctx context.Context) *time.Time { return nil }

func (s *stubExtractor) Enabled() bool { return s.enabled }

func (s *stubExtractor) Priority() int { return s.priority }

func (s *stubExtractor) DisplayName() string { return "stub " + s.state }

func (s *stubExtractor) Extract(ctx context.Context) models.ExtractionResult {
	s.calls.Add(1)
	return s.result
}

type stubFactory struct {
	extractors map[string]*stubExtractor
}

func (f *stubFactory) Create(state string) extract.Extractor {
	ext, ok := f.extractors[state]
	if !ok {
		return nil
	}
	return ext
}

func (f *stubFactory) Available() []extract.Extractor {
	var out []extract.Extractor
	for _, ext := range f.extractors {
		if ext.enabled {
			out = append(out, ext)
		}
	}
	return out
}

func record(state, code, desc string) models.BenefitRecord {
	return models.BenefitRecord{
		StateCode:   state,
		Code:        code,
		Description: desc,
		StartDate:   time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		BenefitType: models.BenefitExemption,
	}
}

func successStub(state string, records ...models.BenefitRecord) *stubExtractor {
	return &stubExtractor{
		state:   state,
		enabled: true,
		result:  models.SuccessResult(state, "stub "+state, records),
	}
}

func newTestSetup(extractors ...*stubExtractor) (*config.Config, *Integration) {
	byState := make(map[string]*stubExtractor)
	for _, ext := range extractors {
		byState[ext.state] = ext
	}
	cfg := config.Default()
	return cfg, NewIntegration(cfg, &stubFactory{extractors: byState})
}

func TestExtractByStateUnknown(t *testing.T) {
	_, integration := newTestSetup()
	assert.Nil(t, integration.ExtractByState(context.Background(), "ZZ"))
}

func TestExtractByStateDisabled(t *testing.T) {
	disabled := &stubExtractor{state: "PR", enabled: false}
	_, integration := newTestSetup(disabled)

	assert.Nil(t, integration.ExtractByState(context.Background(), "PR"))
	assert.Zero(t, disabled.calls.Load())
}

func TestExtractAllStatesKeepsFailures(t *testing.T) {
	sc := successStub("SC", record("SC", "850001", "Isenção cesta básica"))
	rj := &stubExtractor{
		state:   "RJ",
		enabled: true,
		result:  models.ErrorResult("RJ", "document layout changed"),
	}
	_, integration := newTestSetup(sc, rj)

	results := integration.ExtractAllStates(context.Background())
	require.Len(t, results, 2)

	// Sorted by state code regardless of completion order.
	assert.Equal(t, "RJ", results[0].StateCode)
	assert.Equal(t, models.StatusError, results[0].Status)
	assert.Equal(t, "SC", results[1].StateCode)
	assert.True(t, results[1].IsSuccess())
}

func TestExtractMultipleStatesOmitsUnknown(t *testing.T) {
	sc := successStub("SC", record("SC", "850001", "Isenção"))
	_, integration := newTestSetup(sc)

	results := integration.ExtractMultipleStates(context.Background(), []string{"SC", "ZZ"})
	require.Len(t, results, 1)
	assert.Equal(t, "SC", results[0].StateCode)
}

func cacheEnabled(cfg *config.Config) {
	cfg.Cache.Enabled = true
	cfg.Cache.TTLMinutes = 60
}

func TestCacheServesSecondCallWithoutExtraction(t *testing.T) {
	sc := successStub("SC", record("SC", "850001", "Isenção"))
	cfg, integration := newTestSetup(sc)
	cacheEnabled(cfg)
	cache := NewCache(cfg, integration)

	first := cache.GetByState(context.Background(), "SC")
	second := cache.GetByState(context.Background(), "SC")

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, int32(1), sc.calls.Load(), "second call must be a cache hit")
	assert.Equal(t, first.Records, second.Records)
}

func TestCacheNeverStoresFailures(t *testing.T) {
	rj := &stubExtractor{
		state:   "RJ",
		enabled: true,
		result:  models.ErrorResult("RJ", "boom"),
	}
	cfg, integration := newTestSetup(rj)
	cacheEnabled(cfg)
	cache := NewCache(cfg, integration)

	cache.GetByState(context.Background(), "RJ")
	cache.GetByState(context.Background(), "RJ")

	assert.Equal(t, int32(2), rj.calls.Load(), "failures must retry, not be served from cache")
	assert.False(t, cache.IsCached("RJ"))
}

func TestCacheDisabledPassesThrough(t *testing.T) {
	sc := successStub("SC", record("SC", "850001", "Isenção"))
	cfg, integration := newTestSetup(sc)
	// cfg.Cache.Enabled stays false
	cache := NewCache(cfg, integration)

	cache.GetByState(context.Background(), "SC")
	cache.GetByState(context.Background(), "SC")

	assert.Equal(t, int32(2), sc.calls.Load())
}

func TestCacheExpiredEntryTriggersReExtraction(t *testing.T) {
	sc := successStub("SC", record("SC", "850001", "Isenção"))
	cfg, integration := newTestSetup(sc)
	cacheEnabled(cfg)
	cache := NewCache(cfg, integration)

	cache.GetByState(context.Background(), "SC")

	// Age the entry past its TTL.
	cache.mu.Lock()
	entry := cache.entries["SC"]
	entry.cachedAt = time.Now().Add(-2 * entry.ttl)
	cache.entries["SC"] = entry
	cache.mu.Unlock()

	cache.GetByState(context.Background(), "SC")
	assert.Equal(t, int32(2), sc.calls.Load())
}

func TestCacheStats(t *testing.T) {
	sc := successStub("SC",
		record("SC", "850001", "Isenção"),
		record("SC", "850002", "Redução"))
	cfg, integration := newTestSetup(sc)
	cacheEnabled(cfg)
	cache := NewCache(cfg, integration)

	cache.GetByState(context.Background(), "SC")
	stats := cache.Stats()

	assert.Equal(t, 1, stats["totalStatesCached"])
	assert.Equal(t, 2, stats["totalBenefitsCached"])
}

func TestCacheClear(t *testing.T) {
	sc := successStub("SC", record("SC", "850001", "Isenção"))
	cfg, integration := newTestSetup(sc)
	cacheEnabled(cfg)
	cache := NewCache(cfg, integration)

	cache.GetByState(context.Background(), "SC")
	require.True(t, cache.IsCached("SC"))

	cache.Clear()
	assert.False(t, cache.IsCached("SC"))
}

func TestSearchANDComposition(t *testing.T) {
	records := []models.BenefitRecord{
		record("SC", "850001", "Isenção nas operações com cesta básica"),
		record("SC", "850002", "Redução da base de cálculo"),
		record("RJ", "801001", "Isenção nas operações com hortifrutigranjeiros"),
	}

	got := Search(records, SearchCriteria{StateCode: "SC", Description: "isenção"})
	require.Len(t, got, 1)
	assert.Equal(t, "850001", got[0].Code)
}

func TestSearchByCodeMatchesFullCode(t *testing.T) {
	records := []models.BenefitRecord{
		record("SC", "850001", "Isenção"),
		record("RJ", "850001", "Isenção"),
	}

	got := Search(records, SearchCriteria{Code: "SC850001"})
	require.Len(t, got, 1)
	assert.Equal(t, "SC", got[0].StateCode)

	got = Search(records, SearchCriteria{Code: "850001"})
	assert.Len(t, got, 2)
}

func TestSearchActiveOnly(t *testing.T) {
	expired := record("SC", "850001", "Isenção encerrada")
	end := time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)
	expired.EndDate = &end
	expired.StartDate = time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

	active := record("SC", "850002", "Isenção vigente")

	got := Search([]models.BenefitRecord{expired, active}, SearchCriteria{ActiveOnly: true})
	require.Len(t, got, 1)
	assert.Equal(t, "850002", got[0].Code)
}

func TestFindByFullCode(t *testing.T) {
	records := []models.BenefitRecord{
		record("SC", "850001", "Isenção"),
		record("RJ", "801001", "Isenção"),
	}

	found := FindByFullCode(records, "RJ801001")
	require.NotNil(t, found)
	assert.Equal(t, "RJ", found.StateCode)

	assert.Nil(t, FindByFullCode(records, "XX999999"))
	assert.Nil(t, FindByFullCode(records, "SC"))
	assert.Nil(t, FindByFullCode(records, "SC850999"))
}

func TestLibraryFindBenefitByCode(t *testing.T) {
	sc := successStub("SC",
		record("SC", "850001", "Isenção cesta básica"))
	cfg, integration := newTestSetup(sc)
	library := NewLibrary(cfg, integration, nil)

	found := library.FindBenefitByCode(context.Background(), "SC850001")
	require.NotNil(t, found)
	assert.Equal(t, "SC850001", found.FullCode())

	assert.Nil(t, library.FindBenefitByCode(context.Background(), "XX999999"))
}

func TestLibraryCacheOperationsWithoutCache(t *testing.T) {
	cfg, integration := newTestSetup()
	library := NewLibrary(cfg, integration, nil)

	assert.False(t, library.IsCacheEnabled())
	_, err := library.GetCacheStats()
	assert.ErrorIs(t, err, ErrCacheDisabled)
	assert.ErrorIs(t, library.ClearCache(), ErrCacheDisabled)
}

func TestLibraryExtractAllBenefitsFlattensSuccesses(t *testing.T) {
	sc := successStub("SC", record("SC", "850001", "Isenção"))
	rj := &stubExtractor{
		state:   "RJ",
		enabled: true,
		result:  models.ErrorResult("RJ", "boom"),
	}
	cfg, integration := newTestSetup(sc, rj)
	library := NewLibrary(cfg, integration, nil)

	records := library.ExtractAllBenefits(context.Background(), false)
	require.Len(t, records, 1, "failed states contribute no records")
	assert.Equal(t, "SC850001", records[0].FullCode())
}

func TestLibraryCacheAccessors(t *testing.T) {
	sc := successStub("SC", record("SC", "850001", "Isenção"))
	cfg, integration := newTestSetup(sc)
	cacheEnabled(cfg)
	cache := NewCache(cfg, integration)
	library := NewLibrary(cfg, integration, cache)

	// Nothing cached yet: accessors must not trigger extraction.
	assert.Empty(t, library.GetFromCacheByState("SC"))
	assert.Empty(t, library.GetAllFromCache())
	assert.Zero(t, sc.calls.Load())

	library.ExtractBenefitsByState(context.Background(), "SC")
	assert.Len(t, library.GetFromCacheByState("SC"), 1)
	assert.Len(t, library.GetAllFromCache(), 1)
}

func TestLibrarySearchBenefits(t *testing.T) {
	sc := successStub("SC",
		record("SC", "850001", "Isenção nas operações com cesta básica"),
		record("SC", "850002", "Redução da base de cálculo"))
	cfg, integration := newTestSetup(sc)
	library := NewLibrary(cfg, integration, nil)

	got := library.SearchBenefits(context.Background(), SearchCriteria{
		StateCode:   "SC",
		Description: "redução",
	})
	require.Len(t, got, 1)
	assert.Equal(t, "850002", got[0].Code)
}
