package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rafael/cbenef/internal/config"
	"github.com/rafael/cbenef/internal/extract"
	"github.com/rafael/cbenef/internal/models"
)

// ExtractorFactory supplies extractors per state; *extract.Factory satisfies
// it. Create returns nil for unregistered states.
type ExtractorFactory interface {
	Create(state string) extract.Extractor
	Available() []extract.Extractor
}

// Integration coordinates extraction runs across states. Per-state failures
// become ERROR results rather than aborting the batch.
type Integration struct {
	cfg     *config.Config
	factory ExtractorFactory
}

func NewIntegration(cfg *config.Config, factory ExtractorFactory) *Integration {
	return &Integration{cfg: cfg, factory: factory}
}

// GetAvailableStates lists the states that are registered and enabled,
// ordered by configured priority.
func (s *Integration) GetAvailableStates() []string {
	extractors := s.factory.Available()
	states := make([]string, len(extractors))
	for i, ext := range extractors {
		states[i] = ext.StateCode()
	}
	return states
}

// ExtractByState runs a single state's extraction. It returns nil when the
// state has no registered extractor or is disabled.
func (s *Integration) ExtractByState(ctx context.Context, state string) *models.ExtractionResult {
	ext := s.factory.Create(state)
	if ext == nil {
		log.Printf("[integration] no extractor registered for %q", state)
		return nil
	}
	if !ext.Enabled() {
		log.Printf("[integration] state %s disabled, skipping", ext.StateCode())
		return nil
	}

	started := time.Now()
	result := s.runOne(ctx, ext)
	log.Printf("[integration] %s finished in %s: %s (%d records)",
		ext.StateCode(), time.Since(started).Round(time.Millisecond), result.Status, result.RecordCount())
	return &result
}

// ExtractAllStates runs every enabled extractor concurrently and waits for
// all of them. The concurrency bound comes from configuration.
func (s *Integration) ExtractAllStates(ctx context.Context) []models.ExtractionResult {
	return s.extractConcurrently(ctx, s.factory.Available())
}

// ExtractMultipleStates runs the given states concurrently. Unknown or
// disabled states are omitted from the output.
func (s *Integration) ExtractMultipleStates(ctx context.Context, states []string) []models.ExtractionResult {
	var extractors []extract.Extractor
	for _, state := range states {
		ext := s.factory.Create(state)
		if ext == nil || !ext.Enabled() {
			log.Printf("[integration] skipping %q: not registered or disabled", state)
			continue
		}
		extractors = append(extractors, ext)
	}
	return s.extractConcurrently(ctx, extractors)
}

func (s *Integration) extractConcurrently(ctx context.Context, extractors []extract.Extractor) []models.ExtractionResult {
	if len(extractors) == 0 {
		return nil
	}

	limit := s.cfg.Connection.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}

	results := make([]models.ExtractionResult, len(extractors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, ext := range extractors {
		i, ext := i, ext
		g.Go(func() error {
			results[i] = s.runOne(gctx, ext)
			return nil
		})
	}
	// Workers never return errors; failures live in the result slice.
	_ = g.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		return strings.Compare(results[i].StateCode, results[j].StateCode) < 0
	})
	return results
}

// runOne wraps a single extraction so that a misbehaving extractor cannot
// take the batch down. Extract already contains panics internally; this is
// the outer belt in case an implementation bypasses the shared base.
func (s *Integration) runOne(ctx context.Context, ext extract.Extractor) (result models.ExtractionResult) {
	defer func() {
		if recovered := recover(); recovered != nil {
			log.Printf("[integration] %s panicked: %v", ext.StateCode(), recovered)
			result = models.ErrorResult(ext.StateCode(), fmt.Sprintf("extraction panic: %v", recovered))
		}
	}()
	return ext.Extract(ctx)
}
