package extract

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rafael/cbenef/internal/client"
	"github.com/rafael/cbenef/internal/config"
	"github.com/rafael/cbenef/internal/models"
)

// docParser is the state-specific half of an extractor: it turns flattened
// document text into records. Everything else (availability, download,
// validation, failure containment) is shared.
type docParser interface {
	parseText(text, sourceURL string) []models.BenefitRecord
}

type stateExtractor struct {
	state    string
	formats  []models.DocumentFormat
	cfg      *config.Config
	download *client.DownloadClient
	avail    *client.AvailabilityClient
	parser   docParser
}

func (e *stateExtractor) StateCode() string { return e.state }

func (e *stateExtractor) SupportedFormats() []models.DocumentFormat { return e.formats }

func (e *stateExtractor) SourceName() string {
	return fmt.Sprintf("SEFAZ %s - CBenef", e.state)
}

func (e *stateExtractor) SourceURL() (string, error) {
	url := e.cfg.SourceURL(e.state)
	if url == "" {
		return "", &ConfigurationError{StateCode: e.state, Field: "source_url"}
	}
	return url, nil
}

func (e *stateExtractor) Enabled() bool { return e.cfg.IsStateEnabled(e.state) }

func (e *stateExtractor) Priority() int { return e.cfg.Priority(e.state) }

func (e *stateExtractor) DisplayName() string {
	names := make([]string, len(e.formats))
	for i, f := range e.formats {
		names[i] = string(f)
	}
	return fmt.Sprintf("CBenef %s (%s)", e.state, strings.Join(names, ","))
}

func (e *stateExtractor) IsSourceAvailable(ctx context.Context) bool {
	return e.avail.Check(ctx, e.state)
}

func (e *stateExtractor) LastModified(ctx context.Context) *time.Time {
	return e.avail.LastModified(ctx, e.state)
}

// Extract runs the full pipeline for one state: config gate, availability
// probe, download, text conversion, parsing, advisory validation. Every
// failure, including a parser panic on a malformed document, comes back as a
// result value.
func (e *stateExtractor) Extract(ctx context.Context) (result models.ExtractionResult) {
	defer func() {
		if recovered := recover(); recovered != nil {
			log.Printf("[%s] extraction panic: %v", e.state, recovered)
			result = models.ErrorResult(e.state, fmt.Sprintf("extraction panic: %v", recovered))
		}
	}()

	if !e.Enabled() {
		return models.ErrorResult(e.state, fmt.Sprintf("state %s disabled", e.state))
	}

	if !e.IsSourceAvailable(ctx) {
		return models.UnavailableResult(e.state)
	}

	raw, err := e.download.Download(ctx, e.state)
	if err != nil {
		return models.ErrorResult(e.state, err.Error())
	}

	text, err := DocumentText(raw)
	if err != nil {
		extErr := &ExtractionError{StateCode: e.state, Err: err}
		return models.ErrorResult(e.state, extErr.Error())
	}

	sourceURL, _ := e.SourceURL()
	records := e.parser.parseText(text, sourceURL)

	outcome := models.ValidateRecords(e.state, records)
	if outcome.InvalidRecords > 0 {
		for _, vErr := range outcome.Errors {
			log.Printf("[%s] validation: record %d, field %q: %s",
				e.state, vErr.RecordIndex, vErr.Field, vErr.Message)
		}
	}

	result = models.SuccessResult(e.state, e.SourceName(), records)
	result.Metadata = map[string]string{
		"runId":          uuid.NewString(),
		"documentBytes":  strconv.Itoa(len(raw)),
		"documentChars":  strconv.Itoa(len(text)),
		"validRecords":   strconv.Itoa(outcome.ValidRecords),
		"invalidRecords": strconv.Itoa(outcome.InvalidRecords),
	}
	return result
}

// logLowYield emits the operational signal for a likely upstream layout
// change: too few codes extracted, plus a sample of the lines that survived
// the skip predicate.
func logLowYield(state string, found, threshold int, lines []string, skip func(string) bool, sample int) {
	if found >= threshold {
		return
	}
	log.Printf("[%s] only %d codes extracted (threshold %d); source layout may have changed", state, found, threshold)
	shown := 0
	for i, line := range lines {
		if shown >= sample {
			break
		}
		if skip(strings.TrimSpace(line)) {
			continue
		}
		log.Printf("[%s] sample line %d: %q", state, i, line)
		shown++
	}
}
