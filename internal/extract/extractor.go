package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/rafael/cbenef/internal/models"
)

// ConfigurationError signals required configuration missing for an enabled
// state, e.g. no source URL. It is fatal to that state's extraction only.
type ConfigurationError struct {
	StateCode string
	Field     string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("state %s: missing configuration %q", e.StateCode, e.Field)
}

// ExtractionError wraps a failure while parsing a downloaded document.
type ExtractionError struct {
	StateCode string
	Err       error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for state %s: %v", e.StateCode, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor is the per-state extraction contract. Extract never returns an
// error: every failure mode is folded into the result's status so that one
// state's broken document cannot abort a batch.
type Extractor interface {
	StateCode() string
	SupportedFormats() []models.DocumentFormat
	SourceName() string
	SourceURL() (string, error)
	Extract(ctx context.Context) models.ExtractionResult
	IsSourceAvailable(ctx context.Context) bool
	LastModified(ctx context.Context) *time.Time
	Enabled() bool
	Priority() int
	DisplayName() string
}
