package models

import "time"

// ExtractionStatus is the outcome class of one extraction attempt.
type ExtractionStatus string

const (
	StatusSuccess           ExtractionStatus = "SUCCESS"
	StatusError             ExtractionStatus = "ERROR"
	StatusSourceUnavailable ExtractionStatus = "SOURCE_UNAVAILABLE"
	StatusPartialSuccess    ExtractionStatus = "PARTIAL_SUCCESS"
)

// ExtractionResult is the per-state outcome envelope. Results are created once
// by one of the constructors below and never mutated afterwards.
type ExtractionResult struct {
	StateCode    string            `json:"state_code"`
	SourceName   string            `json:"source_name"`
	ExtractedAt  time.Time         `json:"extracted_at"`
	Status       ExtractionStatus  `json:"status"`
	Records      []BenefitRecord   `json:"records"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// IsSuccess reports whether the extraction yielded usable records.
func (r ExtractionResult) IsSuccess() bool {
	return r.Status == StatusSuccess
}

// RecordCount is the number of records carried by the result.
func (r ExtractionResult) RecordCount() int {
	return len(r.Records)
}

// SuccessResult builds a SUCCESS envelope around the parsed records.
func SuccessResult(stateCode, sourceName string, records []BenefitRecord) ExtractionResult {
	return ExtractionResult{
		StateCode:   stateCode,
		SourceName:  sourceName,
		ExtractedAt: time.Now(),
		Status:      StatusSuccess,
		Records:     records,
	}
}

// ErrorResult builds an ERROR envelope carrying the failure message.
func ErrorResult(stateCode, errorMessage string) ExtractionResult {
	return ExtractionResult{
		StateCode:    stateCode,
		SourceName:   "Unknown",
		ExtractedAt:  time.Now(),
		Status:       StatusError,
		ErrorMessage: errorMessage,
	}
}

// UnavailableResult builds a SOURCE_UNAVAILABLE envelope with no records.
func UnavailableResult(stateCode string) ExtractionResult {
	return ExtractionResult{
		StateCode:   stateCode,
		SourceName:  "Unknown",
		ExtractedAt: time.Now(),
		Status:      StatusSourceUnavailable,
	}
}
