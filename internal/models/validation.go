package models

// ValidationError describes one invariant violation on a parsed record.
type ValidationError struct {
	RecordIndex int    `json:"record_index"`
	Field       string `json:"field"`
	Value       string `json:"value"`
	Message     string `json:"message"`
}

// ValidationOutcome summarizes advisory validation over a freshly parsed
// record list. Validation never filters records; noisy documents keep
// whatever was parsed and the errors are logged instead.
type ValidationOutcome struct {
	IsValid        bool              `json:"is_valid"`
	ValidRecords   int               `json:"valid_records"`
	InvalidRecords int               `json:"invalid_records"`
	Errors         []ValidationError `json:"errors,omitempty"`
}

// ValidateRecords checks every record against the extraction invariants:
// non-blank code and description, end date not before start date, and state
// code matching the owning extractor.
func ValidateRecords(stateCode string, records []BenefitRecord) ValidationOutcome {
	var errors []ValidationError
	valid := 0

	for i, rec := range records {
		ok := true

		if rec.Code == "" {
			errors = append(errors, ValidationError{i, "code", rec.Code, "código não pode ser vazio"})
			ok = false
		}
		if rec.Description == "" {
			errors = append(errors, ValidationError{i, "description", rec.Description, "descrição não pode ser vazia"})
			ok = false
		}
		if rec.EndDate != nil && rec.EndDate.Before(rec.StartDate) {
			errors = append(errors, ValidationError{i, "endDate", rec.EndDate.Format("2006-01-02"), "data fim não pode ser anterior à data início"})
			ok = false
		}
		if rec.StateCode != stateCode {
			errors = append(errors, ValidationError{i, "stateCode", rec.StateCode, "código do estado não confere"})
			ok = false
		}

		if ok {
			valid++
		}
	}

	return ValidationOutcome{
		IsValid:        len(errors) == 0,
		ValidRecords:   valid,
		InvalidRecords: len(records) - valid,
		Errors:         errors,
	}
}
