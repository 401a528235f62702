package models

import "testing"

func TestValidateRecordsAllValid(t *testing.T) {
	records := []BenefitRecord{
		{StateCode: "SC", Code: "850001", Description: "Isenção", StartDate: day(2023, 1, 1)},
		{StateCode: "SC", Code: "850002", Description: "Redução", StartDate: day(2023, 1, 1)},
	}

	outcome := ValidateRecords("SC", records)
	if !outcome.IsValid {
		t.Errorf("outcome invalid: %+v", outcome.Errors)
	}
	if outcome.ValidRecords != 2 || outcome.InvalidRecords != 0 {
		t.Errorf("counts = %d/%d", outcome.ValidRecords, outcome.InvalidRecords)
	}
}

func TestValidateRecordsFlagsViolations(t *testing.T) {
	end := day(2020, 1, 1)
	records := []BenefitRecord{
		{StateCode: "SC", Code: "", Description: "sem código", StartDate: day(2023, 1, 1)},
		{StateCode: "SC", Code: "850002", Description: "", StartDate: day(2023, 1, 1)},
		{StateCode: "SC", Code: "850003", Description: "datas invertidas", StartDate: day(2023, 1, 1), EndDate: &end},
		{StateCode: "RJ", Code: "850004", Description: "estado errado", StartDate: day(2023, 1, 1)},
	}

	outcome := ValidateRecords("SC", records)
	if outcome.IsValid {
		t.Fatal("outcome should be invalid")
	}
	if outcome.InvalidRecords != 4 {
		t.Errorf("invalid = %d, want 4", outcome.InvalidRecords)
	}
	if len(outcome.Errors) != 4 {
		t.Fatalf("errors = %d, want 4", len(outcome.Errors))
	}

	fields := map[string]bool{}
	for _, e := range outcome.Errors {
		fields[e.Field] = true
	}
	for _, field := range []string{"code", "description", "endDate", "stateCode"} {
		if !fields[field] {
			t.Errorf("missing validation error for field %q", field)
		}
	}
}

func TestValidateRecordsEndEqualStartIsValid(t *testing.T) {
	end := day(2023, 1, 1)
	records := []BenefitRecord{
		{StateCode: "SC", Code: "850001", Description: "mesmo dia", StartDate: day(2023, 1, 1), EndDate: &end},
	}

	outcome := ValidateRecords("SC", records)
	if !outcome.IsValid {
		t.Errorf("single-day window flagged: %+v", outcome.Errors)
	}
}

func TestValidateRecordsEmptyInput(t *testing.T) {
	outcome := ValidateRecords("SC", nil)
	if !outcome.IsValid || outcome.ValidRecords != 0 {
		t.Errorf("empty input outcome = %+v", outcome)
	}
}
