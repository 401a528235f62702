package service

import (
	"strings"
	"time"

	"github.com/rafael/cbenef/internal/models"
)

// SearchCriteria narrows a benefit search. Zero-value fields do not filter.
type SearchCriteria struct {
	StateCode   string
	Code        string
	Description string
	ActiveOnly  bool
}

// Search filters records with AND composition across the set criteria. Code
// matches against either the bare code or the state-prefixed full code;
// description matching is a case-insensitive substring test.
func Search(records []models.BenefitRecord, criteria SearchCriteria) []models.BenefitRecord {
	var out []models.BenefitRecord
	for _, rec := range records {
		if criteria.StateCode != "" && !strings.EqualFold(rec.StateCode, criteria.StateCode) {
			continue
		}
		if criteria.Code != "" && !codeMatches(rec, criteria.Code) {
			continue
		}
		if criteria.Description != "" && !containsFold(rec.Description, criteria.Description) {
			continue
		}
		if criteria.ActiveOnly && !rec.IsActive(time.Now()) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func codeMatches(rec models.BenefitRecord, query string) bool {
	return containsFold(rec.Code, query) || containsFold(rec.FullCode(), query)
}

// FindByFullCode resolves a state-prefixed code like "SC850001" to its
// record. The first two characters select the state; the rest must match the
// record code exactly.
func FindByFullCode(records []models.BenefitRecord, fullCode string) *models.BenefitRecord {
	fullCode = strings.TrimSpace(fullCode)
	if len(fullCode) < 3 {
		return nil
	}
	state := strings.ToUpper(fullCode[:2])
	code := fullCode[2:]

	for i := range records {
		if strings.EqualFold(records[i].StateCode, state) && records[i].Code == code {
			return &records[i]
		}
	}
	return nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
