package models

import (
	"time"
)

// BenefitType classifies a CBenef tax benefit. The code is the official
// 1-digit type identifier used in fiscal documents.
type BenefitType string

const (
	BenefitExemption     BenefitType = "EXEMPTION"
	BenefitNonIncidence  BenefitType = "NON_INCIDENCE"
	BenefitBaseReduction BenefitType = "BASE_REDUCTION"
	BenefitDeferral      BenefitType = "DEFERRAL"
	BenefitSuspension    BenefitType = "SUSPENSION"
	BenefitZeroRate      BenefitType = "ZERO_RATE"
	BenefitGrantedCredit BenefitType = "GRANTED_CREDIT"
	BenefitOther         BenefitType = "OTHER"
)

var benefitTypeCodes = map[BenefitType]string{
	BenefitExemption:     "1",
	BenefitNonIncidence:  "2",
	BenefitBaseReduction: "3",
	BenefitDeferral:      "4",
	BenefitSuspension:    "5",
	BenefitZeroRate:      "6",
	BenefitGrantedCredit: "7",
	BenefitOther:         "9",
}

var benefitTypeDescriptions = map[BenefitType]string{
	BenefitExemption:     "Isenção",
	BenefitNonIncidence:  "Não Incidência",
	BenefitBaseReduction: "Redução de Base de Cálculo",
	BenefitDeferral:      "Diferimento",
	BenefitSuspension:    "Suspensão",
	BenefitZeroRate:      "Alíquota Zero",
	BenefitGrantedCredit: "Crédito Outorgado",
	BenefitOther:         "Outros",
}

// Code returns the official 1-digit CBenef type code ("1".."9").
func (t BenefitType) Code() string {
	return benefitTypeCodes[t]
}

// Description returns the Portuguese display name of the benefit type.
func (t BenefitType) Description() string {
	return benefitTypeDescriptions[t]
}

// BenefitTypeFromCode resolves a 1-digit type code back to its enumeration
// value. Unknown codes return BenefitOther, false.
func BenefitTypeFromCode(code string) (BenefitType, bool) {
	for t, c := range benefitTypeCodes {
		if c == code {
			return t, true
		}
	}
	return BenefitOther, false
}

// InvoicePurpose is the 2-digit operation purpose a benefit may be tied to.
type InvoicePurpose string

const (
	PurposeSale          InvoicePurpose = "01"
	PurposeTransfer      InvoicePurpose = "02"
	PurposeReturn        InvoicePurpose = "03"
	PurposeConsignment   InvoicePurpose = "04"
	PurposeDemonstration InvoicePurpose = "05"
	PurposeGift          InvoicePurpose = "06"
	PurposeSample        InvoicePurpose = "07"
	PurposeOther         InvoicePurpose = "99"
)

// DocumentFormat identifies the published format of a state source document.
type DocumentFormat string

const (
	FormatPDF  DocumentFormat = "PDF"
	FormatXLS  DocumentFormat = "XLS"
	FormatXLSX DocumentFormat = "XLSX"
	FormatHTML DocumentFormat = "HTML"
	FormatJSON DocumentFormat = "JSON"
	FormatXML  DocumentFormat = "XML"
)

// BenefitRecord is one parsed CBenef entry from a state source document.
// Records are value objects: extractors build them once and never mutate them.
type BenefitRecord struct {
	StateCode      string            `json:"state_code"`
	Code           string            `json:"code"` // state-local code, digits only
	Description    string            `json:"description"`
	StartDate      time.Time         `json:"start_date"`
	EndDate        *time.Time        `json:"end_date,omitempty"`
	BenefitType    BenefitType       `json:"benefit_type"`
	InvoicePurpose InvoicePurpose    `json:"invoice_purpose,omitempty"`
	ApplicableCSTs []string          `json:"applicable_csts,omitempty"`
	CSTSpecific    bool              `json:"cst_specific"`
	Notes          string            `json:"notes,omitempty"`
	SourceMetadata map[string]string `json:"source_metadata,omitempty"`
}

// FullCode is the externally visible identifier: UF prefix + local code,
// e.g. "SC850001".
func (r BenefitRecord) FullCode() string {
	return r.StateCode + r.Code
}

// IsActive reports whether the benefit is in force on the reference date.
func (r BenefitRecord) IsActive(ref time.Time) bool {
	day := toDate(ref)
	if day.Before(toDate(r.StartDate)) {
		return false
	}
	if r.EndDate != nil && day.After(toDate(*r.EndDate)) {
		return false
	}
	return true
}

// IsApplicableForCST reports whether the benefit applies to the given 2-digit
// tax situation code. An empty CST list means the benefit applies to all.
func (r BenefitRecord) IsApplicableForCST(cst string) bool {
	if !r.CSTSpecific {
		return true
	}
	for _, c := range r.ApplicableCSTs {
		if c == cst {
			return true
		}
	}
	return false
}

// IsApplicableForProduct combines the active window and the CST restriction.
func (r BenefitRecord) IsApplicableForProduct(cst string, ref time.Time) bool {
	return r.IsActive(ref) && r.IsApplicableForCST(cst)
}

func toDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
