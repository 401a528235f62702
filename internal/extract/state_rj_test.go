package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/rafael/cbenef/internal/models"
)

func TestRJParseTextMainPattern(t *testing.T) {
	text := "RJ801001 SIM SIM 01/04/2019 31/12/2030 Isenção nas operações com produtos hortifrutigranjeiros"

	records := rjParser{}.parseText(text, "https://example.test/rj.pdf")

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.FullCode() != "RJ801001" {
		t.Errorf("full code = %q", rec.FullCode())
	}
	if rec.BenefitType != models.BenefitExemption {
		t.Errorf("benefit type = %v, want exemption", rec.BenefitType)
	}
	if !rec.StartDate.Equal(time.Date(2019, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start date = %v", rec.StartDate)
	}
	if rec.EndDate == nil || !rec.EndDate.Equal(time.Date(2030, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end date = %v, want 2030-12-31", rec.EndDate)
	}
	if !rec.CSTSpecific {
		t.Error("record with SIM markers should be CST specific")
	}
	if len(rec.ApplicableCSTs) != 2 || rec.ApplicableCSTs[0] != "00" || rec.ApplicableCSTs[1] != "10" {
		t.Errorf("applicable CSTs = %v, want [00 10]", rec.ApplicableCSTs)
	}
	if rec.SourceMetadata["extractionMethod"] != "PDF_RJ_MAIN_PATTERN" {
		t.Errorf("extractionMethod = %q", rec.SourceMetadata["extractionMethod"])
	}
}

func TestRJParseTextSingleCSTMarker(t *testing.T) {
	text := "RJ801003 SIM 02/05/2020 Crédito presumido nas saídas internas de leite pasteurizado"

	records := rjParser{}.parseText(text, "https://example.test/rj.pdf")

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if len(rec.ApplicableCSTs) != 1 || rec.ApplicableCSTs[0] != "00" {
		t.Errorf("applicable CSTs = %v, want [00]", rec.ApplicableCSTs)
	}
	if rec.BenefitType != models.BenefitGrantedCredit {
		t.Errorf("benefit type = %v, want granted credit", rec.BenefitType)
	}
}

func TestRJParseTextFallbackPattern(t *testing.T) {
	text := strings.Join([]string{
		"RJ801002 Redução de base de cálculo para o setor têxtil fluminense",
		"01/07/2021",
	}, "\n")

	records := rjParser{}.parseText(text, "https://example.test/rj.pdf")

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.BenefitType != models.BenefitBaseReduction {
		t.Errorf("benefit type = %v, want base reduction", rec.BenefitType)
	}
	if !rec.StartDate.Equal(time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start date = %v, want 2021-07-01", rec.StartDate)
	}
	if rec.CSTSpecific {
		t.Error("no SIM markers nearby, record should not be CST specific")
	}
	if rec.SourceMetadata["extractionMethod"] != "PDF_RJ_FALLBACK_PATTERN" {
		t.Errorf("extractionMethod = %q", rec.SourceMetadata["extractionMethod"])
	}
}

func TestRJParseTextEndBeforeStartDropped(t *testing.T) {
	text := "RJ801004 SIM 01/04/2019 01/04/2019 Diferimento do imposto nas operações interestaduais"

	records := rjParser{}.parseText(text, "https://example.test/rj.pdf")

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].EndDate != nil {
		t.Errorf("end date equal to start must be dropped, got %v", records[0].EndDate)
	}
}

func TestRJSkipLine(t *testing.T) {
	tests := []struct {
		line string
		skip bool
	}{
		{"", true},
		{"RJ80100", true}, // shorter than a full code line
		{"CÓDIGO DESCRIÇÃO", true},
		{"Tabela atualizada", true},
		{"X X X X X X", true},
		{"SEM PREENCHIMENTO da coluna", true},
		{"Informar apenas quando houver benefício", true},
		{"RJ801001 SIM 01/04/2019 Isenção", false},
	}

	for _, tt := range tests {
		if got := rjSkipLine(tt.line); got != tt.skip {
			t.Errorf("rjSkipLine(%q) = %v, want %v", tt.line, got, tt.skip)
		}
	}
}
