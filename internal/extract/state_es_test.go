package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/rafael/cbenef/internal/models"
)

func TestESParseTextTableRow(t *testing.T) {
	text := "ES820001 SIM 01/01/2024 Diferimento do lançamento do imposto"

	records := esParser{}.parseText(text, "https://example.test/es.pdf")

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.FullCode() != "ES820001" {
		t.Errorf("full code = %q", rec.FullCode())
	}
	if rec.BenefitType != models.BenefitDeferral {
		t.Errorf("benefit type = %v, want deferral", rec.BenefitType)
	}
	if !rec.StartDate.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start date = %v", rec.StartDate)
	}
	if rec.EndDate != nil {
		t.Errorf("end date = %v, want open-ended", rec.EndDate)
	}
	if rec.SourceMetadata["extractionMethod"] != "PDF_TABLE_EXTRACTION" {
		t.Errorf("extractionMethod = %q", rec.SourceMetadata["extractionMethod"])
	}
}

func TestESParseTextBareCodeRecoversContext(t *testing.T) {
	text := strings.Join([]string{
		"ES850002",
		"Isenção nas operações internas com insumos agropecuários",
		"01/02/2024",
	}, "\n")

	records := esParser{}.parseText(text, "https://example.test/es.pdf")

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.BenefitType != models.BenefitExemption {
		t.Errorf("benefit type = %v, want exemption", rec.BenefitType)
	}
	if !rec.StartDate.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start date = %v, want 2024-02-01", rec.StartDate)
	}
	if !strings.Contains(rec.Description, "Isenção") {
		t.Errorf("description %q", rec.Description)
	}
	if rec.SourceMetadata["extractionMethod"] != "PDF_FALLBACK_EXTRACTION" {
		t.Errorf("extractionMethod = %q", rec.SourceMetadata["extractionMethod"])
	}
}

func TestESParseTextDefaultsStartDate(t *testing.T) {
	text := strings.Join([]string{
		"ES850003",
		"Redução de base de cálculo nas saídas de produtos da indústria moveleira",
	}, "\n")

	records := esParser{}.parseText(text, "https://example.test/es.pdf")

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if !records[0].StartDate.Equal(esDefaultStart) {
		t.Errorf("start date = %v, want default %v", records[0].StartDate, esDefaultStart)
	}
	if records[0].BenefitType != models.BenefitBaseReduction {
		t.Errorf("benefit type = %v, want base reduction", records[0].BenefitType)
	}
}

func TestESSkipLine(t *testing.T) {
	tests := []struct {
		line string
		skip bool
	}{
		{"", true},
		{"Cbenef - Tabela", true},
		{"CST aplicáveis", true},
		{"TABELA DE BENEFÍCIOS", true},
		{"9876", true},
		{"DESCRIÇÃO DO BENEFÍCIO", true},
		{"CAPITULAÇÃO LEGAL", true},
		{"ES820001 texto qualquer", false},
	}

	for _, tt := range tests {
		if got := esSkipLine(tt.line); got != tt.skip {
			t.Errorf("esSkipLine(%q) = %v, want %v", tt.line, got, tt.skip)
		}
	}
}
