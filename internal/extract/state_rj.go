package extract

import (
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rafael/cbenef/internal/client"
	"github.com/rafael/cbenef/internal/config"
	"github.com/rafael/cbenef/internal/models"
)

// Rio de Janeiro publishes a benefit-code × CST cross table. The main pattern
// captures the full row shape (code, SIM markers, dates, description); rows
// broken across lines fall through to a looser pattern with contextual date
// and CST recovery.

var (
	rjMainPattern = regexp.MustCompile(
		`^(RJ\d{6})\s+(SIM)?\s*(SIM)?\s*(\d{2}/\d{2}/\d{4})(?:\s+(\d{2}/\d{2}/\d{4}))?\s+(.+)$`)
	rjFallbackPattern = regexp.MustCompile(`^(RJ\d{6})\s+(.+)$`)
)

// rjDefaultStart is RJ's statutory CBenef reporting start.
var rjDefaultStart = time.Date(2019, time.April, 1, 0, 0, 0, 0, time.UTC)

// NewRJ builds the Rio de Janeiro extractor.
func NewRJ(cfg *config.Config, download *client.DownloadClient, avail *client.AvailabilityClient) Extractor {
	return &stateExtractor{
		state:    "RJ",
		formats:  []models.DocumentFormat{models.FormatPDF},
		cfg:      cfg,
		download: download,
		avail:    avail,
		parser:   rjParser{},
	}
}

type rjParser struct{}

func (rjParser) parseText(text, sourceURL string) []models.BenefitRecord {
	lines := strings.Split(text, "\n")
	var records []models.BenefitRecord
	found, processed := 0, 0

	for i := range lines {
		line := strings.TrimSpace(lines[i])
		if rjSkipLine(line) {
			continue
		}
		processed++

		if match := rjMainPattern.FindStringSubmatch(line); match != nil {
			if rec := rjFromMainPattern(match, line, sourceURL); rec != nil {
				records = append(records, *rec)
				found++
				continue
			}
		}

		if match := rjFallbackPattern.FindStringSubmatch(line); match != nil {
			if rec := rjFromFallbackPattern(match, lines, i, sourceURL); rec != nil {
				records = append(records, *rec)
				found++
			}
		}
	}

	log.Printf("[RJ] processed %d lines, extracted %d codes", processed, found)
	logLowYield("RJ", found, 10, lines, rjSkipLine, 30)

	return dedupByFullCode(records)
}

func rjSkipLine(line string) bool {
	trimmed := strings.TrimSpace(line)

	return trimmed == "" ||
		runeLen(trimmed) < 8 || // shorter than a bare RJ code
		strings.HasPrefix(trimmed, "CÓDIGO") ||
		strings.HasPrefix(trimmed, "CST") ||
		strings.HasPrefix(trimmed, "DATA") ||
		strings.HasPrefix(trimmed, "Tabela") ||
		strings.HasPrefix(trimmed, "SEFAZ") ||
		digitsOnlyPattern.MatchString(trimmed) ||
		separatorsXPattern.MatchString(trimmed) ||
		strings.Contains(trimmed, "SECRETARIA") ||
		strings.Contains(trimmed, "FAZENDA") ||
		strings.Contains(trimmed, "GOVERNO") ||
		strings.Contains(trimmed, "DESCRIÇÃO") ||
		strings.Contains(trimmed, "OBSERVAÇÃO") ||
		strings.Contains(trimmed, "atualizada em") ||
		strings.Contains(trimmed, "SEM PREENCHIMENTO") ||
		strings.Contains(trimmed, "Informar apenas")
}

func rjFromMainPattern(match []string, line, sourceURL string) *models.BenefitRecord {
	fullCode := match[1]
	code := fullCode[2:]

	// SIM marker columns map positionally onto CST codes.
	var csts []string
	if match[2] == "SIM" {
		csts = append(csts, "00")
	}
	if match[3] == "SIM" {
		csts = append(csts, "10")
	}

	start, end := resolveDates(match[4], match[5], rjDefaultStart)

	description := strings.TrimSpace(match[6])
	if description == "" {
		description = "Benefício fiscal ICMS - " + fullCode
	}

	return &models.BenefitRecord{
		StateCode:      "RJ",
		Code:           code,
		Description:    description,
		StartDate:      start,
		EndDate:        end,
		BenefitType:    classifyBenefitType(description, rjTypeRules),
		ApplicableCSTs: csts,
		CSTSpecific:    len(csts) > 0,
		SourceMetadata: map[string]string{
			"extractionMethod": "PDF_RJ_MAIN_PATTERN",
			"sourceUrl":        sourceURL,
			"documentType":     "PDF_RJ_TABLE",
			"fullCode":         fullCode,
			"applicableCSTs":   strings.Join(csts, ","),
			"originalLine":     line,
		},
	}
}

func rjFromFallbackPattern(match []string, lines []string, index int, sourceURL string) *models.BenefitRecord {
	fullCode := match[1]
	code := fullCode[2:]

	description := strings.TrimSpace(match[2])
	if description == "" {
		description = "Benefício fiscal ICMS - " + fullCode
	}

	dates := datesWithin(lines, index, 3)
	start, end := rjResolveContextDates(dates)

	csts := rjCSTsFromContext(lines, index)

	return &models.BenefitRecord{
		StateCode:      "RJ",
		Code:           code,
		Description:    description,
		StartDate:      start,
		EndDate:        end,
		BenefitType:    classifyBenefitType(description, rjTypeRules),
		ApplicableCSTs: csts,
		CSTSpecific:    len(csts) > 0,
		SourceMetadata: map[string]string{
			"extractionMethod": "PDF_RJ_FALLBACK_PATTERN",
			"sourceUrl":        sourceURL,
			"documentType":     "PDF_RJ_FALLBACK",
			"fullCode":         fullCode,
			"applicableCSTs":   strings.Join(csts, ","),
			"lineIndex":        strconv.Itoa(index),
		},
	}
}

func rjResolveContextDates(dates []string) (time.Time, *time.Time) {
	if len(dates) == 0 {
		return rjDefaultStart, nil
	}
	second := ""
	if len(dates) > 1 {
		second = dates[1]
	}
	return resolveDates(dates[0], second, rjDefaultStart)
}

// rjCSTsFromContext checks the surrounding lines for SIM markers when the row
// itself did not carry them; the column position is lost at that point, so
// both mapped CSTs are assumed.
func rjCSTsFromContext(lines []string, index int) []string {
	for i := index - 1; i <= index+1; i++ {
		if i < 0 || i >= len(lines) {
			continue
		}
		if strings.Contains(lines[i], "SIM") {
			return []string{"00", "10"}
		}
	}
	return nil
}
