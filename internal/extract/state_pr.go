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

// Paraná ships its codes inside the SPED guidance document (table 5.2), so
// rows sit between long stretches of prose. The table pattern captures the
// well-formed rows; the fallback chain anchors on the code and rebuilds the
// rest from context.

var (
	prTablePattern = regexp.MustCompile(
		`^(PR\d{6})\s+(.+?)\s+(\d{2}/\d{2}/\d{4})(?:\s+(\d{2}/\d{2}/\d{4}))?\s*(.*)$`)

	prFallbackPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(PR\d{6})\s+(.+?)$`),
		regexp.MustCompile(`^(PR\d{6})\s+([^0-9]+?)\s+(.+)$`),
		regexp.MustCompile(`(PR\d{6})`),
	}
)

// prDefaultStart is PR's CBenef adoption date.
var prDefaultStart = time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)

// NewPR builds the Paraná extractor.
func NewPR(cfg *config.Config, download *client.DownloadClient, avail *client.AvailabilityClient) Extractor {
	return &stateExtractor{
		state:    "PR",
		formats:  []models.DocumentFormat{models.FormatPDF},
		cfg:      cfg,
		download: download,
		avail:    avail,
		parser:   prParser{},
	}
}

type prParser struct{}

func (prParser) parseText(text, sourceURL string) []models.BenefitRecord {
	lines := strings.Split(text, "\n")
	var records []models.BenefitRecord
	found, processed := 0, 0

	for i := range lines {
		line := strings.TrimSpace(lines[i])
		if prSkipLine(line) {
			continue
		}
		processed++

		if match := prTablePattern.FindStringSubmatch(line); match != nil {
			if rec := prFromTableLine(match, lines, i, sourceURL); rec != nil {
				records = append(records, *rec)
				found++
				continue
			}
		}

		for _, pattern := range prFallbackPatterns {
			match := pattern.FindStringSubmatch(line)
			if match == nil {
				continue
			}
			if rec := prFromContext(match[1], line, lines, i, sourceURL); rec != nil {
				records = append(records, *rec)
				found++
			}
			break
		}
	}

	log.Printf("[PR] processed %d lines, extracted %d codes", processed, found)
	logLowYield("PR", found, 5, lines, prSkipLine, 30)

	return dedupByFullCode(records)
}

func prSkipLine(line string) bool {
	trimmed := strings.TrimSpace(line)

	return trimmed == "" ||
		runeLen(trimmed) < 8 ||
		strings.HasPrefix(trimmed, "CÓDIGO") ||
		strings.HasPrefix(trimmed, "Tabela") ||
		strings.HasPrefix(trimmed, "TABELA") ||
		strings.HasPrefix(trimmed, "CST") ||
		strings.HasPrefix(trimmed, "DATA") ||
		strings.HasPrefix(trimmed, "SPED") ||
		strings.HasPrefix(trimmed, "SEFAZ") ||
		strings.HasPrefix(trimmed, "Página") ||
		digitsOnlyPattern.MatchString(trimmed) ||
		separatorsPattern.MatchString(trimmed) ||
		strings.Contains(trimmed, "SECRETARIA") ||
		strings.Contains(trimmed, "FAZENDA") ||
		strings.Contains(trimmed, "GOVERNO") ||
		strings.Contains(trimmed, "DESCRIÇÃO") ||
		strings.Contains(trimmed, "VIGÊNCIA") ||
		strings.Contains(trimmed, "Sistema Público") ||
		strings.Contains(trimmed, "Escrituração Digital")
}

func prFromTableLine(match []string, lines []string, index int, sourceURL string) *models.BenefitRecord {
	fullCode := match[1]
	code := fullCode[2:]

	start, end := resolveDates(match[3], match[4], prDefaultStart)

	description := strings.TrimSpace(match[2])
	additionalInfo := strings.TrimSpace(match[5])
	description = prEnhanceDescription(description, additionalInfo, lines, index)
	if description == "" {
		description = "Benefício fiscal ICMS - " + fullCode
	}

	return &models.BenefitRecord{
		StateCode:   "PR",
		Code:        code,
		Description: description,
		StartDate:   start,
		EndDate:     end,
		BenefitType: classifyBenefitType(description+" "+additionalInfo, prTypeRules),
		SourceMetadata: map[string]string{
			"extractionMethod": "PDF_PR_TABLE_STRUCTURE",
			"sourceUrl":        sourceURL,
			"documentType":     "PDF_PR_TABELA_5_2",
			"fullCode":         fullCode,
			"additionalInfo":   additionalInfo,
			"lineIndex":        strconv.Itoa(index),
		},
	}
}

func prFromContext(fullCode, line string, lines []string, index int, sourceURL string) *models.BenefitRecord {
	code := fullCode[2:]

	description := strings.ReplaceAll(line, fullCode, "")
	description = brDatePattern.ReplaceAllString(description, "")
	description = normalizeSpace(description)
	if runeLen(description) < 15 {
		var context []string
		if description != "" {
			context = append(context, description)
		}
		for i := index + 1; i < index+4 && i < len(lines); i++ {
			next := strings.TrimSpace(lines[i])
			if next != "" && !strings.HasPrefix(next, "PR") && !prSkipLine(next) {
				context = append(context, next)
			}
		}
		joined := strings.Join(context, " ")
		description = normalizeSpace(brDatePattern.ReplaceAllString(joined, ""))
	}
	description = truncateChars(description, 200)
	if description == "" {
		description = "Benefício fiscal ICMS - " + fullCode
	}

	dates := datesWithin(lines, index, 3)
	start, end := prResolveContextDates(dates)

	return &models.BenefitRecord{
		StateCode:   "PR",
		Code:        code,
		Description: description,
		StartDate:   start,
		EndDate:     end,
		BenefitType: classifyBenefitType(description, prTypeRules),
		SourceMetadata: map[string]string{
			"extractionMethod": "PDF_PR_PATTERN_FALLBACK",
			"sourceUrl":        sourceURL,
			"documentType":     "PDF_PR_FALLBACK",
			"fullCode":         fullCode,
			"lineIndex":        strconv.Itoa(index),
		},
	}
}

func prResolveContextDates(dates []string) (time.Time, *time.Time) {
	if len(dates) == 0 {
		return prDefaultStart, nil
	}
	second := ""
	if len(dates) > 1 {
		second = dates[1]
	}
	return resolveDates(dates[0], second, prDefaultStart)
}

// prEnhanceDescription pads short descriptions with following prose lines and
// folds the trailing column in when it adds information.
func prEnhanceDescription(description, additionalInfo string, lines []string, index int) string {
	if runeLen(description) < 20 {
		parts := []string{description}
		for i := index + 1; i < index+3 && i < len(lines); i++ {
			next := strings.TrimSpace(lines[i])
			if next != "" &&
				!strings.HasPrefix(next, "PR") &&
				!prSkipLine(next) &&
				!dateOnlyPattern.MatchString(next) {
				parts = append(parts, next)
			}
		}
		description = normalizeSpace(strings.Join(parts, " "))
	}

	if additionalInfo != "" && !containsFold(description, additionalInfo) {
		description = description + " - " + additionalInfo
	}

	return truncateChars(normalizeSpace(description), 250)
}
