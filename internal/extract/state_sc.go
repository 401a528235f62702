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

// Santa Catarina publishes its CBenef table as a loosely formatted PDF where
// code, description and validity dates share a line but spacing is erratic.
// The fallback chain goes from the full table row down to a bare code match
// with contextual recovery from neighboring lines.

var (
	scPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(SC\d{6})\s+(.+?)(?:\s+(\d{2}/\d{2}/\d{4}))?(?:\s+(\d{2}/\d{2}/\d{4}))?`),
		regexp.MustCompile(`^(SC\d{6})$`),
		regexp.MustCompile(`(SC\d{6})`),
	}
	scLegalRefPattern = regexp.MustCompile(`RICMS/SC-\d+.*`)
	scArticlePattern  = regexp.MustCompile(`Art\.\s*\d+.*`)
	dateOnlyPattern   = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
)

// scDefaultStart is the SC mandatory-reporting date used when a row carries
// no recoverable date.
var scDefaultStart = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

// NewSC builds the Santa Catarina extractor.
func NewSC(cfg *config.Config, download *client.DownloadClient, avail *client.AvailabilityClient) Extractor {
	return &stateExtractor{
		state:    "SC",
		formats:  []models.DocumentFormat{models.FormatPDF},
		cfg:      cfg,
		download: download,
		avail:    avail,
		parser:   scParser{},
	}
}

type scParser struct{}

func (scParser) parseText(text, sourceURL string) []models.BenefitRecord {
	lines := strings.Split(text, "\n")
	var records []models.BenefitRecord
	found, processed := 0, 0

	for i := range lines {
		line := strings.TrimSpace(lines[i])
		if scSkipLine(line) {
			continue
		}
		processed++

		for _, pattern := range scPatterns {
			match := pattern.FindStringSubmatch(line)
			if match == nil {
				continue
			}
			if rec := scBuildRecord(match[1], line, lines, i, sourceURL); rec != nil {
				records = append(records, *rec)
				found++
			}
			break // first matching pattern wins for this line
		}
	}

	log.Printf("[SC] processed %d lines, extracted %d codes", processed, found)
	logLowYield("SC", found, 10, lines, scSkipLine, 20)

	return dedupByFullCode(records)
}

func scSkipLine(line string) bool {
	trimmed := strings.TrimSpace(line)

	return trimmed == "" ||
		runeLen(trimmed) < 5 ||
		strings.HasPrefix(trimmed, "Página") ||
		strings.HasPrefix(trimmed, "Tabela") ||
		digitsOnlyPattern.MatchString(trimmed) ||
		separatorsPattern.MatchString(trimmed) ||
		strings.Contains(trimmed, "SECRETARIA") ||
		strings.Contains(trimmed, "FAZENDA") ||
		strings.Contains(trimmed, "GOVERNO")
}

func scBuildRecord(fullCode, line string, lines []string, index int, sourceURL string) *models.BenefitRecord {
	code := fullCode[2:]

	description := scDescription(line, lines, index, fullCode)
	if runeLen(description) < 10 {
		description = scDescriptionAhead(lines, index)
	}
	if description == "" {
		description = "Benefício fiscal ICMS - " + fullCode
	}

	dates := datesNearby(lines, index, 3)
	start, end := resolveDatesLoose(dates, scDefaultStart)

	return &models.BenefitRecord{
		StateCode:   "SC",
		Code:        code,
		Description: description,
		StartDate:   start,
		EndDate:     end,
		BenefitType: classifyBenefitType(description, scTypeRules),
		SourceMetadata: map[string]string{
			"extractionMethod": "PDF_ENHANCED_EXTRACTION",
			"sourceUrl":        sourceURL,
			"documentType":     "PDF_STRUCTURED",
			"fullCode":         fullCode,
			"lineIndex":        strconv.Itoa(index),
		},
	}
}

// scDescription cleans the matched line and, when too little survives, pulls
// the previous line plus the next two non-code lines as context.
func scDescription(line string, lines []string, index int, fullCode string) string {
	description := strings.ReplaceAll(line, fullCode, "")
	description = brDatePattern.ReplaceAllString(description, "")
	description = scLegalRefPattern.ReplaceAllString(description, "")
	description = scArticlePattern.ReplaceAllString(description, "")
	description = normalizeSpace(description)

	if runeLen(description) < 20 {
		var context []string
		if index > 0 {
			context = append(context, lines[index-1])
		}
		for i := 1; i <= 2; i++ {
			if index+i >= len(lines) {
				break
			}
			next := strings.TrimSpace(lines[index+i])
			if next != "" && !strings.HasPrefix(next, "SC") && !scSkipLine(next) {
				context = append(context, next)
			}
		}
		if len(context) > 0 {
			joined := strings.Join(context, " ")
			description = normalizeSpace(brDatePattern.ReplaceAllString(joined, ""))
		}
	}

	description = truncateWords(description, 15)
	if runeLen(description) <= 5 {
		return ""
	}
	return description
}

// scDescriptionAhead assembles a description purely from the following lines
// when the code stood alone on its row.
func scDescriptionAhead(lines []string, index int) string {
	var context []string
	for i := index + 1; i < index+5 && i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line != "" &&
			!strings.HasPrefix(line, "SC") &&
			!scSkipLine(line) &&
			!dateOnlyPattern.MatchString(line) {
			context = append(context, line)
		}
	}
	return truncateChars(normalizeSpace(strings.Join(context, " ")), 200)
}
