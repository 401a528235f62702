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

// Espírito Santo's table carries SIM/NÃO applicability columns followed by
// dates, description, legal basis and observation. A specialized table-line
// extractor runs before the generic fallback chain: it is cheaper and more
// precise when the row is intact.

var (
	esTablePattern = regexp.MustCompile(
		`^(ES\d{6})\s+(SIM|NÃO)?\s*(?:(SIM|NÃO)\s+)*(\d{2}/\d{2}/\d{4})(?:\s+(\d{2}/\d{2}/\d{4}))?\s+(.+?)\s+(.+?)\s+(.+?)$`)

	esPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(ES\d{6})\s+.*?\s+(\d{2}/\d{2}/\d{4})(?:\s+(\d{2}/\d{2}/\d{4}))?\s+(.+?)\s+(.+?)\s+(.+?)$`),
		regexp.MustCompile(`^(ES\d{6})\s*$`),
		regexp.MustCompile(`(ES\d{6})`),
	}

	esTechnicalTailPattern = regexp.MustCompile(`(SIM|NÃO|Art\.|Convênio|ICMS).*`)
)

// esDefaultStart is used when a row carries no recoverable date.
var esDefaultStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// NewES builds the Espírito Santo extractor.
func NewES(cfg *config.Config, download *client.DownloadClient, avail *client.AvailabilityClient) Extractor {
	return &stateExtractor{
		state:    "ES",
		formats:  []models.DocumentFormat{models.FormatPDF},
		cfg:      cfg,
		download: download,
		avail:    avail,
		parser:   esParser{},
	}
}

type esParser struct{}

func (esParser) parseText(text, sourceURL string) []models.BenefitRecord {
	lines := strings.Split(text, "\n")
	var records []models.BenefitRecord
	found, processed := 0, 0

	for i := range lines {
		line := strings.TrimSpace(lines[i])
		if esSkipLine(line) {
			continue
		}
		processed++

		if rec := esFromTableLine(line, lines, i, sourceURL); rec != nil {
			records = append(records, *rec)
			found++
			continue
		}

		for _, pattern := range esPatterns {
			match := pattern.FindStringSubmatch(line)
			if match == nil {
				continue
			}
			if rec := esFromContext(match[1], line, lines, i, sourceURL); rec != nil {
				records = append(records, *rec)
				found++
			}
			break
		}
	}

	log.Printf("[ES] processed %d lines, extracted %d codes", processed, found)
	logLowYield("ES", found, 5, lines, esSkipLine, 30)

	return dedupByFullCode(records)
}

func esSkipLine(line string) bool {
	trimmed := strings.TrimSpace(line)

	return trimmed == "" ||
		runeLen(trimmed) < 5 ||
		strings.HasPrefix(trimmed, "Cbenef") ||
		strings.HasPrefix(trimmed, "Aplica ao") ||
		strings.HasPrefix(trimmed, "CST") ||
		strings.HasPrefix(trimmed, "DATA") ||
		strings.HasPrefix(trimmed, "TABELA") ||
		digitsOnlyPattern.MatchString(trimmed) ||
		separatorsPattern.MatchString(trimmed) ||
		strings.Contains(trimmed, "SECRETARIA") ||
		strings.Contains(trimmed, "FAZENDA") ||
		strings.Contains(trimmed, "GOVERNO") ||
		strings.Contains(trimmed, "DESCRIÇÃO") ||
		strings.Contains(trimmed, "CAPITULAÇÃO") ||
		strings.Contains(trimmed, "OBSERVAÇÃO")
}

// esFromTableLine maps an intact table row straight onto a record.
func esFromTableLine(line string, lines []string, index int, sourceURL string) *models.BenefitRecord {
	match := esTablePattern.FindStringSubmatch(line)
	if match == nil {
		return nil
	}

	fullCode := match[1]
	code := fullCode[2:]

	start := esDefaultStart
	if parsed, err := parseBRDate(match[4]); err == nil {
		start = parsed
	}
	var end *time.Time
	if match[5] != "" {
		if parsed, err := parseBRDate(match[5]); err == nil {
			end = &parsed
		}
	}

	description := strings.TrimSpace(match[6])
	legalBasis := strings.TrimSpace(match[7])
	observation := strings.TrimSpace(match[8])

	if runeLen(description) < 10 {
		description = esDescriptionFromContext(lines, index, fullCode)
	}
	if description == "" {
		description = "Benefício fiscal ICMS - " + fullCode
	}

	return &models.BenefitRecord{
		StateCode:   "ES",
		Code:        code,
		Description: description,
		StartDate:   start,
		EndDate:     end,
		BenefitType: classifyBenefitType(description+" "+observation, esTypeRules),
		SourceMetadata: map[string]string{
			"extractionMethod": "PDF_TABLE_EXTRACTION",
			"sourceUrl":        sourceURL,
			"documentType":     "PDF_TABULAR",
			"fullCode":         fullCode,
			"legalBasis":       legalBasis,
			"observation":      observation,
			"lineIndex":        strconv.Itoa(index),
		},
	}
}

// esFromContext handles rows where only the code could be anchored; every
// other field is recovered from the surrounding lines.
func esFromContext(fullCode, line string, lines []string, index int, sourceURL string) *models.BenefitRecord {
	code := fullCode[2:]

	description := esDescriptionFromContext(lines, index, fullCode)
	if description == "" {
		description = "Benefício fiscal ICMS - " + fullCode
	}

	dates := datesNearby(lines, index, 3)
	start, end := resolveDatesLoose(dates, esDefaultStart)

	return &models.BenefitRecord{
		StateCode:   "ES",
		Code:        code,
		Description: description,
		StartDate:   start,
		EndDate:     end,
		BenefitType: classifyBenefitType(description, esTypeRules),
		SourceMetadata: map[string]string{
			"extractionMethod": "PDF_FALLBACK_EXTRACTION",
			"sourceUrl":        sourceURL,
			"documentType":     "PDF_STRUCTURED",
			"fullCode":         fullCode,
			"lineIndex":        strconv.Itoa(index),
		},
	}
}

// esDescriptionFromContext takes whatever follows the code on its own line
// and, if that is too short, concatenates following lines until roughly a
// sentence's worth of text is gathered, then strips dates and technical
// column leftovers.
func esDescriptionFromContext(lines []string, index int, fullCode string) string {
	var context []string

	current := strings.TrimSpace(lines[index])
	if idx := strings.Index(current, fullCode); idx >= 0 {
		after := strings.TrimSpace(current[idx+len(fullCode):])
		if after != "" {
			context = append(context, after)
		}
	}

	if runeLen(strings.Join(context, " ")) < 20 {
		for i := index + 1; i < index+4 && i < len(lines); i++ {
			line := strings.TrimSpace(lines[i])
			if line != "" &&
				!strings.HasPrefix(line, "ES") &&
				!esSkipLine(line) &&
				!dateOnlyPattern.MatchString(line) {
				context = append(context, line)
				if runeLen(strings.Join(context, " ")) > 50 {
					break
				}
			}
		}
	}

	joined := strings.Join(context, " ")
	joined = brDatePattern.ReplaceAllString(joined, "")
	joined = esTechnicalTailPattern.ReplaceAllString(joined, "")
	return truncateChars(normalizeSpace(joined), 200)
}
