package extract

import (
	"regexp"
	"time"
)

// brDatePattern matches dd/mm/yyyy tokens as printed in the state documents.
var brDatePattern = regexp.MustCompile(`(\d{2}/\d{2}/\d{4})`)

// parseBRDate parses a dd/mm/yyyy token into a UTC date.
func parseBRDate(s string) (time.Time, error) {
	return time.Parse("02/01/2006", s)
}

// datesInLine extracts all dd/mm/yyyy tokens from one line, in order.
func datesInLine(line string) []string {
	return brDatePattern.FindAllString(line, -1)
}

// datesNearby scans the current line for dates; when it has none, it walks
// the next maxAhead lines one by one and stops at the first line that
// contributes any date.
func datesNearby(lines []string, index, maxAhead int) []string {
	dates := datesInLine(lines[index])
	if len(dates) > 0 {
		return dates
	}
	for i := 1; i <= maxAhead && index+i < len(lines); i++ {
		dates = append(dates, datesInLine(lines[index+i])...)
		if len(dates) > 0 {
			break
		}
	}
	return dates
}

// datesWithin gathers every date token found on lines [index, index+span).
func datesWithin(lines []string, index, span int) []string {
	var dates []string
	for i := index; i < index+span && i < len(lines); i++ {
		dates = append(dates, datesInLine(lines[i])...)
	}
	return dates
}

// resolveDates turns raw tokens into a start date and optional end date: the
// first token is the start (falling back to the state default on absence or
// parse failure), the second becomes the end only when it falls after the
// start. An end on or before the start means the row repeated the start
// column, not that the benefit expired before it began.
func resolveDates(startToken, endToken string, defaultStart time.Time) (time.Time, *time.Time) {
	start := defaultStart
	if startToken != "" {
		if parsed, err := parseBRDate(startToken); err == nil {
			start = parsed
		}
	}

	if endToken != "" {
		if parsed, err := parseBRDate(endToken); err == nil && parsed.After(start) {
			return start, &parsed
		}
	}
	return start, nil
}

// resolveDatesLoose is the variant used where the source keeps whatever end
// date the document shows, valid or not; validation flags inversions later.
func resolveDatesLoose(dates []string, defaultStart time.Time) (time.Time, *time.Time) {
	start := defaultStart
	if len(dates) > 0 {
		if parsed, err := parseBRDate(dates[0]); err == nil {
			start = parsed
		}
	}

	if len(dates) > 1 {
		if parsed, err := parseBRDate(dates[len(dates)-1]); err == nil {
			return start, &parsed
		}
	}
	return start, nil
}
