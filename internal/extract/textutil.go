package extract

import (
	"regexp"
	"strings"

	"github.com/rafael/cbenef/internal/models"
)

// Structural noise shared by every state document: bare page numbers and
// ruled separator rows.
var (
	digitsOnlyPattern  = regexp.MustCompile(`^\d+$`)
	separatorsPattern  = regexp.MustCompile(`^[\s\-_=]+$`)
	separatorsXPattern = regexp.MustCompile(`^[\s\-_=X]+$`)
)

// normalizeSpace collapses multiple spaces into one and trims the string.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateWords keeps at most n whitespace-separated words.
func truncateWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// truncateChars caps the string at n characters.
func truncateChars(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// runeLen is the character count, which is what the length heuristics below
// mean; byte length overcounts accented Portuguese text.
func runeLen(s string) int {
	return len([]rune(s))
}

// containsFold reports whether substr occurs in s, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// dedupByFullCode drops later records that repeat an earlier full code.
// Continuation rows referencing the same code are dropped, not merged.
func dedupByFullCode(records []models.BenefitRecord) []models.BenefitRecord {
	seen := make(map[string]struct{}, len(records))
	out := records[:0]
	for _, rec := range records {
		key := rec.FullCode()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}
