package extract

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	rpdf "rsc.io/pdf"
)

// DocumentText flattens a PDF into plain text, one output line per visual row.
// Fragments are grouped by their Y coordinate so that table rows collapse into
// whitespace-separated runs, which is what the state parsers expect.
func DocumentText(content []byte) (text string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("pdf parser panic: %v", recovered)
			text = ""
		}
	}()

	reader, err := rpdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("pdf open failed: %w", err)
	}

	var builder strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		writePageRows(&builder, page.Content().Text)
	}

	return builder.String(), nil
}

// writePageRows orders fragments top-to-bottom, left-to-right, merging
// fragments whose baselines sit within 2pt of each other into one row.
func writePageRows(builder *strings.Builder, fragments []rpdf.Text) {
	if len(fragments) == 0 {
		return
	}

	sorted := make([]rpdf.Text, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Y-sorted[j].Y) > 2 {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	rowY := sorted[0].Y
	var row []string
	flush := func() {
		line := strings.TrimSpace(strings.Join(row, " "))
		if line != "" {
			builder.WriteString(line)
			builder.WriteString("\n")
		}
		row = row[:0]
	}

	for _, frag := range sorted {
		if math.Abs(frag.Y-rowY) > 2 {
			flush()
			rowY = frag.Y
		}
		if s := strings.TrimSpace(frag.S); s != "" {
			row = append(row, s)
		}
	}
	flush()
}
