package parser

import (
	"math"
	"sort"
	"strings"

	"github.com/dgallion1/docrank/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

const (
	// Glyphs whose baselines differ by less than this share a row.
	rowTolerance = 2.0
	// A horizontal gap wider than this fraction of the font size starts a new word.
	wordGapRatio = 0.25
)

// glyphsToWords groups positioned glyphs into rows by baseline, then merges
// adjacent glyphs into words. PDF y grows upwards, so top is measured from
// the page height.
func glyphsToWords(glyphs []pdflib.Text, height float64) []doctree.Word {
	var texts []pdflib.Text
	for _, g := range glyphs {
		if g.S != "" && g.S != "\n" {
			texts = append(texts, g)
		}
	}
	if len(texts) == 0 {
		return nil
	}

	var words []doctree.Word
	for _, row := range groupRows(texts) {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

		var cur strings.Builder
		var x0, right, top, sizeSum float64
		var glyphCount int
		flush := func() {
			if t := strings.TrimSpace(cur.String()); t != "" {
				words = append(words, doctree.Word{
					Text: t,
					X0:   x0,
					Top:  top,
					Size: sizeSum / float64(glyphCount),
				})
			}
			cur.Reset()
			sizeSum, glyphCount = 0, 0
		}

		for _, g := range row {
			if strings.TrimSpace(g.S) == "" {
				flush()
				continue
			}
			if glyphCount > 0 && g.X-right > wordGapRatio*g.FontSize {
				flush()
			}
			if glyphCount == 0 {
				x0 = g.X
				top = height - g.Y - g.FontSize
			}
			cur.WriteString(g.S)
			right = g.X + g.W
			sizeSum += g.FontSize
			glyphCount++
		}
		flush()
	}
	return words
}

// groupRows buckets glyphs whose baselines are within rowTolerance, top row first.
func groupRows(texts []pdflib.Text) [][]pdflib.Text {
	sorted := make([]pdflib.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var rows [][]pdflib.Text
	var rowY float64
	for _, t := range sorted {
		if len(rows) == 0 || math.Abs(t.Y-rowY) > rowTolerance {
			rows = append(rows, []pdflib.Text{t})
			rowY = t.Y
			continue
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], t)
	}
	return rows
}
