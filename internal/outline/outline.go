// Package outline detects a document title and heading hierarchy from
// positioned words and their font sizes.
package outline

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docrank/internal/doctree"
)

const (
	titleBand     = 0.20 // Fraction of page 1 searched for the title.
	topBand       = 0.15 // Lines starting above this fraction of the page are headings.
	largeFont     = 1.5  // Heading threshold as a multiple of the body size.
	lineBucket    = 5.0  // Words whose tops round to the same multiple share a line.
	minLineLength = 2
)

// Heading is one outline entry.
type Heading struct {
	Level string `json:"level"`
	Text  string `json:"text"`
	Page  int    `json:"page"`

	size float64
	top  float64
}

// Outline is the detected structure of one document.
type Outline struct {
	Title   string    `json:"title"`
	Outline []Heading `json:"outline"`
}

// Build detects the title and headings of a document. Headings are ordered
// by page then vertical position.
func Build(pages []doctree.WordPage) Outline {
	out := Outline{Outline: []Heading{}}
	if len(pages) == 0 {
		return out
	}
	out.Title = title(pages[0])

	var headings []Heading
	for _, p := range pages {
		headings = append(headings, candidates(p)...)
	}
	assignLevels(headings)
	sort.SliceStable(headings, func(i, j int) bool {
		if headings[i].Page != headings[j].Page {
			return headings[i].Page < headings[j].Page
		}
		return headings[i].top < headings[j].top
	})
	if headings != nil {
		out.Outline = headings
	}
	return out
}

// title joins the largest words in the top band of the first page.
func title(p doctree.WordPage) string {
	limit := p.Height * titleBand
	var top []doctree.Word
	maxSize := 0.0
	for _, w := range p.Words {
		if w.Top >= limit {
			continue
		}
		top = append(top, w)
		maxSize = math.Max(maxSize, w.Size)
	}

	var parts []string
	for _, w := range top {
		if w.Size == maxSize {
			parts = append(parts, w.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// candidates groups a page's words into lines and keeps lines set in a
// large font or placed near the top of the page.
func candidates(p doctree.WordPage) []Heading {
	if len(p.Words) == 0 {
		return nil
	}
	body := bodySize(p.Words)

	lines := make(map[float64][]doctree.Word)
	var keys []float64
	for _, w := range p.Words {
		key := math.RoundToEven(w.Top/lineBucket) * lineBucket
		if _, ok := lines[key]; !ok {
			keys = append(keys, key)
		}
		lines[key] = append(lines[key], w)
	}
	sort.Float64s(keys)

	var out []Heading
	for _, key := range keys {
		words := lines[key]
		sort.SliceStable(words, func(i, j int) bool { return words[i].X0 < words[j].X0 })

		parts := make([]string, len(words))
		var sizeSum float64
		minTop := math.Inf(1)
		for i, w := range words {
			parts[i] = w.Text
			sizeSum += w.Size
			minTop = math.Min(minTop, w.Top)
		}
		text := strings.TrimSpace(strings.Join(parts, " "))
		if utf8.RuneCountInString(text) < minLineLength {
			continue
		}

		avg := sizeSum / float64(len(words))
		if avg >= body*largeFont || minTop < p.Height*topBand {
			out = append(out, Heading{Text: text, Page: p.Number, size: avg, top: minTop})
		}
	}
	return out
}

// bodySize is the most common font size rounded to 0.1. Ties go to the size
// seen first.
func bodySize(words []doctree.Word) float64 {
	counts := make(map[float64]int)
	var order []float64
	for _, w := range words {
		s := math.RoundToEven(w.Size*10) / 10
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	}
	best, bestCount := 0.0, 0
	for _, s := range order {
		if counts[s] > bestCount {
			best, bestCount = s, counts[s]
		}
	}
	return best
}

// assignLevels labels headings H1-H3. With fewer than three headings the
// levels follow order; otherwise size tertiles decide.
func assignLevels(headings []Heading) {
	if len(headings) < 3 {
		for i := range headings {
			headings[i].Level = level(i + 1)
		}
		return
	}

	sizes := make([]float64, len(headings))
	for i, h := range headings {
		sizes[i] = h.size
	}
	sort.Float64s(sizes)
	q33 := quantile(sizes, 0.33)
	q66 := quantile(sizes, 0.66)

	for i := range headings {
		switch {
		case headings[i].size >= q66:
			headings[i].Level = level(1)
		case headings[i].size >= q33:
			headings[i].Level = level(2)
		default:
			headings[i].Level = level(3)
		}
	}
}

func level(n int) string {
	return "H" + string(rune('0'+min(n, 3)))
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := min(lo+1, len(sorted)-1)
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
