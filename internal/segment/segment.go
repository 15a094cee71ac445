// Package segment splits a document's pages into candidate text blocks.
package segment

import (
	"strings"

	"github.com/dgallion1/docrank/internal/doctree"
)

// MaxTitleWords is the longest first line still treated as a title.
const MaxTitleWords = 10

// Blocks segments every page of doc, in page then line order. Two
// consecutive blank lines end a block; a single blank line stays inside it
// as a paragraph break. Blocks never span pages.
func Blocks(doc *doctree.Document) []doctree.Block {
	var blocks []doctree.Block
	for _, page := range doc.Pages {
		blocks = append(blocks, pageBlocks(doc.Name, page)...)
	}
	return blocks
}

func pageBlocks(docName string, page doctree.Page) []doctree.Block {
	var blocks []doctree.Block
	var current []string

	flush := func() {
		if b, ok := newBlock(docName, page.Number, current); ok {
			blocks = append(blocks, b)
		}
		current = current[:0]
	}

	lines := page.Lines
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			current = append(current, line)
			continue
		}
		if len(current) == 0 {
			// Leading blanks never open a block.
			continue
		}
		if i+1 < len(lines) && strings.TrimSpace(lines[i+1]) == "" {
			flush()
			continue
		}
		current = append(current, "")
	}
	flush()

	return blocks
}

func newBlock(docName string, page int, lines []string) (doctree.Block, bool) {
	text := strings.TrimSpace(strings.Join(lines, "\n"))
	if text == "" {
		return doctree.Block{}, false
	}

	b := doctree.Block{
		Document: docName,
		Page:     page,
		Text:     text,
	}
	if first := firstLine(text); IsTitleLine(first) {
		b.IsTitleCandidate = true
		b.TitleLine = first
	}
	return b, true
}

// IsTitleLine reports whether line is non-empty and at most MaxTitleWords words.
func IsTitleLine(line string) bool {
	n := len(strings.Fields(line))
	return n > 0 && n <= MaxTitleWords
}

func firstLine(text string) string {
	first, _, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(first)
}
