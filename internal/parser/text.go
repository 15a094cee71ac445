package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/docrank/internal/doctree"
)

// TextParser handles plain text files. Form feeds separate pages; lines are
// kept verbatim so blank-line runs survive for block segmentation.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &doctree.Document{
		Name:  filename,
		Pages: splitPages(string(data)),
	}, nil
}

// splitPages breaks text into pages on form feeds and each page into lines.
// A trailing empty page (text ending in a form feed) is dropped.
func splitPages(text string) []doctree.Page {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	raw := strings.Split(text, "\f")
	if len(raw) > 0 && strings.TrimSpace(raw[len(raw)-1]) == "" {
		raw = raw[:len(raw)-1]
	}

	pages := make([]doctree.Page, 0, len(raw))
	for i, page := range raw {
		pages = append(pages, doctree.Page{
			Number: i + 1,
			Lines:  strings.Split(strings.TrimSuffix(page, "\n"), "\n"),
		})
	}
	return pages
}
