package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docrank/internal/doctree"
)

// Parser converts raw document bytes into ordered pages of lines.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Document, error)
}

// Options tunes parser construction.
type Options struct {
	// PDFFallbackPdftotext retries failed PDFs with the pdftotext binary.
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// sectionWriter lays structured content out as lines: a heading is followed
// directly by its body, paragraphs are separated by one blank line and
// sections by two.
type sectionWriter struct {
	lines []string
	last  lineKind
}

type lineKind int

const (
	kindNone lineKind = iota
	kindHeading
	kindParagraph
)

func (w *sectionWriter) heading(title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	if w.last != kindNone {
		w.lines = append(w.lines, "", "")
	}
	w.lines = append(w.lines, title)
	w.last = kindHeading
}

func (w *sectionWriter) paragraph(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if w.last == kindParagraph {
		w.lines = append(w.lines, "")
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			w.lines = append(w.lines, line)
		}
	}
	w.last = kindParagraph
}

func (w *sectionWriter) document(name string) *doctree.Document {
	doc := &doctree.Document{Name: name}
	if len(w.lines) > 0 {
		doc.Pages = []doctree.Page{{Number: 1, Lines: w.lines}}
	}
	return doc
}
