package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/docrank/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if available.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	tmpPath, err := spoolTemp(r)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmpPath)

	pages, err := extractPDFPages(tmpPath)
	if err != nil && p.FallbackPdftotext {
		var text string
		if text, err = extractPdftotext(tmpPath); err == nil {
			pages = splitPages(text)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	return &doctree.Document{Name: filename, Pages: pages}, nil
}

// spoolTemp copies r into a temp file: ledongthuc/pdf needs a ReadSeeker+size
// and pdftotext needs a path.
func spoolTemp(r io.Reader) (string, error) {
	tmp, err := os.CreateTemp("", "docrank-pdf-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()
	return tmp.Name(), nil
}

// extractPDFPages returns one Page per PDF page. A single unreadable page
// fails the whole document.
func extractPDFPages(path string) (pages []doctree.Page, err error) {
	// ledongthuc/pdf panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, doctree.Page{Number: i})
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		text = strings.ReplaceAll(text, "\r\n", "\n")
		pages = append(pages, doctree.Page{
			Number: i,
			Lines:  strings.Split(text, "\n"),
		})
	}
	return pages, nil
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

// PDFWords extracts positioned words with font sizes from every page.
func PDFWords(r io.Reader) ([]doctree.WordPage, error) {
	tmpPath, err := spoolTemp(r)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmpPath)
	return extractPDFWords(tmpPath)
}

func extractPDFWords(path string) (pages []doctree.WordPage, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		wp := doctree.WordPage{Number: i, Height: pageHeight(page)}
		if !page.V.IsNull() {
			wp.Words = glyphsToWords(page.Content().Text, wp.Height)
		}
		pages = append(pages, wp)
	}
	return pages, nil
}

// pageHeight reads the MediaBox, walking up to the parent Pages node when the
// box is inherited. US Letter is assumed when none is found.
func pageHeight(page pdflib.Page) float64 {
	for v := page.V; !v.IsNull(); v = v.Key("Parent") {
		box := v.Key("MediaBox")
		if box.Len() == 4 {
			if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
				return h
			}
		}
	}
	return 792
}
