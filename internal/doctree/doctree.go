package doctree

// Document is the raw text of one input file, ordered by page.
type Document struct {
	Name  string // Base filename, used as the document identifier
	Pages []Page
}

// Page holds the lines extracted from one page, in reading order.
type Page struct {
	Number int // 1-based
	Lines  []string
}

// Block is a contiguous run of lines treated as one candidate section.
type Block struct {
	Document         string
	Page             int
	Text             string // Joined lines, surrounding whitespace trimmed
	IsTitleCandidate bool
	TitleLine        string // First non-blank line when IsTitleCandidate, else ""
}

// Word is a positioned word with its font size, as used for heading detection.
type Word struct {
	Text string
	X0   float64
	Top  float64 // Distance from the top edge of the page
	Size float64
}

// WordPage is the word-level view of a page.
type WordPage struct {
	Number int
	Height float64
	Words  []Word
}

// LineCount returns the total number of lines across all pages.
func (d *Document) LineCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Lines)
	}
	return n
}
