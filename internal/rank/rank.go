// Package rank orders candidate blocks into ranked sections and picks the
// relevant paragraphs of the best sections.
package rank

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docrank/internal/doctree"
	"github.com/dgallion1/docrank/internal/relevance"
)

// Config holds the ranking thresholds. Lengths are counted in characters.
type Config struct {
	MinSectionLength    int // Shorter blocks never become sections.
	MinSubsectionLength int // Shorter paragraphs never become sub-sections.
	MaxTitleWords       int // Longest first line usable as a section title.
	TopSections         int // Sections per document eligible for sub-section analysis.
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MinSectionLength:    50,
		MinSubsectionLength: 20,
		MaxTitleWords:       10,
		TopSections:         5,
	}
}

// Tokenizer turns text into comparable tokens.
type Tokenizer interface {
	Normalize(text string) []string
}

// Section is a ranked block. Score and Text are working fields used for
// sorting and sub-section analysis; they are not reported.
type Section struct {
	Document string
	Page     int
	Title    string
	Rank     int
	Score    float64
	Text     string
}

// Subsection is a relevant paragraph of a top-ranked section.
type Subsection struct {
	Document string
	Page     int
	Text     string
	Score    float64
}

// Ranker scores text against a fixed query.
type Ranker struct {
	cfg   Config
	tok   Tokenizer
	query relevance.Query
}

// New returns a Ranker. Zero thresholds in cfg take their defaults.
func New(tok Tokenizer, query relevance.Query, cfg Config) *Ranker {
	def := DefaultConfig()
	if cfg.MinSectionLength <= 0 {
		cfg.MinSectionLength = def.MinSectionLength
	}
	if cfg.MinSubsectionLength <= 0 {
		cfg.MinSubsectionLength = def.MinSubsectionLength
	}
	if cfg.MaxTitleWords <= 0 {
		cfg.MaxTitleWords = def.MaxTitleWords
	}
	if cfg.TopSections <= 0 {
		cfg.TopSections = def.TopSections
	}
	return &Ranker{cfg: cfg, tok: tok, query: query}
}

// Score normalizes text and scores it against the query.
func (r *Ranker) Score(text string) float64 {
	return relevance.Score(r.tok.Normalize(text), r.query)
}

// Sections ranks the blocks of one document. Blocks shorter than
// MinSectionLength are dropped; the rest are sorted by score, ties keeping
// extraction order, and numbered 1..n.
func (r *Ranker) Sections(blocks []doctree.Block) []Section {
	var sections []Section
	for i, b := range blocks {
		if utf8.RuneCountInString(b.Text) < r.cfg.MinSectionLength {
			continue
		}
		sections = append(sections, Section{
			Document: b.Document,
			Page:     b.Page,
			Title:    r.title(b, i),
			Score:    r.Score(b.Text),
			Text:     b.Text,
		})
	}

	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Score > sections[j].Score
	})
	for i := range sections {
		sections[i].Rank = i + 1
	}
	return sections
}

// title picks the flagged title line, else a short first line, else a
// synthesized label using the block's position before filtering.
func (r *Ranker) title(b doctree.Block, index int) string {
	if b.IsTitleCandidate && b.TitleLine != "" {
		return b.TitleLine
	}
	first, _, _ := strings.Cut(b.Text, "\n")
	if len(strings.Fields(first)) <= r.cfg.MaxTitleWords {
		return strings.TrimSpace(first)
	}
	return fmt.Sprintf("Content Block %d (Page %d)", index+1, b.Page)
}

// Subsections scores the paragraphs of the top TopSections sections of one
// document and keeps those at least MinSubsectionLength long with a
// strictly positive score. Order follows rank, then paragraph position.
func (r *Ranker) Subsections(sections []Section) []Subsection {
	var subs []Subsection
	for _, s := range sections {
		if s.Rank > r.cfg.TopSections {
			continue
		}
		for _, para := range splitByParagraphs(s.Text) {
			if utf8.RuneCountInString(para) < r.cfg.MinSubsectionLength {
				continue
			}
			score := r.Score(para)
			if score <= 0 {
				continue
			}
			subs = append(subs, Subsection{
				Document: s.Document,
				Page:     s.Page,
				Text:     para,
				Score:    score,
			})
		}
	}
	return subs
}

// Merge concatenates per-document sub-sections in the given order and sorts
// the result by score descending. Ties keep insertion order.
func Merge(perDocument ...[]Subsection) []Subsection {
	var all []Subsection
	for _, subs := range perDocument {
		all = append(all, subs...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})
	return all
}

// splitByParagraphs splits on double-newlines.
func splitByParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
