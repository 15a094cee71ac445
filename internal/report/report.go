// Package report assembles ranked sections and sub-sections into the run
// report and writes it as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dgallion1/docrank/internal/rank"
)

// TimestampLayout is ISO-8601 with microseconds and no zone suffix.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Report is the serialized output of one run.
type Report struct {
	Metadata          Metadata     `json:"metadata"`
	ExtractedSections []Section    `json:"extracted_sections"`
	SubSections       []Subsection `json:"sub_section_analysis"`
}

type Metadata struct {
	InputDocuments      []string `json:"input_documents"`
	Persona             string   `json:"persona"`
	JobToBeDone         string   `json:"job_to_be_done"`
	ProcessingTimestamp string   `json:"processing_timestamp"`
}

type Section struct {
	Document       string `json:"document"`
	SectionTitle   string `json:"section_title"`
	ImportanceRank int    `json:"importance_rank"`
	PageNumber     int    `json:"page_number"`
}

type Subsection struct {
	Document    string `json:"document"`
	RefinedText string `json:"refined_text"`
	PageNumber  int    `json:"page_number"`
}

// Assemble builds a report. Lists are taken in the order given; scores are
// dropped. Empty inputs serialize as empty arrays.
func Assemble(documents []string, persona, task string, at time.Time, sections []rank.Section, subs []rank.Subsection) *Report {
	docs := make([]string, len(documents))
	copy(docs, documents)

	r := &Report{
		Metadata: Metadata{
			InputDocuments:      docs,
			Persona:             persona,
			JobToBeDone:         task,
			ProcessingTimestamp: at.Format(TimestampLayout),
		},
		ExtractedSections: make([]Section, 0, len(sections)),
		SubSections:       make([]Subsection, 0, len(subs)),
	}
	for _, s := range sections {
		r.ExtractedSections = append(r.ExtractedSections, Section{
			Document:       s.Document,
			SectionTitle:   s.Title,
			ImportanceRank: s.Rank,
			PageNumber:     s.Page,
		})
	}
	for _, s := range subs {
		r.SubSections = append(r.SubSections, Subsection{
			Document:    s.Document,
			RefinedText: s.Text,
			PageNumber:  s.Page,
		})
	}
	return r
}

// Encode writes v as 4-space indented JSON with HTML characters and
// non-ASCII text left unescaped.
func Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteFile encodes v to path, replacing any existing file.
func WriteFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, v); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
