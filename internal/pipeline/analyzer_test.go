package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dgallion1/docrank/internal/report"
	"github.com/dgallion1/docrank/internal/textnorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type englishDetector struct{}

func (englishDetector) Detect(string) (string, error) { return "en", nil }

var runTime = time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)

const climateDoc = "Climate Impact\n" +
	"Climate impact on agriculture has been severe across the region.\n" +
	"\n" +
	"Farmers report climate driven losses every season.\n" +
	"\n" +
	"\n" +
	"The weather was nice today and everyone enjoyed a long walk outside."

const regionalDoc = "Regional Notes\n" +
	"Soil erosion has increased sharply because of climate impact over decades."

func testAnalyzer(opts ...Option) *Analyzer {
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return runTime }),
		WithNormalizerOptions(textnorm.WithDetector(englishDetector{})),
	}
	return NewAnalyzer(append(base, opts...)...)
}

func climateInput() RunInput {
	return RunInput{
		Persona: "Climate researcher",
		Task:    "Assess climate impact",
		Sources: []Source{
			BytesSource("a.txt", []byte(climateDoc)),
			BytesSource("broken.pdf", []byte("this is not a pdf")),
			{Name: "gone.txt", Open: func() (io.ReadCloser, error) { return nil, errors.New("no such file") }},
			BytesSource("c.txt", []byte(regionalDoc)),
		},
	}
}

func TestAnalyze(t *testing.T) {
	rep, outcomes, err := testAnalyzer().Analyze(context.Background(), climateInput())
	require.NoError(t, err)

	assert.Equal(t, report.Metadata{
		InputDocuments:      []string{"a.txt", "broken.pdf", "gone.txt", "c.txt"},
		Persona:             "Climate researcher",
		JobToBeDone:         "Assess climate impact",
		ProcessingTimestamp: "2025-07-10T12:00:00.000000",
	}, rep.Metadata)

	assert.Equal(t, []report.Section{
		{Document: "a.txt", SectionTitle: "Climate Impact", ImportanceRank: 1, PageNumber: 1},
		{Document: "a.txt", SectionTitle: "Content Block 2 (Page 1)", ImportanceRank: 2, PageNumber: 1},
		{Document: "c.txt", SectionTitle: "Regional Notes", ImportanceRank: 1, PageNumber: 1},
	}, rep.ExtractedSections)

	assert.Equal(t, []report.Subsection{
		{Document: "a.txt", RefinedText: "Climate Impact\nClimate impact on agriculture has been severe across the region.", PageNumber: 1},
		{Document: "c.txt", RefinedText: regionalDoc, PageNumber: 1},
		{Document: "a.txt", RefinedText: "Farmers report climate driven losses every season.", PageNumber: 1},
	}, rep.SubSections)

	require.Len(t, outcomes, 4)
	assert.Equal(t, Outcome{Document: "a.txt", Status: OutcomeProcessed, Sections: 2, Subsections: 2}, outcomes[0])
	assert.Equal(t, OutcomeSkipped, outcomes[1].Status)
	assert.NotEmpty(t, outcomes[1].Reason)
	assert.Equal(t, OutcomeSkipped, outcomes[2].Status)
	assert.Contains(t, outcomes[2].Reason, "no such file")
	assert.Equal(t, OutcomeProcessed, outcomes[3].Status)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	first, _, err := testAnalyzer().Analyze(context.Background(), climateInput())
	require.NoError(t, err)
	second, _, err := testAnalyzer().Analyze(context.Background(), climateInput())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	parallel, _, err := testAnalyzer(WithWorkers(4)).Analyze(context.Background(), climateInput())
	require.NoError(t, err)
	assert.Equal(t, first, parallel)
}

func TestAnalyzeAllDocumentsSkipped(t *testing.T) {
	in := RunInput{
		Persona: "p",
		Task:    "t",
		Sources: []Source{BytesSource("broken.pdf", []byte("garbage"))},
	}
	rep, outcomes, err := testAnalyzer().Analyze(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, []string{"broken.pdf"}, rep.Metadata.InputDocuments)
	assert.NotNil(t, rep.ExtractedSections)
	assert.Empty(t, rep.ExtractedSections)
	assert.NotNil(t, rep.SubSections)
	assert.Empty(t, rep.SubSections)
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeSkipped, outcomes[0].Status)
}

func TestAnalyzeNoSources(t *testing.T) {
	_, _, err := testAnalyzer().Analyze(context.Background(), RunInput{Persona: "p", Task: "t"})
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestAnalyzeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := testAnalyzer().Analyze(ctx, climateInput())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeUnsupportedExtensionIsSkipped(t *testing.T) {
	in := RunInput{
		Persona: "climate",
		Task:    "impact",
		Sources: []Source{
			BytesSource("notes.xyz", []byte("whatever")),
			BytesSource("c.txt", []byte(regionalDoc)),
		},
	}
	rep, outcomes, err := testAnalyzer().Analyze(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcomes[0].Status)
	assert.Contains(t, outcomes[0].Reason, "unsupported")
	require.Len(t, rep.ExtractedSections, 1)
	assert.Equal(t, "c.txt", rep.ExtractedSections[0].Document)
}
