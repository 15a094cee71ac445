package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgallion1/docrank/internal/doctree"
	"github.com/dgallion1/docrank/internal/parser"
	"github.com/dgallion1/docrank/internal/rank"
	"github.com/dgallion1/docrank/internal/relevance"
	"github.com/dgallion1/docrank/internal/report"
	"github.com/dgallion1/docrank/internal/segment"
	"github.com/dgallion1/docrank/internal/textnorm"
	"github.com/panjf2000/ants/v2"
)

// ErrNoSources is returned when a run has no documents to read.
var ErrNoSources = errors.New("no documents to analyze")

// Source is one input document. Open is called once per run.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileSource reads a document from disk.
func FileSource(name, path string) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// BytesSource serves a document already held in memory.
func BytesSource(name string, data []byte) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// RunInput is everything a single analysis needs.
type RunInput struct {
	Persona string
	Task    string
	Sources []Source
}

// OutcomeStatus reports what happened to one document.
type OutcomeStatus string

const (
	OutcomeProcessed OutcomeStatus = "processed"
	OutcomeSkipped   OutcomeStatus = "skipped"
)

// Outcome is the per-document result of a run.
type Outcome struct {
	Document    string        `json:"document"`
	Status      OutcomeStatus `json:"status"`
	Reason      string        `json:"reason,omitempty"`
	Sections    int           `json:"sections"`
	Subsections int           `json:"subsections"`
}

// Analyzer runs the ranking pipeline over a set of documents.
type Analyzer struct {
	log        *slog.Logger
	now        func() time.Time
	workers    int
	parserOpts parser.Options
	stopwords  textnorm.StopwordStore
	normOpts   []textnorm.Option
	rankCfg    rank.Config
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(a *Analyzer) {
		if log != nil {
			a.log = log
		}
	}
}

// WithClock sets the source of the report timestamp.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// WithWorkers sets how many documents are extracted concurrently.
// Default is 1.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n < 1 {
			n = 1
		}
		a.workers = n
	}
}

// WithParserOptions tunes document parsing.
func WithParserOptions(opts parser.Options) Option {
	return func(a *Analyzer) { a.parserOpts = opts }
}

// WithStopwordStore sets where stopword lists are loaded from.
// Default is the built-in lists.
func WithStopwordStore(store textnorm.StopwordStore) Option {
	return func(a *Analyzer) {
		if store != nil {
			a.stopwords = store
		}
	}
}

// WithNormalizerOptions passes options to the per-run text normalizer.
func WithNormalizerOptions(opts ...textnorm.Option) Option {
	return func(a *Analyzer) { a.normOpts = append(a.normOpts, opts...) }
}

// WithRankConfig overrides the ranking thresholds.
func WithRankConfig(cfg rank.Config) Option {
	return func(a *Analyzer) { a.rankCfg = cfg }
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		log:       slog.Default(),
		now:       time.Now,
		workers:   1,
		stopwords: textnorm.DefaultStore(""),
		rankCfg:   rank.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type extraction struct {
	doc *doctree.Document
	err error
}

// Analyze ranks the sections and paragraphs of every source against the
// persona and task. A document that cannot be read is skipped and reported
// in the outcomes; it never fails the run.
func (a *Analyzer) Analyze(ctx context.Context, in RunInput) (*report.Report, []Outcome, error) {
	if len(in.Sources) == 0 {
		return nil, nil, ErrNoSources
	}
	startedAt := a.now()

	normOpts := append([]textnorm.Option{textnorm.WithLogger(a.log)}, a.normOpts...)
	norm := textnorm.New(a.stopwords, normOpts...)
	query := relevance.NewQuery(norm.Normalize(in.Persona + " " + in.Task))
	ranker := rank.New(norm, query, a.rankCfg)
	a.log.Debug("query built", "terms", query.Len())

	extracted, err := a.extractAll(ctx, in.Sources)
	if err != nil {
		return nil, nil, err
	}

	names := make([]string, len(in.Sources))
	outcomes := make([]Outcome, len(in.Sources))
	var sections []rank.Section
	perDocument := make([][]rank.Subsection, 0, len(in.Sources))

	for i, src := range in.Sources {
		names[i] = src.Name
		log := a.log.With("document", src.Name)

		if ex := extracted[i]; ex.err != nil {
			log.Warn("skipping document", "error", ex.err)
			outcomes[i] = Outcome{Document: src.Name, Status: OutcomeSkipped, Reason: ex.err.Error()}
			continue
		}

		doc := extracted[i].doc
		blocks := segment.Blocks(doc)
		docSections := ranker.Sections(blocks)
		subs := ranker.Subsections(docSections)

		sections = append(sections, docSections...)
		perDocument = append(perDocument, subs)
		outcomes[i] = Outcome{
			Document:    src.Name,
			Status:      OutcomeProcessed,
			Sections:    len(docSections),
			Subsections: len(subs),
		}
		log.Info("document ranked",
			"pages", len(doc.Pages),
			"lines", doc.LineCount(),
			"blocks", len(blocks),
			"sections", len(docSections),
			"subsections", len(subs))
	}

	rep := report.Assemble(names, in.Persona, in.Task, startedAt, sections, rank.Merge(perDocument...))
	return rep, outcomes, nil
}

// extractAll parses every source. Results are indexed by source position so
// ordering never depends on scheduling.
func (a *Analyzer) extractAll(ctx context.Context, sources []Source) ([]extraction, error) {
	results := make([]extraction, len(sources))

	if a.workers <= 1 || len(sources) == 1 {
		for i, src := range sources {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = a.extract(src)
		}
		return results, nil
	}

	pool, err := ants.NewPool(min(a.workers, len(sources)))
	if err != nil {
		return nil, fmt.Errorf("create extraction pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, src := range sources {
		i, src := i, src
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			results[i] = a.extract(src)
		}); err != nil {
			wg.Done()
			results[i] = a.extract(src)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *Analyzer) extract(src Source) extraction {
	p, err := parser.ForFile(src.Name, a.parserOpts)
	if err != nil {
		return extraction{err: err}
	}
	rc, err := src.Open()
	if err != nil {
		return extraction{err: fmt.Errorf("open: %w", err)}
	}
	defer rc.Close()

	doc, err := p.Parse(rc, src.Name)
	if err != nil {
		return extraction{err: err}
	}
	return extraction{doc: doc}
}
