package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/descriptor"
	"github.com/dgallion1/docrank/internal/parser"
	"github.com/dgallion1/docrank/internal/pipeline"
	"github.com/dgallion1/docrank/internal/report"
	"github.com/dgallion1/docrank/internal/textnorm"
	"github.com/urfave/cli/v2"
)

// loadConfig reads the environment and applies any flags set on c.
func loadConfig(c *cli.Context) config.Config {
	cfg := config.Load()
	if c.IsSet("input-dir") {
		cfg.InputDir = c.String("input-dir")
		if !c.IsSet("output-dir") && os.Getenv("OUTPUT_DIR") == "" {
			cfg.OutputDir = cfg.InputDir
		}
	}
	if c.IsSet("output-dir") {
		cfg.OutputDir = c.String("output-dir")
	}
	if c.IsSet("descriptor") {
		cfg.DescriptorName = c.String("descriptor")
	}
	if c.IsSet("output") {
		cfg.OutputName = c.String("output")
	}
	if c.IsSet("documents-subdir") {
		cfg.DocumentsSubdir = c.String("documents-subdir")
	}
	if c.IsSet("stopwords-dir") {
		cfg.StopwordsDir = c.String("stopwords-dir")
	}
	if c.IsSet("workers") {
		cfg.ExtractWorkers = c.Int("workers")
	}
	return cfg
}

func analyzeCommand(c *cli.Context) error {
	log := slog.Default()
	cfg := loadConfig(c)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	descPath := cfg.DescriptorName
	if !filepath.IsAbs(descPath) {
		descPath = filepath.Join(cfg.InputDir, descPath)
	}
	desc, err := descriptor.Load(descPath)
	if err != nil {
		return err
	}

	docs, err := desc.Resolve(filepath.Join(cfg.InputDir, cfg.DocumentsSubdir), log)
	if err != nil {
		return err
	}

	sources := make([]pipeline.Source, len(docs))
	for i, d := range docs {
		sources[i] = pipeline.FileSource(d.Name, d.Path)
	}

	log.Info("starting analysis",
		"persona", desc.Persona.Role,
		"task", desc.JobToBeDone.Task,
		"documents", len(sources))

	analyzer := pipeline.NewAnalyzer(
		pipeline.WithLogger(log),
		pipeline.WithWorkers(cfg.ExtractWorkers),
		pipeline.WithParserOptions(parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext}),
		pipeline.WithStopwordStore(textnorm.DefaultStore(cfg.StopwordsDir)),
		pipeline.WithNormalizerOptions(textnorm.WithFallbackLanguage(cfg.FallbackLanguage)),
	)
	rep, outcomes, err := analyzer.Analyze(c.Context, pipeline.RunInput{
		Persona: desc.Persona.Role,
		Task:    desc.JobToBeDone.Task,
		Sources: sources,
	})
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	outPath := filepath.Join(cfg.OutputDir, cfg.OutputName)
	if err := report.WriteFile(outPath, rep); err != nil {
		return err
	}

	skipped := 0
	for _, o := range outcomes {
		if o.Status == pipeline.OutcomeSkipped {
			skipped++
		}
	}
	log.Info("analysis complete",
		"output", outPath,
		"sections", len(rep.ExtractedSections),
		"subsections", len(rep.SubSections),
		"skipped", skipped)
	return nil
}
