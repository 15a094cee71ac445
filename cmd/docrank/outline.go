package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/docrank/internal/outline"
	"github.com/dgallion1/docrank/internal/parser"
	"github.com/dgallion1/docrank/internal/report"
	"github.com/urfave/cli/v2"
)

func outlineCommand(c *cli.Context) error {
	log := slog.Default()
	cfg := loadConfig(c)

	entries, err := os.ReadDir(cfg.InputDir)
	if err != nil {
		return fmt.Errorf("read input dir: %w", err)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var pdfs []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			pdfs = append(pdfs, e.Name())
		}
	}
	sort.Strings(pdfs)

	processed := 0
	for _, name := range pdfs {
		if err := c.Context.Err(); err != nil {
			return err
		}
		out, err := outlineFile(filepath.Join(cfg.InputDir, name))
		if err != nil {
			log.Warn("skipping document", "document", name, "error", err)
			continue
		}
		outPath := filepath.Join(cfg.OutputDir, strings.TrimSuffix(name, filepath.Ext(name))+".json")
		if err := report.WriteFile(outPath, out); err != nil {
			return err
		}
		log.Info("outline written", "document", name, "headings", len(out.Outline), "output", outPath)
		processed++
	}

	if processed == 0 {
		log.Warn("no pdf files processed, writing empty outline", "input_dir", cfg.InputDir)
		return report.WriteFile(filepath.Join(cfg.OutputDir, "output.json"), outline.Build(nil))
	}
	return nil
}

func outlineFile(path string) (outline.Outline, error) {
	f, err := os.Open(path)
	if err != nil {
		return outline.Outline{}, err
	}
	defer f.Close()

	pages, err := parser.PDFWords(f)
	if err != nil {
		return outline.Outline{}, err
	}
	return outline.Build(pages), nil
}
