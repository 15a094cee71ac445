package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		slog.Error("docrank failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docrank",
		Usage: "Rank document sections by relevance to a persona and task",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "analyze",
				Usage:  "Rank the sections of the documents named in a run descriptor",
				Action: analyzeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "input-dir",
						Usage: "Directory holding the descriptor and the documents folder (default $INPUT_DIR)",
					},
					&cli.StringFlag{
						Name:  "output-dir",
						Usage: "Directory the report is written to (default $OUTPUT_DIR)",
					},
					&cli.StringFlag{
						Name:  "descriptor",
						Usage: "Run descriptor file name or path, JSON or YAML (default $DESCRIPTOR_NAME)",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Report file name (default $OUTPUT_NAME)",
					},
					&cli.StringFlag{
						Name:  "documents-subdir",
						Usage: "Folder under the input directory holding the documents (default $DOCUMENTS_SUBDIR)",
					},
					&cli.StringFlag{
						Name:  "stopwords-dir",
						Usage: "Directory of stopwords_<lang>.txt files (default $STOPWORDS_DIR)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Documents extracted concurrently (default $EXTRACT_WORKERS)",
					},
				},
			},
			{
				Name:   "outline",
				Usage:  "Write the title and heading outline of every PDF in a directory",
				Action: outlineCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "input-dir",
						Usage: "Directory scanned for PDF files (default $INPUT_DIR)",
					},
					&cli.StringFlag{
						Name:  "output-dir",
						Usage: "Directory outlines are written to (default $OUTPUT_DIR)",
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
