package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Batch run layout
	InputDir        string
	OutputDir       string
	DocumentsSubdir string
	DescriptorName  string
	OutputName      string

	// Text normalization
	StopwordsDir     string
	FallbackLanguage string

	// Extraction
	PDFFallbackPdftotext bool
	ExtractWorkers       int

	// HTTP server
	Port           string
	DocrankAPIKey  string
	CORSOrigins    []string
	MaxUploadBytes int64

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Job state
	JobTTL time.Duration
}

func Load() Config {
	inputDir := envOr("INPUT_DIR", "/app/input")

	cfg := Config{
		InputDir:        inputDir,
		OutputDir:       envOr("OUTPUT_DIR", inputDir),
		DocumentsSubdir: envOr("DOCUMENTS_SUBDIR", "PDFs"),
		DescriptorName:  envOr("DESCRIPTOR_NAME", "challenge1b_input.json"),
		OutputName:      envOr("OUTPUT_NAME", "challenge1b_output.json"),

		StopwordsDir:     envOr("STOPWORDS_DIR", "lang_data"),
		FallbackLanguage: strings.ToLower(envOr("FALLBACK_LANGUAGE", "en")),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", false),
		ExtractWorkers:       envInt("EXTRACT_WORKERS", 1),

		Port:           envOr("PORT", "8090"),
		DocrankAPIKey:  os.Getenv("DOCRANK_API_KEY"),
		CORSOrigins:    envList("CORS_ORIGINS"),
		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.ExtractWorkers <= 0 {
		cfg.ExtractWorkers = 1
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("INPUT_DIR is required")
	}
	if c.DescriptorName == "" || c.OutputName == "" {
		return fmt.Errorf("DESCRIPTOR_NAME and OUTPUT_NAME must not be empty")
	}
	if c.FallbackLanguage == "" {
		return fmt.Errorf("FALLBACK_LANGUAGE must not be empty")
	}
	if c.ExtractWorkers <= 0 {
		return fmt.Errorf("EXTRACT_WORKERS must be positive, got %d", c.ExtractWorkers)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated value, dropping empty entries.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
