package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/descriptor"
	"github.com/dgallion1/docrank/internal/pipeline"
	"github.com/dgallion1/docrank/internal/textnorm"
)

type englishDetector struct{}

func (englishDetector) Detect(string) (string, error) { return "en", nil }

const climateText = "Climate Impact\n" +
	"Climate impact on agriculture has been severe across the region.\n"

func testConfig() config.Config {
	return config.Config{
		WorkerCount:    1,
		MaxQueueSize:   4,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
	}
}

func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	analyzer := pipeline.NewAnalyzer(
		pipeline.WithLogger(log),
		pipeline.WithNormalizerOptions(textnorm.WithDetector(englishDetector{})),
	)
	orch, err := pipeline.NewOrchestrator(cfg, analyzer, log)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, log, cfg)
}

type upload struct {
	field, name, content string
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(f.content))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, testConfig())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if decode(t, rec)["status"] != "ok" {
		t.Errorf("expected status ok, got %s", rec.Body.String())
	}
}

func TestAuth(t *testing.T) {
	cfg := testConfig()
	cfg.DocrankAPIKey = "secret"
	srv := newTestServer(t, cfg)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer secret", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}

	// Health stays public.
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected public health check, got %d", rec.Code)
	}
}

func TestAnalyzeLifecycle(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req := multipartRequest(t, "/api/analyze",
		map[string]string{"persona": "Climate researcher", "task": "Assess climate impact"},
		upload{"files", "a.txt", climateText},
		upload{"files", "../b.txt", "The weather was nice today and everyone enjoyed a long walk outside."},
	)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	accepted := decode(t, rec)
	jobID, _ := accepted["job_id"].(string)
	if jobID == "" {
		t.Fatalf("expected job id, got %v", accepted)
	}
	docs, _ := accepted["documents"].([]any)
	if len(docs) != 2 || docs[1] != "b.txt" {
		t.Errorf("expected sanitized documents [a.txt b.txt], got %v", accepted["documents"])
	}

	var status map[string]any
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec = httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyze/"+jobID, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		status = decode(t, rec)
		if status["status"] == string(pipeline.StatusCompleted) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if status["status"] != string(pipeline.StatusCompleted) {
		t.Fatalf("job did not complete: %v", status)
	}

	rep, _ := status["report"].(map[string]any)
	sections, _ := rep["extracted_sections"].([]any)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %v", rep["extracted_sections"])
	}
	first := sections[0].(map[string]any)
	if first["document"] != "a.txt" || first["section_title"] != "Climate Impact" {
		t.Errorf("expected a.txt Climate Impact first, got %v", first)
	}

	// Listing and deleting.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyze", nil))
	if jobs, _ := decode(t, rec)["jobs"].([]any); len(jobs) != 1 {
		t.Errorf("expected 1 listed job, got %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/analyze/"+jobID, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 on delete, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyze/"+jobID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestAnalyzeKeepsPersonaVerbatim(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req := multipartRequest(t, "/api/analyze",
		map[string]string{"persona": "  Climate researcher "},
		upload{"files", "a.txt", climateText},
	)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	jobID, _ := decode(t, rec)["job_id"].(string)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyze/"+jobID, nil))
	status := decode(t, rec)
	if status["persona"] != "  Climate researcher " {
		t.Errorf("expected persona kept verbatim, got %q", status["persona"])
	}
	if status["task"] != descriptor.DefaultTask {
		t.Errorf("expected default task for absent field, got %q", status["task"])
	}
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, testConfig())

	cases := []struct {
		name  string
		files []upload
		want  int
	}{
		{"no files", nil, http.StatusBadRequest},
		{"unsupported type", []upload{{"files", "a.exe", "x"}}, http.StatusBadRequest},
		{"too large", []upload{{"files", "a.txt", string(make([]byte, 3<<19))}}, http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, multipartRequest(t, "/api/analyze", map[string]string{"persona": "p"}, tc.files...))
			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAnalyzeStatusNotFound(t *testing.T) {
	srv := newTestServer(t, testConfig())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyze/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestOutline(t *testing.T) {
	srv := newTestServer(t, testConfig())

	t.Run("requires pdf", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, multipartRequest(t, "/api/outline", nil, upload{"file", "a.txt", "x"}))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unreadable pdf", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, multipartRequest(t, "/api/outline", nil, upload{"file", "a.pdf", "not a pdf"}))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, multipartRequest(t, "/api/outline", map[string]string{"x": "y"}))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestStats(t *testing.T) {
	srv := newTestServer(t, testConfig())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	stats := decode(t, rec)
	if stats["workers"] != float64(1) || stats["queue_capacity"] != float64(4) {
		t.Errorf("expected 1 worker and capacity 4, got %v", stats)
	}
}

func TestCORS(t *testing.T) {
	cfg := testConfig()
	cfg.CORSOrigins = []string{"http://app.test"}
	srv := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "http://app.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://app.test" {
		t.Errorf("expected allowed origin header, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no allow-origin for unknown origin, got %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"report.pdf":        "report.pdf",
		"../../etc/passwd":  "passwd",
		"dir/sub/notes.txt": "notes.txt",
		"":                  "unnamed",
		"a..b.txt":          "a_b.txt",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}
