package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docrank/internal/descriptor"
	"github.com/dgallion1/docrank/internal/parser"
	"github.com/dgallion1/docrank/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	persona := formValueOr(r.MultipartForm, "persona", descriptor.DefaultPersona)
	task := formValueOr(r.MultipartForm, "task", descriptor.DefaultTask)

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	var total int64
	sources := make([]pipeline.Source, 0, len(files))
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		if !parser.IsSupportedExtension(filename) {
			jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
			return
		}
		data, err := readUpload(fh, s.cfg.MaxUploadBytes-total)
		if err != nil {
			jsonError(w, fmt.Sprintf("%s: %s", filename, err), http.StatusRequestEntityTooLarge)
			return
		}
		total += int64(len(data))
		sources = append(sources, pipeline.BytesSource(filename, data))
	}

	job, err := s.orchestrator.Submit(pipeline.RunInput{Persona: persona, Task: task, Sources: sources})
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrQueueFull) {
			code = http.StatusServiceUnavailable
		}
		jsonError(w, err.Error(), code)
		return
	}

	snap := job.Snapshot()
	jsonResponse(w, http.StatusAccepted, map[string]any{
		"job_id":    snap.ID,
		"status":    snap.Status,
		"documents": snap.Documents,
		"poll_url":  fmt.Sprintf("/api/analyze/%s", snap.ID),
	})
}

func (s *Server) handleAnalyzeStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.orchestrator.ListJobs()
	out := make([]map[string]any, 0, len(jobs))
	for _, j := range jobs {
		snap := j.Snapshot()
		out = append(out, map[string]any{
			"job_id":    snap.ID,
			"status":    snap.Status,
			"phase":     snap.Phase,
			"documents": snap.Documents,
		})
	}
	jsonResponse(w, http.StatusOK, map[string]any{"jobs": out})
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if !s.orchestrator.DeleteJob(jobID) {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"job_id": jobID, "deleted": true})
}

// formValueOr returns the first value of key verbatim, or def when the field
// was not sent.
func formValueOr(form *multipart.Form, key, def string) string {
	if vs, ok := form.Value[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return def
}

// readUpload reads one multipart file, failing when it exceeds limit bytes.
func readUpload(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("upload exceeds max size")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("upload exceeds max size")
	}
	return data, nil
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
