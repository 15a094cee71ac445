package api

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docrank/internal/outline"
	"github.com/dgallion1/docrank/internal/parser"
)

// handleOutline returns the title and heading outline of one uploaded PDF.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}
	fh := files[0]
	filename := sanitizeFilename(fh.Filename)
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		jsonError(w, fmt.Sprintf("outline requires a pdf, got %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := readUpload(fh, s.cfg.MaxUploadBytes)
	if err != nil {
		jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	pages, err := parser.PDFWords(bytes.NewReader(data))
	if err != nil {
		s.log.Warn("outline extraction failed", "filename", filename, "error", err)
		jsonError(w, "failed to read pdf: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	jsonResponse(w, http.StatusOK, outline.Build(pages))
}
