// Package descriptor loads run descriptors and resolves the documents they
// name against a document folder.
package descriptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPersona = "Unknown Persona"
	DefaultTask    = "Unknown Task"
)

var (
	ErrDescriptorNotFound  = errors.New("run descriptor not found")
	ErrDocumentsDirMissing = errors.New("documents directory not found")
	ErrNoDocuments         = errors.New("no documents could be resolved")
)

// Descriptor is a run request: who is asking, what for, and which documents
// to read.
type Descriptor struct {
	Documents   []DocumentRef `json:"documents" yaml:"documents"`
	Persona     Persona       `json:"persona" yaml:"persona"`
	JobToBeDone Job           `json:"job_to_be_done" yaml:"job_to_be_done"`
}

type DocumentRef struct {
	Filename string `json:"filename" yaml:"filename"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
}

type Persona struct {
	Role string `json:"role" yaml:"role"`
}

type Job struct {
	Task string `json:"task" yaml:"task"`
}

// rawDescriptor tells an absent persona or task apart from an empty one.
type rawDescriptor struct {
	Documents []DocumentRef `json:"documents" yaml:"documents"`
	Persona   struct {
		Role *string `json:"role" yaml:"role"`
	} `json:"persona" yaml:"persona"`
	JobToBeDone struct {
		Task *string `json:"task" yaml:"task"`
	} `json:"job_to_be_done" yaml:"job_to_be_done"`
}

// ResolvedDocument is a descriptor entry whose file exists. Name is the
// file's base name.
type ResolvedDocument struct {
	Name string
	Path string
}

// Load reads a descriptor from path. Files ending in .yaml or .yml are
// decoded as YAML, anything else as JSON. Absent persona and task take
// their defaults; present values are kept verbatim, even when empty.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDescriptorNotFound, path)
		}
		return nil, fmt.Errorf("read descriptor: %w", err)
	}

	var raw rawDescriptor
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("decode descriptor %s: %w", path, err)
	}

	d := &Descriptor{
		Documents:   raw.Documents,
		Persona:     Persona{Role: DefaultPersona},
		JobToBeDone: Job{Task: DefaultTask},
	}
	if raw.Persona.Role != nil {
		d.Persona.Role = *raw.Persona.Role
	}
	if raw.JobToBeDone.Task != nil {
		d.JobToBeDone.Task = *raw.JobToBeDone.Task
	}
	return d, nil
}

// Resolve maps each document entry to a file in dir. Entries without a
// filename, entries that point outside dir and entries whose file is missing
// are logged and skipped. Order follows the descriptor.
func (d *Descriptor) Resolve(dir string, log *slog.Logger) ([]ResolvedDocument, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDocumentsDirMissing, dir)
	}

	var docs []ResolvedDocument
	for i, ref := range d.Documents {
		if ref.Filename == "" {
			log.Warn("document entry has no filename", "index", i)
			continue
		}
		if !filepath.IsLocal(ref.Filename) {
			log.Warn("document outside documents directory, skipping", "filename", ref.Filename)
			continue
		}
		path := filepath.Join(dir, ref.Filename)
		if fi, err := os.Stat(path); err != nil || fi.IsDir() {
			log.Warn("document not found, skipping", "filename", ref.Filename, "path", path)
			continue
		}
		docs = append(docs, ResolvedDocument{Name: filepath.Base(path), Path: path})
	}

	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	return docs, nil
}
