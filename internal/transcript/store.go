// Package transcript manages deposition transcript collections: PDF-to-text
// ingestion, the on-disk data directory, and chunking for retrieval.
package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Collection is a named transcript source materialized as a .txt file.
// Identity is the file name without extension.
type Collection struct {
	Name string
	Path string
}

// Store lists and creates collections under a data directory.
type Store struct {
	dataDir   string
	extractor Extractor
	logger    *slog.Logger
}

// NewStore creates a collection store. The data directory is created if
// missing. If extractor is nil, PDF ingestion uses the pdftotext extractor.
func NewStore(dataDir string, extractor Extractor, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if extractor == nil {
		extractor = PDFToText{}
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dataDir: dataDir, extractor: extractor, logger: logger}, nil
}

// DataDir returns the store's data directory.
func (s *Store) DataDir() string {
	return s.dataDir
}

// List returns all collections, sorted by name.
func (s *Store) List() ([]Collection, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var collections []Collection
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		collections = append(collections, Collection{
			Name: strings.TrimSuffix(entry.Name(), ".txt"),
			Path: filepath.Join(s.dataDir, entry.Name()),
		})
	}

	sort.Slice(collections, func(i, j int) bool {
		return collections[i].Name < collections[j].Name
	})
	return collections, nil
}

// Load reads a collection's current on-disk text.
func (s *Store) Load(name string) (string, error) {
	path := filepath.Join(s.dataDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("load collection %s: %w", name, err)
	}
	return string(data), nil
}

// CreateFromPDF stores the PDF bytes as <name>.pdf in the data directory and
// extracts its text to the adjacent <name>.txt. The name is slugified.
// Extraction failures propagate; no partial .txt is left behind.
func (s *Store) CreateFromPDF(ctx context.Context, name string, pdf []byte) (Collection, error) {
	slug := Slugify(name)
	if slug == "" {
		return Collection{}, fmt.Errorf("invalid collection name %q", name)
	}

	pdfPath := filepath.Join(s.dataDir, slug+".pdf")
	if err := os.WriteFile(pdfPath, pdf, 0644); err != nil {
		return Collection{}, fmt.Errorf("write pdf: %w", err)
	}

	txtPath := filepath.Join(s.dataDir, slug+".txt")
	if err := s.extractor.Extract(ctx, pdfPath, txtPath); err != nil {
		// Don't leave a partial text file behind a failed extraction.
		_ = os.Remove(txtPath)
		return Collection{}, fmt.Errorf("extract %s: %w", slug, err)
	}

	s.logger.Info("collection created", "name", slug, "pdf", pdfPath, "txt", txtPath)
	return Collection{Name: slug, Path: txtPath}, nil
}

// Slugify lowercases a name and reduces it to letters, digits, and hyphens.
// Spaces and underscores become hyphens; everything else is dropped.
func Slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '_', r == '-':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
