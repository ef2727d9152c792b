// Package storage persists uploaded journal attachments on local disk.
package storage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/imishra/tradejournal/internal/domain"
)

// URLPrefix is the path segment under which stored files are served, and
// the prefix of every path returned by Save.
const URLPrefix = "uploads"

// UploadStore writes attachments into a single flat directory.
type UploadStore struct {
	dir string
	log *slog.Logger
}

// NewUploadStore creates the upload directory if needed.
func NewUploadStore(dir string, logger *slog.Logger) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &UploadStore{
		dir: dir,
		log: logger.With("adapter", "uploads"),
	}, nil
}

// Dir returns the directory files are stored in.
func (s *UploadStore) Dir() string { return s.dir }

// Save writes one attachment and returns its serving path, e.g.
// "uploads/1b9d6bcd_chart.png". The client-supplied name is reduced to its
// base name and prefixed with a random id so repeated uploads never clobber
// each other.
func (s *UploadStore) Save(filename string, r io.Reader) (string, error) {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) || strings.TrimSpace(base) == "" {
		return "", domain.NewValidationError("filename", "invalid file name")
	}

	name := uuid.NewString()[:8] + "_" + base
	dst := filepath.Join(s.dir, name)

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dst, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("write %s: %w", dst, err)
	}

	s.log.Debug("attachment stored", "file", name)
	return URLPrefix + "/" + name, nil
}
