package writer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-scripts/sitemirror/internal/site"
)

// FileWriter writes materialized pages into one output directory.
type FileWriter struct {
	outputDir string
}

// New creates the output directory if needed and returns a FileWriter for it.
func New(outputDir string) (*FileWriter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FileWriter{outputDir: outputDir}, nil
}

// Dir returns the output directory.
func (w *FileWriter) Dir() string {
	return w.outputDir
}

// WritePage writes content to name inside the output directory, replacing
// any previous file of that name.
func (w *FileWriter) WritePage(name, content string) (string, error) {
	path := filepath.Join(w.outputDir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// PromoteHome renames home.html to index.html. It reports false when there
// is no home.html.
func (w *FileWriter) PromoteHome() (bool, error) {
	home := filepath.Join(w.outputDir, site.HomeName+site.Ext)
	index := filepath.Join(w.outputDir, site.IndexName+site.Ext)

	if _, err := os.Stat(home); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", home, err)
	}

	if err := os.Rename(home, index); err != nil {
		return false, fmt.Errorf("failed to rename %s: %w", home, err)
	}
	return true, nil
}
