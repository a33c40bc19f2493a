// Package testutil provides reusable test helpers for building note
// corpora on disk.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Corpus represents a temporary notes directory for testing.
type Corpus struct {
	Path  string
	t     *testing.T
	files map[string]string
}

// NewCorpus creates a new corpus builder.
// Call Build() to create the actual directory.
func NewCorpus(t *testing.T) *Corpus {
	t.Helper()
	return &Corpus{
		t:     t,
		files: make(map[string]string),
	}
}

// WithNote adds a markdown file to the corpus.
// The path is relative to the corpus root.
func (c *Corpus) WithNote(path, content string) *Corpus {
	c.files[path] = content
	return c
}

// Build creates the corpus directory and all configured files.
// Returns the Corpus for method chaining.
func (c *Corpus) Build() *Corpus {
	c.t.Helper()
	c.Path = c.t.TempDir()
	for path, content := range c.files {
		c.WriteFile(path, content)
	}
	return c
}

// WriteFile writes a file to the corpus, creating directories as needed.
func (c *Corpus) WriteFile(relPath, content string) string {
	c.t.Helper()
	fullPath := filepath.Join(c.Path, relPath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		c.t.Fatalf("failed to create directory %s: %v", dir, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		c.t.Fatalf("failed to write file %s: %v", relPath, err)
	}
	return fullPath
}

// Remove deletes a file from the corpus.
func (c *Corpus) Remove(relPath string) {
	c.t.Helper()
	if err := os.Remove(filepath.Join(c.Path, relPath)); err != nil {
		c.t.Fatalf("failed to remove %s: %v", relPath, err)
	}
}

// Abs returns the absolute path of a corpus-relative path.
func (c *Corpus) Abs(relPath string) string {
	return filepath.Join(c.Path, relPath)
}

// ReadFile reads a file from the corpus.
func (c *Corpus) ReadFile(relPath string) string {
	c.t.Helper()
	content, err := os.ReadFile(filepath.Join(c.Path, relPath))
	if err != nil {
		c.t.Fatalf("failed to read file %s: %v", relPath, err)
	}
	return string(content)
}

// AssertFileExists fails the test if the file does not exist.
func (c *Corpus) AssertFileExists(relPath string) {
	c.t.Helper()
	if _, err := os.Stat(filepath.Join(c.Path, relPath)); os.IsNotExist(err) {
		c.t.Errorf("expected file to exist: %s", relPath)
	}
}

// AssertFileContains fails the test if the file does not contain the substring.
func (c *Corpus) AssertFileContains(relPath, substr string) {
	c.t.Helper()
	content := c.ReadFile(relPath)
	if !strings.Contains(content, substr) {
		c.t.Errorf("expected file %s to contain %q, got:\n%s", relPath, substr, content)
	}
}
