// Package testutil provides test utilities and helpers for pipeline-consigliere tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFiles writes files below dir, creating parent directories. Keys are
// slash-separated paths relative to dir.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
}

// TempTree creates a temp directory holding files and returns its path.
// Cleanup is handled by t.TempDir.
func TempTree(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	WriteFiles(t, dir, files)
	return dir
}

// WritePipeline writes a .gitlab-ci.yml into dir and returns its path.
func WritePipeline(t *testing.T, dir, content string) string {
	t.Helper()

	WriteFiles(t, dir, map[string]string{".gitlab-ci.yml": content})
	return filepath.Join(dir, ".gitlab-ci.yml")
}

// ReadFile returns the content of path as a string.
func ReadFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}
