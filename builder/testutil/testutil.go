// Package testutil provides shared helpers for engine tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"inkpress/builder/store"
	"inkpress/builder/utils"
)

// OpenStore opens a document store in a temp directory and closes it when
// the test finishes.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "store.sqlite"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// Doc creates a valid document for testing. The content sum is derived
// from the content, so changing the content changes the fingerprint.
func Doc(url, title, content string) *store.Document {
	return &store.Document{
		URL:     url,
		Parent:  utils.ParentURL(url),
		Type:    store.DefaultType,
		Content: content,
		Mtime:   time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		Sum:     utils.SumString(content),
		Meta:    map[string]any{"title": title},
	}
}

// Date parses a YYYY-MM-DD test date.
func Date(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("Failed to parse date %q: %v", s, err)
	}
	return &d
}

// WriteFiles populates a filesystem with the given path/content pairs.
func WriteFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for path, content := range files {
		if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", path, err)
		}
		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", path, err)
		}
	}
}

// AssertFileExists checks that a file exists in the filesystem.
func AssertFileExists(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	exists, err := afero.Exists(fs, path)
	if err != nil {
		t.Fatalf("Error checking file existence: %v", err)
	}
	if !exists {
		t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileNotExists checks that a file does not exist.
func AssertFileNotExists(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	exists, err := afero.Exists(fs, path)
	if err != nil {
		t.Fatalf("Error checking file existence: %v", err)
	}
	if exists {
		t.Errorf("Expected file to not exist: %s", path)
	}
}
