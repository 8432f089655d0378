package converter

import (
	"testing"

	"github.com/spf13/afero"
)

func writeSource(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestFrontmatterDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "content/posts/2026-01-02-hello.md", `---
title: "Hello, World"
category: post
draft: true
---

Body here.
`)

	doc, err := NewMarkdown().FrontmatterDocument(fs, "content", "posts/2026-01-02-hello.md", "general")
	if err != nil {
		t.Fatalf("FrontmatterDocument() error = %v", err)
	}

	if doc.URL != "/posts/2026-01-02-hello/" {
		t.Errorf("URL = %q", doc.URL)
	}
	if doc.Parent != "/posts/" {
		t.Errorf("Parent = %q, want /posts/", doc.Parent)
	}
	if doc.Type != "post" {
		t.Errorf("Type = %q, want post (from category)", doc.Type)
	}
	if doc.Date == nil || doc.Date.Format("2006-01-02") != "2026-01-02" {
		t.Errorf("Date = %v, want the path date", doc.Date)
	}
	if doc.Title() != "Hello, World" {
		t.Errorf("Title() = %q, frontmatter should win over the path", doc.Title())
	}
	if doc.Meta["draft"] != true {
		t.Errorf("Meta draft = %v, want true", doc.Meta["draft"])
	}
	if doc.Meta["path"] != "/posts/2026-01-02-hello.md" {
		t.Errorf("Meta path = %v", doc.Meta["path"])
	}
	if doc.Sum == "" {
		t.Error("Sum should fingerprint the source")
	}

	// Reserved keys never land in the metadata bag.
	for _, key := range []string{"category", "date", "content", "url"} {
		if _, ok := doc.Meta[key]; ok {
			t.Errorf("reserved key %q leaked into Meta", key)
		}
	}
}

func TestFrontmatterDocumentDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "content/notes/quick-note.md", "No frontmatter at all.\n")

	doc, err := NewMarkdown().FrontmatterDocument(fs, "content", "notes/quick-note.md", "note")
	if err != nil {
		t.Fatalf("FrontmatterDocument() error = %v", err)
	}
	if doc.Type != "note" {
		t.Errorf("Type = %q, want the default", doc.Type)
	}
	if doc.Title() != "Quick Note" {
		t.Errorf("Title() = %q, want the path-derived title", doc.Title())
	}
	if doc.Date != nil {
		t.Errorf("Date = %v, want nil", doc.Date)
	}
}

func TestFrontmatterDocumentOverrides(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "content/posts/2026-01-02-hello.md", `---
date: 2026-06-30
url: /elsewhere/hello
---

Body.
`)

	doc, err := NewMarkdown().FrontmatterDocument(fs, "content", "posts/2026-01-02-hello.md", "")
	if err != nil {
		t.Fatalf("FrontmatterDocument() error = %v", err)
	}
	if doc.Date == nil || doc.Date.Format("2006-01-02") != "2026-06-30" {
		t.Errorf("Date = %v, frontmatter should win over the path date", doc.Date)
	}
	if doc.URL != "/elsewhere/hello/" {
		t.Errorf("URL = %q, want the normalized frontmatter URL", doc.URL)
	}
}

func TestFrontmatterDocumentBadDate(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "content/a.md", "---\ndate: not-a-date\n---\n\nBody.\n")

	if _, err := NewMarkdown().FrontmatterDocument(fs, "content", "a.md", ""); err == nil {
		t.Error("FrontmatterDocument() should reject unparseable dates")
	}
}

func TestFrontmatterDocumentMissingFile(t *testing.T) {
	if _, err := NewMarkdown().FrontmatterDocument(afero.NewMemMapFs(), "content", "nope.md", ""); err == nil {
		t.Error("FrontmatterDocument() should fail for a missing file")
	}
}
