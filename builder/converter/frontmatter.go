// Package converter turns source files into fact-store documents: it
// parses frontmatter markdown and derives URLs, parents, titles, and dates
// from site-relative paths.
package converter

import (
	"fmt"
	"time"

	"github.com/spf13/afero"

	"inkpress/builder/schema"
	"inkpress/builder/store"
	"inkpress/builder/utils"
)

// Reserved metadata keys are hoisted into the document's fixed core instead
// of staying in the extension bag. Frontmatter values win over path-derived
// ones.
var reservedKeys = []string{"category", "date", "content", "url"}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDate(v any) (*time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return &val, nil
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, val); err == nil {
				return &t, nil
			}
		}
		return nil, fmt.Errorf("unrecognized date %q", val)
	default:
		return nil, fmt.Errorf("unsupported date value %v", v)
	}
}

// FrontmatterDocument parses a frontmatter markdown source into a store
// document. Path-derived fields fill in whatever the frontmatter leaves
// unspecified.
func (m *Markdown) FrontmatterDocument(fs afero.Fs, root, relPath, defaultType string) (*store.Document, error) {
	full := utils.JoinSlash(root, relPath)

	source, err := afero.ReadFile(fs, full)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", relPath, err)
	}
	stat, err := fs.Stat(full)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", relPath, err)
	}

	content, metadata, err := m.Convert(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", relPath, err)
	}

	pathInfo := ParsePath(relPath)

	if defaultType == "" {
		defaultType = store.DefaultType
	}
	docType := schema.First(schema.Key("category"), schema.Default(defaultType))(metadata)
	if !docType.Matched() {
		return nil, docType.Err()
	}

	doc := &store.Document{
		URL:     pathInfo.URL,
		Parent:  pathInfo.Parent,
		Type:    fmt.Sprint(docType.Value()),
		Content: content,
		Mtime:   stat.ModTime(),
		Sum:     utils.SumBytes(source),
	}

	if raw, ok := metadata["date"]; ok {
		date, err := parseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid date in %s: %w", relPath, err)
		}
		doc.Date = date
	} else {
		doc.Date = pathInfo.Date
	}

	if u, ok := metadata["url"].(string); ok {
		doc.URL = utils.NormalizeURL(u)
	}

	if _, ok := metadata["title"]; !ok && pathInfo.HasTitle {
		metadata["title"] = pathInfo.Title
	}
	if pathInfo.Scale > 0 {
		metadata["scale"] = pathInfo.Scale
	}
	metadata["path"] = "/" + relPath

	for _, key := range reservedKeys {
		delete(metadata, key)
	}
	doc.Meta = metadata

	return doc, nil
}
