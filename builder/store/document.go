package store

import (
	"sort"
	"time"
)

// DefaultType is assigned to documents whose source declares no category.
const DefaultType = "general"

// Document is the derived metadata for one content artifact. The fixed core
// fields have reserved keys; everything else a source declares lands in Meta.
type Document struct {
	URL     string
	Parent  string
	Type    string
	Date    *time.Time
	Content string
	Mtime   time.Time
	// Sum is the BLAKE3 content fingerprint of the source artifact. It is
	// the staleness signal for every cache layer above the store.
	Sum  string
	Meta map[string]any
}

// Title returns the document's title metadata, or "" if absent.
func (d *Document) Title() string {
	if v, ok := d.Meta["title"].(string); ok {
		return v
	}
	return ""
}

// MetaString returns a string metadata value, or "" if absent or not a
// string.
func (d *Document) MetaString(key string) string {
	if v, ok := d.Meta[key].(string); ok {
		return v
	}
	return ""
}

// sortDocuments orders documents by (date, title): dated documents first in
// the requested direction, undated documents trailing regardless of
// direction, ties broken by ascending title. This mirrors the SQL ordering
// so snapshot reads and store reads agree.
func sortDocuments(docs []*Document, ascending bool) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		switch {
		case a.Date == nil && b.Date == nil:
			return a.Title() < b.Title()
		case a.Date == nil:
			return false
		case b.Date == nil:
			return true
		}
		if !a.Date.Equal(*b.Date) {
			if ascending {
				return a.Date.Before(*b.Date)
			}
			return a.Date.After(*b.Date)
		}
		return a.Title() < b.Title()
	})
}
