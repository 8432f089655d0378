package store

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Query describes a structured document lookup. Zero-value fields are
// unfiltered; the zero Query returns every document.
type Query struct {
	// Include restricts results to these types; Exclude removes types.
	Include []string
	Exclude []string
	// Parent matches direct children of a URL. The root parent is "/", so
	// "" means unfiltered.
	Parent string
	// Search requires every whitespace-separated word to appear as a
	// substring of the document content.
	Search string
	// Meta requires exact matches on arbitrary metadata keys.
	Meta map[string]any
	// Offset and Limit paginate; Limit <= 0 means no limit.
	Offset int
	Limit  int
	// Ascending orders by date ascending when true, descending otherwise.
	// Undated documents always sort after dated ones.
	Ascending bool
}

var metaKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// simple reports whether the query can be served from the in-memory
// snapshot (no filters, or a parent filter only).
func (q Query) simple() bool {
	return len(q.Include) == 0 && len(q.Exclude) == 0 && q.Search == "" &&
		len(q.Meta) == 0 && q.Offset == 0 && q.Limit <= 0
}

// Documents runs a query and returns matching documents ordered by
// (date, title) with undated documents trailing.
func (s *Store) Documents(q Query) ([]*Document, error) {
	if q.simple() {
		return s.snapshotDocuments(q)
	}

	var wheres []string
	var bindings []any

	if len(q.Exclude) > 0 {
		terms := make([]string, len(q.Exclude))
		for i, t := range q.Exclude {
			terms[i] = "type != ?"
			bindings = append(bindings, t)
		}
		wheres = append(wheres, "("+strings.Join(terms, " AND ")+")")
	}
	if len(q.Include) > 0 {
		terms := make([]string, len(q.Include))
		for i, t := range q.Include {
			terms[i] = "type = ?"
			bindings = append(bindings, t)
		}
		wheres = append(wheres, "("+strings.Join(terms, " OR ")+")")
	}
	if q.Parent != "" {
		wheres = append(wheres, "parent = ?")
		bindings = append(bindings, q.Parent)
	}
	if q.Search != "" {
		for _, word := range strings.Fields(q.Search) {
			wheres = append(wheres, "content LIKE ?")
			bindings = append(bindings, "%"+word+"%")
		}
	}
	if len(q.Meta) > 0 {
		keys := make([]string, 0, len(q.Meta))
		for key := range q.Meta {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if !metaKeyPattern.MatchString(key) {
				return nil, fmt.Errorf("store: invalid metadata key %q", key)
			}
			wheres = append(wheres, fmt.Sprintf("json_extract(metadata, '$.%s') = ?", key))
			bindings = append(bindings, q.Meta[key])
		}
	}

	var sb strings.Builder
	sb.WriteString(`SELECT url, parent, type, date, metadata, content, mtime, sum FROM documents`)
	if len(wheres) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(wheres, " AND "))
	}

	direction := "DESC"
	if q.Ascending {
		direction = "ASC"
	}
	fmt.Fprintf(&sb, " ORDER BY (date IS NULL) ASC, date %s, json_extract(metadata, '$.title') ASC", direction)

	if q.Limit > 0 {
		sb.WriteString(" LIMIT ? OFFSET ?")
		bindings = append(bindings, q.Limit, q.Offset)
	} else if q.Offset > 0 {
		sb.WriteString(" LIMIT -1 OFFSET ?")
		bindings = append(bindings, q.Offset)
	}

	rows, err := s.conn.Query(sb.String(), bindings...)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
