package store

import "fmt"

// snapshot caches every document in memory for the common read patterns
// during a render pass: lookups by URL and children-of-parent queries.
// Documents are added mid-pass and queried immediately by later work, so
// every write drops the snapshot.
type snapshot struct {
	byURL    map[string]*Document
	byParent map[string][]*Document
	all      []*Document
}

func (s *Store) invalidate() {
	s.snap = nil
}

func (s *Store) loadSnapshot() (*snapshot, error) {
	if s.snap != nil {
		return s.snap, nil
	}

	rows, err := s.conn.Query(`SELECT url, parent, type, date, metadata, content, mtime, sum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("store: load snapshot: %w", err)
	}
	defer rows.Close()

	snap := &snapshot{
		byURL:    make(map[string]*Document),
		byParent: make(map[string][]*Document),
	}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		snap.byURL[doc.URL] = doc
		snap.byParent[doc.Parent] = append(snap.byParent[doc.Parent], doc)
		snap.all = append(snap.all, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: load snapshot: %w", err)
	}

	s.snap = snap
	return snap, nil
}

// snapshotDocuments serves unfiltered and parent-only queries from the
// snapshot. Results are sorted copies; callers must not mutate the
// documents themselves.
func (s *Store) snapshotDocuments(q Query) ([]*Document, error) {
	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}

	var source []*Document
	if q.Parent != "" {
		source = snap.byParent[q.Parent]
	} else {
		source = snap.all
	}

	docs := make([]*Document, len(source))
	copy(docs, source)
	sortDocuments(docs, q.Ascending)
	return docs, nil
}
