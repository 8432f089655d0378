// Package site exposes the fact store as a navigable website: pages with
// parent/children/sibling relationships. Every relationship lookup made
// through a tracked page is recorded with a fingerprint of its result set,
// which is how render-time dependencies are discovered.
package site

import (
	"inkpress/builder/store"
)

// Site wraps the document store together with the site configuration.
type Site struct {
	store  *store.Store
	config map[string]any
}

// New creates a Site over a store.
func New(st *store.Store, config map[string]any) *Site {
	if config == nil {
		config = map[string]any{}
	}
	return &Site{store: st, config: config}
}

// Config returns the free-form site configuration.
func (s *Site) Config() map[string]any {
	return s.config
}

// Documents returns all documents matching a store query.
func (s *Site) Documents(q store.Query) ([]*store.Document, error) {
	return s.store.Documents(q)
}

// Document returns the document for a URL, or nil if absent.
func (s *Site) Document(url string) (*store.Document, error) {
	doc, err := s.store.Get(url)
	if err == store.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Page wraps a document without query tracking. Relationship accessors
// still work; their results are simply not recorded.
func (s *Site) Page(doc *store.Document) *Page {
	return &Page{doc: doc, site: s}
}

// TrackedPage wraps a document with a fresh query recorder. Every
// relationship lookup made through the page (or through pages reached from
// it) is recorded in the returned recorder.
func (s *Site) TrackedPage(doc *store.Document) (*Page, *QueryRecorder) {
	rec := NewQueryRecorder()
	return &Page{doc: doc, site: s, rec: rec}, rec
}
