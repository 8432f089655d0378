package site

import (
	"encoding/json"
	"fmt"
	"time"

	"inkpress/builder/store"
)

// DefaultTemplate is used by documents that do not name one.
const DefaultTemplate = "post.html"

// Page is a document viewed through the site's relationship API. Pages hold
// URLs into the store rather than live links to other pages; navigation
// always goes back through the store, so results reflect mid-pass writes.
type Page struct {
	doc  *store.Document
	site *Site
	rec  *QueryRecorder
}

// Document returns the underlying document.
func (p *Page) Document() *store.Document { return p.doc }

// URL returns the page's canonical site-relative URL.
func (p *Page) URL() string { return p.doc.URL }

// Title returns the page title metadata.
func (p *Page) Title() string { return p.doc.Title() }

// Type returns the page's document type.
func (p *Page) Type() string { return p.doc.Type }

// Date returns the page date, or nil for undated pages.
func (p *Page) Date() *time.Time { return p.doc.Date }

// Content returns the page's body text.
func (p *Page) Content() string { return p.doc.Content }

// Meta returns the page's extension metadata bag.
func (p *Page) Meta() map[string]any { return p.doc.Meta }

// Template returns the template name the page renders with.
func (p *Page) Template() string {
	if t := p.doc.MetaString("template"); t != "" {
		return t
	}
	return DefaultTemplate
}

// Parent returns the containing page, or nil if the parent URL has no
// document.
func (p *Page) Parent() (*Page, error) {
	pages, err := p.record(QueryParams{Type: QueryPost, URL: p.doc.Parent})
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, nil
	}
	return pages[0], nil
}

// Children returns the page's direct children. The sort direction can be
// overridden per page with the "sort" metadata key.
func (p *Page) Children() ([]*Page, error) {
	sortOrder := p.doc.MetaString("sort")
	if sortOrder == "" {
		sortOrder = SortAscending
	}
	return p.record(QueryParams{Type: QueryChildren, Parent: p.doc.URL, Sort: sortOrder})
}

// Siblings returns every page sharing this page's parent, itself included.
func (p *Page) Siblings() ([]*Page, error) {
	return p.record(QueryParams{Type: QuerySiblings, Parent: p.doc.Parent})
}

// Previous returns the entry before this page among its siblings, or nil.
func (p *Page) Previous() (*Page, error) {
	pages, err := p.record(QueryParams{Type: QueryPrevious, Parent: p.doc.Parent})
	if err != nil || len(pages) == 0 {
		return nil, err
	}
	return pages[0], nil
}

// Next returns the entry after this page among its siblings, or nil.
func (p *Page) Next() (*Page, error) {
	pages, err := p.record(QueryParams{Type: QueryNext, Parent: p.doc.Parent})
	if err != nil || len(pages) == 0 {
		return nil, err
	}
	return pages[0], nil
}

// Query runs a named query declared in the page's "queries" metadata.
// Referencing an undeclared name is a configuration error.
func (p *Page) Query(identifier string) ([]*Page, error) {
	queries, ok := p.doc.Meta["queries"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("site: unknown query %q on %s", identifier, p.doc.URL)
	}
	raw, ok := queries[identifier]
	if !ok {
		return nil, fmt.Errorf("site: unknown query %q on %s", identifier, p.doc.URL)
	}

	// Named queries arrive as free-form metadata; round-trip through JSON
	// to get typed parameters.
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("site: invalid query %q on %s: %w", identifier, p.doc.URL, err)
	}
	var params QueryParams
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("site: invalid query %q on %s: %w", identifier, p.doc.URL, err)
	}
	return p.record(params)
}

// record runs a query, records it against the page's recorder, and wraps
// the results. Result pages share the recorder so that lookups made through
// them are attributed to the same render.
func (p *Page) record(params QueryParams) ([]*Page, error) {
	docs, err := p.site.run(p.doc.URL, params)
	if err != nil {
		return nil, err
	}
	if p.rec != nil {
		p.rec.add(params, docs)
	}

	pages := make([]*Page, len(docs))
	for i, doc := range docs {
		pages[i] = &Page{doc: doc, site: p.site, rec: p.rec}
	}
	return pages, nil
}
