package site

import (
	"encoding/json"
	"fmt"
	"sort"

	"inkpress/builder/store"
	"inkpress/builder/utils"
)

// Query type identifiers. "posts" is the default when Type is empty.
const (
	QueryPosts    = "posts"
	QueryChildren = "children"
	QueryPost     = "post"
	QuerySiblings = "siblings"
	QueryPrevious = "previous"
	QueryNext     = "next"
)

const (
	SortAscending  = "ascending"
	SortDescending = "descending"
)

// QueryParams is the canonical, serializable description of a relationship
// query. Two lookups with equal parameters against an unchanged store must
// return the same result set.
type QueryParams struct {
	Type    string   `json:"type"`
	URL     string   `json:"url,omitempty"`
	Parent  string   `json:"parent,omitempty"`
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
	Sort    string   `json:"sort,omitempty"`
}

// Key returns the canonical serialized form, used to deduplicate recorded
// queries.
func (p QueryParams) Key() string {
	data, _ := json.Marshal(p)
	return string(data)
}

func (p QueryParams) ascending() bool {
	return p.Sort != SortDescending
}

// run evaluates a relationship query against the current store. selfURL is
// the URL of the page on whose behalf the query runs; previous/next are
// defined relative to it. An unknown query type is a configuration error
// and is surfaced immediately.
func (s *Site) run(selfURL string, p QueryParams) ([]*store.Document, error) {
	switch p.Type {
	case "", QueryPosts:
		return s.store.Documents(store.Query{
			Include:   p.Include,
			Exclude:   p.Exclude,
			Ascending: p.ascending(),
		})

	case QueryChildren:
		return s.store.Documents(store.Query{Parent: p.Parent, Ascending: p.ascending()})

	case QueryPost:
		doc, err := s.Document(p.URL)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, nil
		}
		return []*store.Document{doc}, nil

	case QuerySiblings:
		if p.Parent == "" {
			return nil, nil
		}
		return s.store.Documents(store.Query{Parent: p.Parent})

	case QueryPrevious:
		if p.Parent == "" {
			return nil, nil
		}
		docs, err := s.store.Documents(store.Query{Parent: p.Parent})
		if err != nil {
			return nil, err
		}
		var previous []*store.Document
		for _, doc := range docs {
			if doc.URL == selfURL {
				return previous, nil
			}
			previous = []*store.Document{doc}
		}
		return nil, nil

	case QueryNext:
		if p.Parent == "" {
			return nil, nil
		}
		docs, err := s.store.Documents(store.Query{Parent: p.Parent})
		if err != nil {
			return nil, err
		}
		for i, doc := range docs {
			if doc.URL == selfURL && i+1 < len(docs) {
				return []*store.Document{docs[i+1]}, nil
			}
		}
		return nil, nil
	}

	return nil, fmt.Errorf("site: unsupported query type %q", p.Type)
}

// Evaluate runs a query and returns the fingerprint of its current result
// set: a hash over the content sums of every returned document, in order.
// Any change to membership, order, or any member's content changes it.
func (s *Site) Evaluate(selfURL string, p QueryParams) (string, error) {
	docs, err := s.run(selfURL, p)
	if err != nil {
		return "", err
	}
	return resultFingerprint(docs), nil
}

func resultFingerprint(docs []*store.Document) string {
	sums := make([]string, len(docs))
	for i, doc := range docs {
		sums[i] = doc.Sum
	}
	return utils.HashItems(sums...)
}

// RecordedQuery pairs query parameters with the fingerprint of the result
// set they produced.
type RecordedQuery struct {
	Params QueryParams `json:"params"`
	Sum    string      `json:"sum"`
}

// QueryRecorder collects the relationship queries evaluated while a page
// renders. Identical queries are recorded once.
type QueryRecorder struct {
	queries map[string]RecordedQuery
}

// NewQueryRecorder returns an empty recorder.
func NewQueryRecorder() *QueryRecorder {
	return &QueryRecorder{queries: make(map[string]RecordedQuery)}
}

func (r *QueryRecorder) add(p QueryParams, docs []*store.Document) {
	r.queries[p.Key()] = RecordedQuery{Params: p, Sum: resultFingerprint(docs)}
}

// Queries returns the recorded set in a deterministic order.
func (r *QueryRecorder) Queries() []RecordedQuery {
	keys := make([]string, 0, len(r.queries))
	for k := range r.queries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]RecordedQuery, len(keys))
	for i, k := range keys {
		out[i] = r.queries[k]
	}
	return out
}
