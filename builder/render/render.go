// Package render decides, per output URL, whether a previously rendered
// page must be re-rendered. Dependencies are not declared upfront: the
// queries a render actually performs are recorded, fingerprinted, and
// persisted, and a later run re-evaluates them against the current store to
// detect staleness without rendering.
package render

import (
	"fmt"
	"path"
	"strings"

	"github.com/spf13/afero"

	"inkpress/builder/site"
	"inkpress/builder/store"
	"inkpress/builder/tracker"
	"inkpress/builder/utils"
)

// Renderer produces the final output bytes for a page. Implementations must
// reach relationship data only through the page accessors so that every
// lookup is recorded.
type Renderer interface {
	Render(page *site.Page) ([]byte, error)
}

// Info is the persisted payload for one rendered page: the files it wrote
// and the query set discovered during the render.
type Info struct {
	Files   []string             `json:"files,omitempty"`
	Queries []site.RecordedQuery `json:"queries,omitempty"`

	// digest carries the entry fingerprint computed from the fresh query
	// set; it lives in the tracker entry, not in the payload.
	digest string
}

// Fingerprint reports the digest computed after rendering.
func (i Info) Fingerprint() (string, bool) {
	return i.digest, i.digest != ""
}

// Cache drives incremental re-rendering of every document in the site.
type Cache struct {
	fs          afero.Fs
	site        *site.Site
	renderer    Renderer
	outDir      string
	templateSum string
	tracker     *tracker.Tracker[Info]
}

// NewCache creates a render cache persisting at cachePath and writing
// rendered output under outDir. templateSum fingerprints the full template
// set, so any template edit invalidates every page.
func NewCache(fs afero.Fs, cachePath string, s *site.Site, r Renderer, outDir, templateSum string) *Cache {
	return &Cache{
		fs:          fs,
		site:        s,
		renderer:    r,
		outDir:      outDir,
		templateSum: templateSum,
		tracker:     tracker.Open[Info](fs, "render", cachePath),
	}
}

// digest folds the template-set fingerprint, the document's own content
// sum, and the fingerprints of its recorded queries into one value.
func (c *Cache) digest(doc *store.Document, querySums []string) string {
	items := make([]string, 0, len(querySums)+2)
	items = append(items, c.templateSum, doc.Sum)
	items = append(items, querySums...)
	return utils.HashItems(items...)
}

// Process re-evaluates every document's stored query set against the
// current store, re-renders the ones whose digest no longer matches, and
// commits the tracker. cleanup runs for pages whose document has vanished
// or gone stale.
func (c *Cache) Process(cleanup tracker.CleanupFunc[Info]) error {
	docs, err := c.site.Documents(store.Query{})
	if err != nil {
		return err
	}

	for _, doc := range docs {
		doc := doc

		var querySums []string
		if info, ok := c.tracker.Info(doc.URL); ok {
			for _, q := range info.Queries {
				sum, err := c.site.Evaluate(doc.URL, q.Params)
				if err != nil {
					// A query that can no longer be evaluated means stale,
					// never fatal.
					sum = ""
				}
				querySums = append(querySums, sum)
			}
		}

		c.tracker.Add(doc.URL, c.digest(doc, querySums), func(string) (Info, error) {
			return c.render(doc)
		})
	}

	return c.tracker.Commit(cleanup)
}

// render executes a tracked render of one document and writes its output.
func (c *Cache) render(doc *store.Document) (Info, error) {
	fmt.Printf("📄 [render] %s\n", doc.URL)

	page, rec := c.site.TrackedPage(doc)
	out, err := c.renderer.Render(page)
	if err != nil {
		return Info{}, err
	}

	dest := c.OutputPath(page)
	if err := utils.WriteFileAtomic(c.fs, dest, out, 0644); err != nil {
		return Info{}, err
	}

	queries := rec.Queries()
	sums := make([]string, len(queries))
	for i, q := range queries {
		sums[i] = q.Sum
	}

	return Info{
		Files:   []string{dest},
		Queries: queries,
		digest:  c.digest(doc, sums),
	}, nil
}

// OutputPath returns where a page's rendered output lands: an index file
// under the page's URL, with the extension of its template.
func (c *Cache) OutputPath(page *site.Page) string {
	ext := path.Ext(page.Template())
	return utils.JoinSlash(c.outDir, strings.TrimPrefix(page.URL(), "/"), "index"+ext)
}
