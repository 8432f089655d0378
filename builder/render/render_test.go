package render_test

import (
	"testing"

	"github.com/spf13/afero"

	"inkpress/builder/render"
	"inkpress/builder/site"
	"inkpress/builder/store"
	"inkpress/builder/testutil"
)

// listingRenderer renders a page as its title plus the titles of its
// children, counting renders per URL. Children go through the page
// accessor, so the dependency is recorded.
type listingRenderer struct {
	renders map[string]int
}

func newListingRenderer() *listingRenderer {
	return &listingRenderer{renders: map[string]int{}}
}

func (r *listingRenderer) Render(page *site.Page) ([]byte, error) {
	r.renders[page.URL()]++

	out := page.Title()
	children, err := page.Children()
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		out += "\n- " + child.Title()
	}
	return []byte(out), nil
}

type harness struct {
	st *store.Store
	fs afero.Fs
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st := testutil.OpenStore(t)

	section := testutil.Doc("/posts/", "Posts", "")
	a := testutil.Doc("/posts/a/", "A", "post a")
	a.Date = testutil.Date(t, "2026-01-01")
	b := testutil.Doc("/posts/b/", "B", "post b")
	b.Date = testutil.Date(t, "2026-01-02")
	if err := st.Put(section, a, b); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	return &harness{st: st, fs: afero.NewMemMapFs()}
}

// pass runs one full render pass with a fresh cache over the shared
// filesystem, returning the per-URL render counts.
func (h *harness) pass(t *testing.T, templateSum string) map[string]int {
	t.Helper()
	r := newListingRenderer()
	c := render.NewCache(h.fs, "render.json", site.New(h.st, nil), r, "out", templateSum)
	if err := c.Process(h.cleanup); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	return r.renders
}

func (h *harness) cleanup(info render.Info) error {
	for _, f := range info.Files {
		if err := h.fs.Remove(f); err != nil {
			return err
		}
	}
	return nil
}

func TestFirstPassRendersEverything(t *testing.T) {
	h := newHarness(t)

	renders := h.pass(t, "t1")
	for _, url := range []string{"/posts/", "/posts/a/", "/posts/b/"} {
		if renders[url] != 1 {
			t.Errorf("renders[%q] = %d, want 1", url, renders[url])
		}
	}
	testutil.AssertFileExists(t, h.fs, "out/posts/index.html")
	testutil.AssertFileExists(t, h.fs, "out/posts/a/index.html")
	testutil.AssertFileExists(t, h.fs, "out/posts/b/index.html")
}

func TestSecondPassRendersNothing(t *testing.T) {
	h := newHarness(t)
	h.pass(t, "t1")

	renders := h.pass(t, "t1")
	if len(renders) != 0 {
		t.Errorf("second pass rendered %v, want nothing", renders)
	}
}

func TestNewChildReRendersParent(t *testing.T) {
	h := newHarness(t)
	h.pass(t, "t1")

	c := testutil.Doc("/posts/c/", "C", "post c")
	c.Date = testutil.Date(t, "2026-01-03")
	if err := h.st.Put(c); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	renders := h.pass(t, "t1")

	// The listing page depends on its children query, so the new document
	// invalidates it even though the page's own content never changed.
	if renders["/posts/"] != 1 {
		t.Errorf("renders[/posts/] = %d, want 1", renders["/posts/"])
	}
	if renders["/posts/c/"] != 1 {
		t.Errorf("renders[/posts/c/] = %d, want 1", renders["/posts/c/"])
	}
	// Untouched leaves stay cached.
	if renders["/posts/a/"] != 0 || renders["/posts/b/"] != 0 {
		t.Errorf("renders = %v, want a and b untouched", renders)
	}
}

func TestEditedDocumentReRendersSelfAndDependents(t *testing.T) {
	h := newHarness(t)
	h.pass(t, "t1")

	edited := testutil.Doc("/posts/a/", "A", "post a, revised")
	edited.Date = testutil.Date(t, "2026-01-01")
	if err := h.st.Put(edited); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	renders := h.pass(t, "t1")
	if renders["/posts/a/"] != 1 {
		t.Errorf("renders[/posts/a/] = %d, want 1", renders["/posts/a/"])
	}
	// The parent's children query fingerprints member content, so it goes
	// stale too.
	if renders["/posts/"] != 1 {
		t.Errorf("renders[/posts/] = %d, want 1", renders["/posts/"])
	}
	if renders["/posts/b/"] != 0 {
		t.Errorf("renders[/posts/b/] = %d, want 0", renders["/posts/b/"])
	}
}

func TestTemplateChangeInvalidatesAll(t *testing.T) {
	h := newHarness(t)
	h.pass(t, "t1")

	renders := h.pass(t, "t2")
	for _, url := range []string{"/posts/", "/posts/a/", "/posts/b/"} {
		if renders[url] != 1 {
			t.Errorf("renders[%q] = %d, want 1 after template change", url, renders[url])
		}
	}
}

func TestDeletedDocumentCleansOutput(t *testing.T) {
	h := newHarness(t)
	h.pass(t, "t1")

	if err := h.st.Delete("/posts/b/"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	renders := h.pass(t, "t1")
	testutil.AssertFileNotExists(t, h.fs, "out/posts/b/index.html")
	// The parent re-renders without the deleted entry.
	if renders["/posts/"] != 1 {
		t.Errorf("renders[/posts/] = %d, want 1", renders["/posts/"])
	}
	testutil.AssertFileExists(t, h.fs, "out/posts/a/index.html")
}

func TestOutputPathUsesTemplateExtension(t *testing.T) {
	h := newHarness(t)

	feed := testutil.Doc("/feed/", "Feed", "")
	feed.Meta["template"] = "feed.json"
	if err := h.st.Put(feed); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	s := site.New(h.st, nil)
	c := render.NewCache(h.fs, "render.json", s, newListingRenderer(), "out", "t1")
	doc, err := s.Document("/feed/")
	if err != nil || doc == nil {
		t.Fatalf("Document() = %v, %v", doc, err)
	}
	if got := c.OutputPath(s.Page(doc)); got != "out/feed/index.json" {
		t.Errorf("OutputPath() = %q, want out/feed/index.json", got)
	}
}
