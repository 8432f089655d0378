package run

import (
	"fmt"
	"os"
	"time"

	"inkpress/builder/handlers"
	"inkpress/builder/phase"
	"inkpress/builder/render"
	"inkpress/builder/renderer"
	"inkpress/builder/site"
	"inkpress/builder/store"
	"inkpress/builder/utils"
)

// Build runs one incremental pass: import changed content into the fact
// store, then re-render every page whose dependencies changed.
func (b *Builder) Build() error {
	start := time.Now()
	fmt.Printf("🚀 Building %s\n", b.cfg.Root)

	if err := b.importContent(); err != nil {
		return err
	}
	if err := b.renderSite(); err != nil {
		return err
	}

	fmt.Printf("✅ Build finished in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// importContent classifies every content file against the handler rules
// and commits the import tracker.
func (b *Builder) importContent() error {
	env := &handlers.Env{
		SourceFs:   b.fs,
		DestFs:     b.fs,
		Store:      b.store,
		Artifacts:  b.artifacts,
		Markdown:   b.markdown,
		ContentDir: b.cfg.ContentDir(),
		FilesDir:   b.cfg.FilesDir(),
	}

	imp := phase.New(b.fs, "import", b.cfg.ContentDir(), utils.JoinSlash(b.cfg.BuildDir(), "import.json"))

	rules := b.cfg.Rules
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	for _, r := range rules {
		h, err := b.handler(r, env)
		if err != nil {
			return err
		}
		if err := imp.AddRule(r.When, r.Then, h); err != nil {
			return err
		}
	}

	return imp.Process(b.cleanupImport)
}

// renderSite re-renders stale pages through the render cache.
func (b *Builder) renderSite() error {
	s := site.New(b.store, b.cfg.Site)

	engine, err := renderer.NewEngine(b.fs, b.cfg.TemplatesDir(), b.cfg.Site)
	if err != nil {
		return err
	}

	rc := render.NewCache(b.fs, utils.JoinSlash(b.cfg.BuildDir(), "render.json"),
		s, engine, b.cfg.FilesDir(), engine.Sum())
	return rc.Process(b.cleanupRender)
}

// cleanupImport reverses one import: output files are removed and
// fact-store rows deleted. Already-absent files are fine.
func (b *Builder) cleanupImport(info phase.BuildInfo) error {
	if err := b.removeFiles(info.Files); err != nil {
		return err
	}
	for _, u := range info.URLs {
		if err := b.store.Delete(u); err != nil && err != store.ErrNotFound {
			return err
		}
	}
	return nil
}

func (b *Builder) cleanupRender(info render.Info) error {
	return b.removeFiles(info.Files)
}

func (b *Builder) removeFiles(files []string) error {
	for _, f := range files {
		if err := b.fs.Remove(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", f, err)
		}
	}
	return nil
}
