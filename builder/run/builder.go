// Package run wires the whole build together: configuration, fact store,
// artifact cache, the import phase, and the render cache.
package run

import (
	"fmt"

	"github.com/spf13/afero"

	"inkpress/builder/artifact"
	"inkpress/builder/config"
	"inkpress/builder/converter"
	"inkpress/builder/handlers"
	"inkpress/builder/phase"
	"inkpress/builder/store"
	"inkpress/builder/utils"
)

// Builder maintains the state shared across builds of one site.
type Builder struct {
	cfg       *config.Config
	fs        afero.Fs
	store     *store.Store
	artifacts *artifact.Cache
	markdown  *converter.Markdown
}

// NewBuilder opens the site's fact store and artifact cache under the
// build directory. The store and the artifact cache live on the real
// filesystem, so fs must be OS-backed.
func NewBuilder(fs afero.Fs, cfg *config.Config) (*Builder, error) {
	if err := fs.MkdirAll(cfg.BuildDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create build directory: %w", err)
	}

	st, err := store.Open(utils.JoinSlash(cfg.BuildDir(), "store.sqlite"))
	if err != nil {
		return nil, err
	}

	artifacts, err := artifact.Open(utils.JoinSlash(cfg.BuildDir(), "cache"))
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &Builder{
		cfg:       cfg,
		fs:        fs,
		store:     st,
		artifacts: artifacts,
		markdown:  converter.NewMarkdown(),
	}, nil
}

// Store exposes the fact store, mainly for tests and tooling.
func (b *Builder) Store() *store.Store {
	return b.store
}

// Close releases the store and artifact cache.
func (b *Builder) Close() error {
	if err := b.artifacts.Close(); err != nil {
		_ = b.store.Close()
		return err
	}
	return b.store.Close()
}

// Clean removes the build directory: output files, fact store, caches.
func Clean(fs afero.Fs, cfg *config.Config) error {
	fmt.Printf("🧹 Removing %s\n", cfg.BuildDir())
	if err := fs.RemoveAll(cfg.BuildDir()); err != nil {
		return fmt.Errorf("failed to remove build directory: %w", err)
	}
	return nil
}

// DefaultRules is the handler chain used when site.yaml declares none.
// Order matters: the first matching rule claims the file.
func DefaultRules() []config.Rule {
	return []config.Rule{
		{When: `.*(\.DS_Store|\.tmp|~)`, Then: "ignore"},
		{When: `.*\.(md|markdown)`, Then: "import-markdown"},
		{When: `.*\.(jpg|jpeg|png|gif|tiff)`, Then: "import-image"},
		{When: `.*\.(css|js|ts)`, Then: "asset"},
		{When: `.*`, Then: "copy"},
	}
}

// handler resolves a rule's handler name against the built-in set.
func (b *Builder) handler(r config.Rule, env *handlers.Env) (phase.Handler, error) {
	switch r.Then {
	case "ignore":
		return handlers.Ignore(env), nil
	case "copy":
		return handlers.CopyFile(env), nil
	case "import-markdown":
		docType, _ := r.Args["type"].(string)
		if docType == "" {
			docType = store.DefaultType
		}
		return handlers.ImportMarkdown(env, docType), nil
	case "import-image":
		return handlers.ImportImage(env), nil
	case "asset":
		return handlers.Asset(env), nil
	default:
		return nil, fmt.Errorf("unknown handler %q", r.Then)
	}
}
