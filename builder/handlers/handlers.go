// Package handlers provides the built-in content handlers a phase
// dispatches to: ignoring, copying, importing frontmatter markdown,
// importing images, and processing stylesheets and scripts. A handler
// reports the files it wrote and the fact-store URLs it populated so the
// generic cleanup can reverse it when the source disappears.
package handlers

import (
	"fmt"
	"path"
	"strings"

	"github.com/spf13/afero"

	"inkpress/builder/artifact"
	"inkpress/builder/converter"
	"inkpress/builder/phase"
	"inkpress/builder/store"
	"inkpress/builder/utils"
)

// Env carries the collaborators every handler needs.
type Env struct {
	SourceFs   afero.Fs
	DestFs     afero.Fs
	Store      *store.Store
	Artifacts  *artifact.Cache
	Markdown   *converter.Markdown
	ContentDir string
	FilesDir   string
}

// rel strips the content directory prefix from a handler's source path.
func (e *Env) rel(p string) (string, error) {
	prefix := strings.TrimSuffix(e.ContentDir, "/") + "/"
	if !strings.HasPrefix(p, prefix) {
		return "", fmt.Errorf("path %s is outside %s", p, e.ContentDir)
	}
	return strings.TrimPrefix(p, prefix), nil
}

// Ignore drops matching files without error. Used to keep noise like
// .DS_Store out of later rules.
func Ignore(*Env) phase.Handler {
	return func(string) (phase.BuildInfo, error) {
		return phase.BuildInfo{}, nil
	}
}

// CopyFile copies the source file verbatim into the files directory.
func CopyFile(env *Env) phase.Handler {
	return func(p string) (phase.BuildInfo, error) {
		rel, err := env.rel(p)
		if err != nil {
			return phase.BuildInfo{}, err
		}
		dest := utils.JoinSlash(env.FilesDir, rel)
		if err := utils.CopyFile(env.SourceFs, p, env.DestFs, dest); err != nil {
			return phase.BuildInfo{}, err
		}
		return phase.BuildInfo{Files: []string{dest}}, nil
	}
}

// ImportMarkdown parses a frontmatter markdown source into the fact store.
// A "thumbnail" metadata entry naming a sibling image gets a resized
// thumbnail generated alongside the document.
func ImportMarkdown(env *Env, defaultType string) phase.Handler {
	return func(p string) (phase.BuildInfo, error) {
		rel, err := env.rel(p)
		if err != nil {
			return phase.BuildInfo{}, err
		}

		doc, err := env.Markdown.FrontmatterDocument(env.SourceFs, env.ContentDir, rel, defaultType)
		if err != nil {
			return phase.BuildInfo{}, err
		}

		var files []string
		if thumb, ok := doc.Meta["thumbnail"].(string); ok {
			src := utils.JoinSlash(env.ContentDir, path.Dir(rel), thumb)
			name := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
			destRel := utils.JoinSlash(path.Dir(rel), name+"-thumbnail.webp")
			dest := utils.JoinSlash(env.FilesDir, destRel)

			if err := resizeInto(env, src, dest, thumbnailWidth); err != nil {
				return phase.BuildInfo{}, err
			}
			doc.Meta["thumbnail"] = "/" + destRel
			files = append(files, dest)
		}

		if err := env.Store.Put(doc); err != nil {
			return phase.BuildInfo{}, err
		}
		return phase.BuildInfo{Files: files, URLs: []string{doc.URL}}, nil
	}
}
