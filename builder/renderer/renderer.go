// Package renderer is the built-in html/template implementation of the
// render engine's Renderer interface. The template set is loaded once per
// build and fingerprinted by content, so any template edit changes the
// fingerprint and invalidates every rendered page.
package renderer

import (
	"bytes"
	"fmt"
	"html/template"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"

	"inkpress/builder/site"
	"inkpress/builder/utils"
)

// Context is the data handed to every template execution.
type Context struct {
	Site map[string]any
	Page *site.Page
}

// Engine renders pages through an html/template set loaded from a
// templates directory.
type Engine struct {
	tmpl     *template.Template
	sum      string
	config   map[string]any
	minifier *minify.M
}

// NewEngine loads and parses every template file under dir. config is the
// free-form site configuration exposed to templates as .Site.
func NewEngine(fs afero.Fs, dir string, config map[string]any) (*Engine, error) {
	sum, err := utils.SumTree(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint templates: %w", err)
	}

	funcMap := template.FuncMap{
		"lower":     strings.ToLower,
		"hasPrefix": strings.HasPrefix,
		// Document content is already rendered HTML.
		"safe": func(s string) template.HTML { return template.HTML(s) },
		"now":       time.Now,
		"date": func(format string, t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format(format)
		},
		"prepend": func(prefix, s string) string { return prefix + s },
	}

	root := template.New("").Funcs(funcMap)
	files, err := utils.FindFiles(fs, dir)
	if err != nil {
		return nil, err
	}
	for _, rel := range files {
		data, err := afero.ReadFile(fs, utils.JoinSlash(dir, rel))
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", rel, err)
		}
		if _, err := root.New(rel).Parse(string(data)); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", rel, err)
		}
	}

	m := minify.New()
	m.AddFunc("text/html", html.Minify)

	return &Engine{tmpl: root, sum: sum, config: config, minifier: m}, nil
}

// Sum returns the content fingerprint of the loaded template set.
func (e *Engine) Sum() string {
	return e.sum
}

// Render executes the page's template. HTML output is minified; other
// template kinds (JSON feeds and the like) pass through untouched.
func (e *Engine) Render(page *site.Page) ([]byte, error) {
	name := page.Template()
	if e.tmpl.Lookup(name) == nil {
		return nil, fmt.Errorf("template %s not found for %s", name, page.URL())
	}

	var buf bytes.Buffer
	if err := e.tmpl.ExecuteTemplate(&buf, name, Context{Site: e.config, Page: page}); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", page.URL(), err)
	}

	if path.Ext(name) != ".html" {
		return buf.Bytes(), nil
	}

	var out bytes.Buffer
	if err := e.minifier.Minify("text/html", &out, &buf); err != nil {
		// Minification is an optimization; fall back to the raw output.
		return buf.Bytes(), nil
	}
	return out.Bytes(), nil
}
