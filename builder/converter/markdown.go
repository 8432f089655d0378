package converter

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/gohugoio/hugo-goldmark-extensions/passthrough"
	admonitions "github.com/stefanfritsch/goldmark-admonitions"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Markdown converts frontmatter markdown sources to HTML.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown configures the goldmark pipeline: GFM, YAML frontmatter,
// syntax highlighting with CSS classes, math passthrough delimiters, and
// admonition blocks.
func NewMarkdown() *Markdown {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			meta.Meta,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
			passthrough.New(passthrough.Config{
				InlineDelimiters: []passthrough.Delimiters{{Open: "$", Close: "$"}},
				BlockDelimiters:  []passthrough.Delimiters{{Open: "$$", Close: "$$"}},
			}),
			&admonitions.Extender{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
	return &Markdown{md: md}
}

// Convert renders markdown to HTML and returns the frontmatter metadata
// with plain string-keyed maps throughout.
func (m *Markdown) Convert(source []byte) (string, map[string]any, error) {
	ctx := parser.NewContext()
	var buf bytes.Buffer
	if err := m.md.Convert(source, &buf, parser.WithContext(ctx)); err != nil {
		return "", nil, fmt.Errorf("failed to convert markdown: %w", err)
	}

	metadata := make(map[string]any)
	for key, value := range meta.Get(ctx) {
		metadata[key] = normalizeYAML(value)
	}
	return buf.String(), metadata, nil
}

// normalizeYAML rewrites yaml.v2 interface-keyed maps into string-keyed
// maps so metadata can round-trip through encoding/json.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeYAML(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeYAML(item)
		}
		return out
	default:
		return v
	}
}
