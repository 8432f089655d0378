// Package config loads the site definition from site.yaml: the layout
// paths, the ordered handler rules, and the free-form values templates
// can reach through .Site.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"inkpress/builder/utils"
)

// Rule maps a filename pattern to a handler, in order. The first rule
// whose pattern matches a source file wins.
type Rule struct {
	When string         `yaml:"when"`
	Then string         `yaml:"then"`
	Args map[string]any `yaml:"args"`
}

// Paths locates the site's directories relative to its root.
type Paths struct {
	Content   string `yaml:"content"`
	Build     string `yaml:"build"`
	Templates string `yaml:"templates"`
}

type Config struct {
	Root  string         `yaml:"-"`
	Title string         `yaml:"title"`
	URL   string         `yaml:"url"`
	Paths Paths          `yaml:"paths"`
	Rules []Rule         `yaml:"handlers"`
	Site  map[string]any `yaml:"config"`
}

// Default returns the configuration an empty site.yaml implies.
func Default(root string) *Config {
	return &Config{
		Root: root,
		Paths: Paths{
			Content:   "content",
			Build:     "build",
			Templates: "templates",
		},
		Site: map[string]any{},
	}
}

// Load reads <root>/site.yaml. A missing file yields the defaults.
func Load(fs afero.Fs, root string) (*Config, error) {
	cfg := Default(root)

	data, err := afero.ReadFile(fs, utils.JoinSlash(root, "site.yaml"))
	if err != nil {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse site.yaml: %w", err)
	}
	if cfg.Site == nil {
		cfg.Site = map[string]any{}
	}
	if cfg.Title != "" {
		cfg.Site["title"] = cfg.Title
	}
	if cfg.URL != "" {
		cfg.Site["url"] = cfg.URL
	}
	return cfg, nil
}

// ContentDir, BuildDir and TemplatesDir resolve the configured paths
// against the site root.
func (c *Config) ContentDir() string   { return utils.JoinSlash(c.Root, c.Paths.Content) }
func (c *Config) BuildDir() string     { return utils.JoinSlash(c.Root, c.Paths.Build) }
func (c *Config) TemplatesDir() string { return utils.JoinSlash(c.Root, c.Paths.Templates) }

// FilesDir is where handlers and the renderer place output files.
func (c *Config) FilesDir() string { return utils.JoinSlash(c.BuildDir(), "files") }

// Set applies a key.path=value override to the free-form site values.
// Values parse as bool or number when they look like one.
func (c *Config) Set(expr string) error {
	key, raw, ok := strings.Cut(expr, "=")
	if !ok {
		return fmt.Errorf("malformed override %q, want key=value", expr)
	}

	parts := strings.Split(key, ".")
	node := c.Site
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[part] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = coerce(raw)
	return nil
}

func coerce(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
