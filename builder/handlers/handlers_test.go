package handlers

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"inkpress/builder/artifact"
	"inkpress/builder/converter"
	"inkpress/builder/testutil"
)

func newEnv(t *testing.T) *Env {
	t.Helper()

	artifacts, err := artifact.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open artifact cache: %v", err)
	}
	t.Cleanup(func() { _ = artifacts.Close() })

	return &Env{
		SourceFs:   afero.NewMemMapFs(),
		DestFs:     afero.NewMemMapFs(),
		Store:      testutil.OpenStore(t),
		Artifacts:  artifacts,
		Markdown:   converter.NewMarkdown(),
		ContentDir: "site/content",
		FilesDir:   "site/build/files",
	}
}

func TestIgnore(t *testing.T) {
	env := newEnv(t)
	info, err := Ignore(env)("site/content/.DS_Store")
	if err != nil {
		t.Fatalf("Ignore() error = %v", err)
	}
	if len(info.Files) != 0 || len(info.URLs) != 0 {
		t.Errorf("Ignore() info = %+v, want empty", info)
	}
}

func TestCopyFile(t *testing.T) {
	env := newEnv(t)
	testutil.WriteFiles(t, env.SourceFs, map[string]string{
		"site/content/docs/file.pdf": "pdf bytes",
	})

	info, err := CopyFile(env)("site/content/docs/file.pdf")
	if err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}
	if len(info.Files) != 1 || info.Files[0] != "site/build/files/docs/file.pdf" {
		t.Errorf("info.Files = %v", info.Files)
	}
	testutil.AssertFileExists(t, env.DestFs, "site/build/files/docs/file.pdf")
}

func TestHandlersRejectOutsidePaths(t *testing.T) {
	env := newEnv(t)
	if _, err := CopyFile(env)("elsewhere/file.txt"); err == nil {
		t.Error("paths outside the content directory should be rejected")
	}
}

func TestImportMarkdown(t *testing.T) {
	env := newEnv(t)
	testutil.WriteFiles(t, env.SourceFs, map[string]string{
		"site/content/posts/2026-01-02-hello.md": "---\ntitle: Hello\n---\n\nBody.\n",
	})

	info, err := ImportMarkdown(env, "post")("site/content/posts/2026-01-02-hello.md")
	if err != nil {
		t.Fatalf("ImportMarkdown() error = %v", err)
	}
	if len(info.URLs) != 1 || info.URLs[0] != "/posts/2026-01-02-hello/" {
		t.Fatalf("info.URLs = %v", info.URLs)
	}

	doc, err := env.Store.Get("/posts/2026-01-02-hello/")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if doc.Type != "post" {
		t.Errorf("Type = %q, want post", doc.Type)
	}
	if !strings.Contains(doc.Content, "Body.") {
		t.Errorf("Content = %q, want rendered body", doc.Content)
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestResizeWebP(t *testing.T) {
	out, err := resizeWebP(pngBytes(t, 100, 50), 40)
	if err != nil {
		t.Fatalf("resizeWebP() error = %v", err)
	}
	if len(out) == 0 {
		t.Fatal("resizeWebP() produced no output")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("Failed to decode output: %v", err)
	}
	if cfg.Width != 40 || cfg.Height != 20 {
		t.Errorf("output = %dx%d, want 40x20", cfg.Width, cfg.Height)
	}
}

func TestResizeWebPKeepsSmallImages(t *testing.T) {
	out, err := resizeWebP(pngBytes(t, 30, 30), 100)
	if err != nil {
		t.Fatalf("resizeWebP() error = %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("Failed to decode output: %v", err)
	}
	if cfg.Width != 30 || cfg.Height != 30 {
		t.Errorf("output = %dx%d, want 30x30 untouched", cfg.Width, cfg.Height)
	}
}

func TestImportImage(t *testing.T) {
	env := newEnv(t)
	if err := env.SourceFs.MkdirAll("site/content/gallery", 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := afero.WriteFile(env.SourceFs, "site/content/gallery/sunset.png", pngBytes(t, 80, 40), 0644); err != nil {
		t.Fatalf("Failed to write image: %v", err)
	}

	info, err := ImportImage(env)("site/content/gallery/sunset.png")
	if err != nil {
		t.Fatalf("ImportImage() error = %v", err)
	}
	if len(info.URLs) != 1 || info.URLs[0] != "/gallery/sunset/" {
		t.Errorf("info.URLs = %v", info.URLs)
	}
	testutil.AssertFileExists(t, env.DestFs, "site/build/files/gallery/sunset.webp")
	testutil.AssertFileExists(t, env.DestFs, "site/build/files/gallery/sunset-thumbnail.webp")

	doc, err := env.Store.Get("/gallery/sunset/")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if doc.Type != "image" {
		t.Errorf("Type = %q, want image", doc.Type)
	}
	if doc.Meta["image"] != "/gallery/sunset.webp" {
		t.Errorf("Meta image = %v", doc.Meta["image"])
	}
	if doc.Meta["thumbnail"] != "/gallery/sunset-thumbnail.webp" {
		t.Errorf("Meta thumbnail = %v", doc.Meta["thumbnail"])
	}
}

func TestAssetMinifiesCSS(t *testing.T) {
	env := newEnv(t)
	testutil.WriteFiles(t, env.SourceFs, map[string]string{
		"site/content/css/style.css": "body {\n  color: red;\n}\n",
	})

	info, err := Asset(env)("site/content/css/style.css")
	if err != nil {
		t.Fatalf("Asset() error = %v", err)
	}
	if len(info.Files) != 1 || info.Files[0] != "site/build/files/css/style.css" {
		t.Errorf("info.Files = %v", info.Files)
	}

	out, err := afero.ReadFile(env.DestFs, "site/build/files/css/style.css")
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if strings.Contains(string(out), "\n  ") {
		t.Errorf("output = %q, want minified css", out)
	}
}

func TestAssetCompilesTypeScript(t *testing.T) {
	env := newEnv(t)
	testutil.WriteFiles(t, env.SourceFs, map[string]string{
		"site/content/js/app.ts": "const x: number = 1;\nconsole.log(x);\n",
	})

	info, err := Asset(env)("site/content/js/app.ts")
	if err != nil {
		t.Fatalf("Asset() error = %v", err)
	}
	if len(info.Files) != 1 || info.Files[0] != "site/build/files/js/app.js" {
		t.Errorf("info.Files = %v, want a .js output", info.Files)
	}

	out, err := afero.ReadFile(env.DestFs, "site/build/files/js/app.js")
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if strings.Contains(string(out), ": number") {
		t.Errorf("output = %q, type annotations should be stripped", out)
	}
}

func TestAssetUnknownExtension(t *testing.T) {
	env := newEnv(t)
	testutil.WriteFiles(t, env.SourceFs, map[string]string{
		"site/content/data.xml": "<x/>",
	})
	if _, err := Asset(env)("site/content/data.xml"); err == nil {
		t.Error("Asset() should reject extensions without a loader")
	}
}

func TestImportMarkdownThumbnail(t *testing.T) {
	env := newEnv(t)
	testutil.WriteFiles(t, env.SourceFs, map[string]string{
		"site/content/posts/trip.md": "---\ntitle: Trip\nthumbnail: cover.png\n---\n\nBody.\n",
	})
	if err := afero.WriteFile(env.SourceFs, "site/content/posts/cover.png", pngBytes(t, 60, 60), 0644); err != nil {
		t.Fatalf("Failed to write image: %v", err)
	}

	info, err := ImportMarkdown(env, "post")("site/content/posts/trip.md")
	if err != nil {
		t.Fatalf("ImportMarkdown() error = %v", err)
	}
	testutil.AssertFileExists(t, env.DestFs, "site/build/files/posts/trip-thumbnail.webp")
	if len(info.Files) != 1 {
		t.Errorf("info.Files = %v, want the generated thumbnail", info.Files)
	}

	doc, err := env.Store.Get("/posts/trip/")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if doc.Meta["thumbnail"] != "/posts/trip-thumbnail.webp" {
		t.Errorf("Meta thumbnail = %v", doc.Meta["thumbnail"])
	}
}
