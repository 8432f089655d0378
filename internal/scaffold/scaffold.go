// Package scaffold creates new content files with frontmatter filled in.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// slugRegex matches characters that are unsafe for filenames/URLs
var slugRegex = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// sanitizeSlug converts a title to a safe filename slug
func sanitizeSlug(title string) string {
	slug := strings.ToLower(title)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugRegex.ReplaceAllString(slug, "")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")
	if len(slug) > 100 {
		slug = slug[:100]
	}
	return slug
}

// Run creates a new dated post under the site's content directory.
func Run(root string, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: inkpress new \"My New Post Title\"")
		return
	}

	title := args[0]
	slug := sanitizeSlug(title)
	if slug == "" {
		fmt.Println("❌ Error: Title produces empty slug after sanitization")
		return
	}

	date := time.Now().Format("2006-01-02")
	filename := filepath.Join(root, "content", fmt.Sprintf("%s-%s.md", date, slug))

	content := fmt.Sprintf(`---
title: "%s"
category: general
---

Start writing here...
`, title)

	// Check if file exists to avoid overwriting
	if _, err := os.Stat(filename); err == nil {
		fmt.Println("❌ Error: File already exists:", filename)
		return
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		fmt.Println("Error creating directory:", err)
		return
	}
	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		fmt.Println("Error creating file:", err)
		return
	}

	fmt.Printf("✅ Created: %s\n", filename)
}
