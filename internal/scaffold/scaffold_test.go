package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My New Post", "my-new-post"},
		{"  Spaces  Everywhere  ", "spaces-everywhere"},
		{"What? A <Title>!", "what-a-title!"},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := sanitizeSlug(tt.in); got != tt.want {
			t.Errorf("sanitizeSlug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRunCreatesPost(t *testing.T) {
	root := t.TempDir()
	Run(root, []string{"Hello World"})

	matches, err := filepath.Glob(filepath.Join(root, "content", "*-hello-world.md"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one created post, got %v (err %v)", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("Failed to read created post: %v", err)
	}
	if !strings.Contains(string(data), `title: "Hello World"`) {
		t.Errorf("created post = %q, want frontmatter title", data)
	}
}
