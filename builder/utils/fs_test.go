package utils

import (
	"reflect"
	"testing"

	"github.com/spf13/afero"
)

func TestFindFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, path := range []string{"root/b.md", "root/a.md", "root/sub/c.md"} {
		if err := afero.WriteFile(fs, path, []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", path, err)
		}
	}

	files, err := FindFiles(fs, "root")
	if err != nil {
		t.Fatalf("FindFiles() error = %v", err)
	}
	want := []string{"a.md", "b.md", "sub/c.md"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("FindFiles() = %v, want %v", files, want)
	}
}

func TestFindFilesMissingRoot(t *testing.T) {
	files, err := FindFiles(afero.NewMemMapFs(), "nowhere")
	if err != nil {
		t.Fatalf("FindFiles() error = %v", err)
	}
	if len(files) != 0 {
		t.Errorf("FindFiles() on a missing root = %v, want empty", files)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := WriteFileAtomic(fs, "out/deep/file.txt", []byte("data"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}

	data, err := afero.ReadFile(fs, "out/deep/file.txt")
	if err != nil {
		t.Fatalf("Failed to read back: %v", err)
	}
	if string(data) != "data" {
		t.Errorf("Read back %q, want %q", data, "data")
	}

	if ok, _ := afero.Exists(fs, "out/deep/file.txt.tmp"); ok {
		t.Error("Temp file should not survive a successful write")
	}
}

func TestCopyFile(t *testing.T) {
	src := afero.NewMemMapFs()
	dst := afero.NewMemMapFs()
	if err := afero.WriteFile(src, "a/in.bin", []byte("payload"), 0644); err != nil {
		t.Fatalf("Failed to write source: %v", err)
	}

	if err := CopyFile(src, "a/in.bin", dst, "b/out.bin"); err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}
	data, err := afero.ReadFile(dst, "b/out.bin")
	if err != nil {
		t.Fatalf("Failed to read copy: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("Copied %q, want %q", data, "payload")
	}

	if err := CopyFile(src, "missing", dst, "b/out2.bin"); err == nil {
		t.Error("CopyFile should fail for a missing source")
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"posts", "/posts/"},
		{"/posts/", "/posts/"},
		{"/posts//hello", "/posts/hello/"},
		{"/a/b/../c", "/a/c/"},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParentURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/", "/"},
		{"/posts/", "/"},
		{"/posts/hello/", "/posts/"},
		{"posts/hello", "/posts/"},
	}
	for _, tt := range tests {
		if got := ParentURL(tt.in); got != tt.want {
			t.Errorf("ParentURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
