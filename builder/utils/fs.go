package utils

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// JoinSlash joins path elements with forward slashes regardless of platform.
// Engine-internal paths (cache keys, URLs, afero paths) always use slashes.
func JoinSlash(elem ...string) string {
	return path.Join(elem...)
}

// FindFiles returns the relative paths of all regular files under root in
// sorted order. A missing root yields an empty list, not an error.
func FindFiles(fsys afero.Fs, root string) ([]string, error) {
	if ok, _ := afero.DirExists(fsys, root); !ok {
		return nil, nil
	}

	var files []string
	err := afero.Walk(fsys, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// WriteFileAtomic writes data to path via a temp file and rename so readers
// never observe a partial write.
func WriteFileAtomic(fsys afero.Fs, path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpPath := path + ".tmp"
	if err := afero.WriteFile(fsys, tmpPath, data, perm); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := fsys.Rename(tmpPath, path); err != nil {
		_ = fsys.Remove(tmpPath)
		return fmt.Errorf("failed to rename %s: %w", tmpPath, err)
	}
	return nil
}

// CopyFile copies a single file between filesystems, creating the
// destination directory as needed.
func CopyFile(srcFs afero.Fs, srcPath string, dstFs afero.Fs, dstPath string) error {
	src, err := srcFs.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", srcPath, err)
	}
	defer src.Close()

	if err := dstFs.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := dstFs.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dstPath, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to copy to %s: %w", dstPath, err)
	}
	return dst.Close()
}

// NormalizeURL canonicalizes a site-relative URL: cleaned, with a leading
// and trailing slash.
func NormalizeURL(u string) string {
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	u = path.Clean(u)
	if u == "/" || u == "." {
		return "/"
	}
	return u + "/"
}

// ParentURL returns the URL of the directory containing u. The parent of
// the root is the root itself.
func ParentURL(u string) string {
	u = NormalizeURL(u)
	if u == "/" {
		return "/"
	}
	return NormalizeURL(path.Dir(strings.TrimSuffix(u, "/")))
}
