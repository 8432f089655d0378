package utils

import (
	"encoding/hex"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

// SumBytes computes the BLAKE3 hash of data and returns it as a hex string.
func SumBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// SumString computes the BLAKE3 hash of a string.
func SumString(s string) string {
	return SumBytes([]byte(s))
}

// SumFile computes the BLAKE3 hash of a file's contents.
func SumFile(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashItems folds an ordered list of strings into a single fingerprint.
// Items are delimited so that ["ab","c"] and ["a","bc"] hash differently.
func HashItems(items ...string) string {
	h := blake3.New()
	for _, item := range items {
		_, _ = io.WriteString(h, item)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SumTree fingerprints every regular file under dir by content, visiting
// files in sorted path order. A missing directory hashes like an empty one.
func SumTree(fs afero.Fs, dir string) (string, error) {
	paths, err := FindFiles(fs, dir)
	if err != nil {
		return "", err
	}
	sort.Strings(paths)

	h := blake3.New()
	for _, rel := range paths {
		sum, err := SumFile(fs, JoinSlash(dir, rel))
		if err != nil {
			return "", err
		}
		_, _ = io.WriteString(h, rel)
		_, _ = h.Write([]byte{0})
		_, _ = io.WriteString(h, sum)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
