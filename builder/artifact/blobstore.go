package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"inkpress/builder/utils"
)

// Blobs below this size are stored raw; compression overhead isn't worth it.
const rawThreshold = 8 * 1024

// blobStore is content-addressed file storage with two-tier sharding:
// hash[0:2]/hash[2:4]/hash.
type blobStore struct {
	basePath string
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
}

func newBlobStore(basePath string) (*blobStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &blobStore{basePath: basePath, encoder: encoder, decoder: decoder}, nil
}

func (s *blobStore) close() {
	_ = s.encoder.Close()
	s.decoder.Close()
}

func (s *blobStore) shardPath(hash string) string {
	if len(hash) < 4 {
		return filepath.Join(s.basePath, hash)
	}
	return filepath.Join(s.basePath, hash[0:2], hash[2:4], hash)
}

func extension(compressed bool) string {
	if compressed {
		return ".zst"
	}
	return ".raw"
}

// put stores content and returns its hash and whether it was compressed.
func (s *blobStore) put(content []byte) (hash string, compressed bool, err error) {
	hash = utils.SumBytes(content)
	compressed = len(content) >= rawThreshold

	path := s.shardPath(hash) + extension(compressed)
	if _, err := os.Stat(path); err == nil {
		return hash, compressed, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", false, fmt.Errorf("failed to create directory: %w", err)
	}

	data := content
	if compressed {
		data = s.encoder.EncodeAll(content, nil)
	}

	// Atomic write: .tmp then rename.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return "", false, fmt.Errorf("failed to write blob: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", false, fmt.Errorf("failed to rename blob: %w", err)
	}
	return hash, compressed, nil
}

func (s *blobStore) get(hash string, compressed bool) ([]byte, error) {
	data, err := os.ReadFile(s.shardPath(hash) + extension(compressed))
	if err != nil {
		return nil, fmt.Errorf("artifact not found: %s", hash)
	}
	if compressed {
		return s.decoder.DecodeAll(data, nil)
	}
	return data, nil
}

func (s *blobStore) delete(hash string) {
	_ = os.Remove(s.shardPath(hash) + ".raw")
	_ = os.Remove(s.shardPath(hash) + ".zst")
}
