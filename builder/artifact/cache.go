// Package artifact memoizes expensive derived artifacts (resized images,
// processed assets) across runs: a BoltDB index maps an input fingerprint
// to a content-addressed blob, so unchanged inputs never pay the
// transformation cost twice.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"
)

const bucketArtifacts = "artifacts"

// Entry records where a derived artifact lives in the blob store.
type Entry struct {
	OutputHash string `msgpack:"output_hash"`
	Size       int64  `msgpack:"size"`
	CreatedAt  int64  `msgpack:"created_at"`
	Compressed bool   `msgpack:"compressed"`
}

// Cache is the artifact cache: BoltDB metadata over a content-addressed,
// zstd-compressed blob store.
type Cache struct {
	db    *bolt.DB
	blobs *blobStore
}

// Open opens or creates an artifact cache rooted at basePath.
func Open(basePath string) (*Cache, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	opts := &bolt.Options{Timeout: 10 * time.Second}
	db, err := bolt.Open(filepath.Join(basePath, "artifacts.db"), 0644, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketArtifacts))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	blobs, err := newBlobStore(filepath.Join(basePath, "blobs"))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Cache{db: db, blobs: blobs}, nil
}

// Close closes the cache.
func (c *Cache) Close() error {
	if c.blobs != nil {
		c.blobs.close()
	}
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func key(kind, inputHash string) []byte {
	return []byte(kind + ":" + inputHash)
}

// Get returns the cached artifact derived from inputHash, or ok=false.
func (c *Cache) Get(kind, inputHash string) (data []byte, ok bool, err error) {
	var entry *Entry
	err = c.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(bucketArtifacts)).Get(key(kind, inputHash))
		if raw == nil {
			return nil
		}
		var e Entry
		if err := msgpack.Unmarshal(raw, &e); err != nil {
			return fmt.Errorf("failed to decode entry: %w", err)
		}
		entry = &e
		return nil
	})
	if err != nil || entry == nil {
		return nil, false, err
	}

	data, err = c.blobs.get(entry.OutputHash, entry.Compressed)
	if err != nil {
		// Missing blob just means a rebuild, not a failure.
		return nil, false, nil
	}
	return data, true, nil
}

// Put stores an artifact derived from inputHash.
func (c *Cache) Put(kind, inputHash string, content []byte) error {
	outputHash, compressed, err := c.blobs.put(content)
	if err != nil {
		return err
	}

	entry := Entry{
		OutputHash: outputHash,
		Size:       int64(len(content)),
		CreatedAt:  time.Now().Unix(),
		Compressed: compressed,
	}
	raw, err := msgpack.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketArtifacts)).Put(key(kind, inputHash), raw)
	})
}

// Delete drops an artifact and its blob.
func (c *Cache) Delete(kind, inputHash string) error {
	var entry Entry
	found := false
	err := c.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketArtifacts))
		raw := bucket.Get(key(kind, inputHash))
		if raw == nil {
			return nil
		}
		if err := msgpack.Unmarshal(raw, &entry); err == nil {
			found = true
		}
		return bucket.Delete(key(kind, inputHash))
	})
	if err != nil {
		return err
	}
	if found {
		c.blobs.delete(entry.OutputHash)
	}
	return nil
}
