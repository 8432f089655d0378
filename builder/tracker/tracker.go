// Package tracker provides a generic path-keyed incremental cache. It
// persists a fingerprint and a side-effect payload per tracked path, and on
// each pass decides which paths need rebuilding and which have vanished and
// need cleaning up.
package tracker

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/afero"

	"inkpress/builder/utils"
)

// BuildFunc produces the side-effect payload for a path. It is invoked at
// commit time, not at Add time.
type BuildFunc[I any] func(path string) (I, error)

// CleanupFunc reverses the side effects recorded in a payload.
type CleanupFunc[I any] func(info I) error

// Fingerprinter lets a build payload override the fingerprint recorded for
// its entry. Callers whose true fingerprint is only known after building
// (rendering discovers its own dependencies) return it from the payload.
type Fingerprinter interface {
	Fingerprint() (string, bool)
}

// Entry is one persisted cache record.
type Entry[I any] struct {
	Fingerprint string `json:"fingerprint"`
	Info        I      `json:"info"`
}

// Tracker is an incremental cache over a named keyspace of paths.
//
// Usage per pass: Add every currently present path, then Commit once.
// Paths whose fingerprint is unchanged are skipped; everything else is
// rebuilt, and prior entries not re-confirmed are cleaned up.
type Tracker[I any] struct {
	name  string
	path  string
	fs    afero.Fs
	cache map[string]Entry[I]
	// deletions starts as a copy of the prior cache; Add removes confirmed
	// paths, and whatever remains at Commit time is cleaned up.
	deletions map[string]Entry[I]
	actions   []func() error
}

// Open loads a tracker's prior state from path. A missing or unreadable
// cache file is treated as an empty cache, never as an error.
func Open[I any](fs afero.Fs, name, path string) *Tracker[I] {
	t := &Tracker[I]{
		name:      name,
		path:      path,
		fs:        fs,
		cache:     make(map[string]Entry[I]),
		deletions: make(map[string]Entry[I]),
	}

	data, err := afero.ReadFile(fs, path)
	if err == nil {
		if err := json.Unmarshal(data, &t.cache); err != nil {
			// Corrupt cache: start over and rebuild everything.
			t.cache = make(map[string]Entry[I])
		}
	}
	for k, v := range t.cache {
		t.deletions[k] = v
	}
	return t
}

// Add registers a path for this pass. If the prior entry carries an
// identical fingerprint the path is marked still-present and build is
// skipped; otherwise build is queued to run at Commit time and its payload
// becomes the new cache entry.
func (t *Tracker[I]) Add(path, fingerprint string, build BuildFunc[I]) {
	if prior, ok := t.deletions[path]; ok && prior.Fingerprint == fingerprint {
		delete(t.deletions, path)
		return
	}

	t.actions = append(t.actions, func() error {
		info, err := build(path)
		if err != nil {
			return fmt.Errorf("[%s] %s: %w", t.name, path, err)
		}
		fp := fingerprint
		if f, ok := any(info).(Fingerprinter); ok {
			if override, ok := f.Fingerprint(); ok {
				fp = override
			}
		}
		t.cache[path] = Entry[I]{Fingerprint: fp, Info: info}
		return nil
	})
}

// Info returns the last committed payload for a path.
func (t *Tracker[I]) Info(path string) (I, bool) {
	entry, ok := t.cache[path]
	return entry.Info, ok
}

// Paths returns all tracked paths in sorted order.
func (t *Tracker[I]) Paths() []string {
	paths := make([]string, 0, len(t.cache))
	for p := range t.cache {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Pending reports how many build actions are queued for this pass.
func (t *Tracker[I]) Pending() int {
	return len(t.actions)
}

// Commit first cleans up every prior entry that was not re-confirmed by Add,
// then runs the queued build actions, then persists the updated map
// atomically. If any action fails the commit aborts and nothing is
// persisted: the previous cache file remains authoritative.
func (t *Tracker[I]) Commit(cleanup CleanupFunc[I]) error {
	if len(t.deletions) > 0 {
		fmt.Printf("🧹 [%s] Cleaning %d items\n", t.name, len(t.deletions))
		for path, entry := range t.deletions {
			if err := cleanup(entry.Info); err != nil {
				return fmt.Errorf("[%s] cleanup %s: %w", t.name, path, err)
			}
			delete(t.cache, path)
			delete(t.deletions, path)
		}
	}

	if len(t.actions) > 0 {
		fmt.Printf("🔨 [%s] Processing %d items\n", t.name, len(t.actions))
		for _, action := range t.actions {
			if err := action(); err != nil {
				return err
			}
		}
		t.actions = nil
	}

	return t.save()
}

func (t *Tracker[I]) save() error {
	data, err := json.Marshal(t.cache)
	if err != nil {
		return fmt.Errorf("[%s] failed to encode cache: %w", t.name, err)
	}
	if err := utils.WriteFileAtomic(t.fs, t.path, data, 0644); err != nil {
		return fmt.Errorf("[%s] failed to save cache: %w", t.name, err)
	}
	return nil
}
