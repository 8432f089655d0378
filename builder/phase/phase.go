// Package phase walks a source tree, classifies every file against an
// ordered list of pattern rules, and feeds matches into a change tracker
// keyed by source path. First match wins; unmatched files are skipped.
package phase

import (
	"fmt"
	"regexp"

	"github.com/spf13/afero"

	"inkpress/builder/tracker"
	"inkpress/builder/utils"
)

// BuildInfo reports the side effects of one handler invocation: the output
// files it wrote and the fact-store URLs it populated.
type BuildInfo struct {
	Files []string `json:"files,omitempty"`
	URLs  []string `json:"urls,omitempty"`
}

// Handler processes one classified source file, identified by its full
// path, and reports its side effects.
type Handler func(path string) (BuildInfo, error)

type rule struct {
	pattern *regexp.Regexp
	name    string
	handler Handler
}

// Phase is one classification pass over a source tree.
type Phase struct {
	fs      afero.Fs
	root    string
	rules   []rule
	tracker *tracker.Tracker[BuildInfo]
}

// New creates a phase over root, persisting its change-tracker state at
// cachePath. name identifies the phase in log output.
func New(fs afero.Fs, name, root, cachePath string) *Phase {
	return &Phase{
		fs:      fs,
		root:    root,
		tracker: tracker.Open[BuildInfo](fs, name, cachePath),
	}
}

// AddRule appends a classification rule. pattern is a case-insensitive
// regular expression anchored at both ends and matched against paths
// relative to the phase root. Order is significant: the first matching rule
// wins and later rules are not tried.
func (p *Phase) AddRule(pattern, name string, handler Handler) error {
	re, err := regexp.Compile("(?i)^" + pattern + "$")
	if err != nil {
		return fmt.Errorf("phase: invalid pattern %q: %w", pattern, err)
	}
	p.rules = append(p.rules, rule{pattern: re, name: name, handler: handler})
	return nil
}

// Paths returns every path the tracker currently knows about.
func (p *Phase) Paths() []string {
	return p.tracker.Paths()
}

// Info returns the last committed payload for a tracked source path.
func (p *Phase) Info(path string) (BuildInfo, bool) {
	return p.tracker.Info(path)
}

// Process enumerates all files under the root in sorted order, classifies
// each against the rules, and commits the tracker. cleanup runs for every
// previously tracked file that has vanished or changed.
func (p *Phase) Process(cleanup tracker.CleanupFunc[BuildInfo]) error {
	files, err := utils.FindFiles(p.fs, p.root)
	if err != nil {
		return err
	}

	for _, rel := range files {
		full := utils.JoinSlash(p.root, rel)
		for _, r := range p.rules {
			if !r.pattern.MatchString(rel) {
				continue
			}

			sum, err := utils.SumFile(p.fs, full)
			if err != nil {
				return fmt.Errorf("phase: fingerprint %s: %w", rel, err)
			}

			rel := rel
			handler := r.handler
			name := r.name
			p.tracker.Add(full, sum, func(path string) (BuildInfo, error) {
				fmt.Printf("⚙️  [%s] %s\n", name, rel)
				return handler(path)
			})
			break
		}
	}

	return p.tracker.Commit(cleanup)
}
