// Package filter classifies filesystem paths as relevant or ignored.
package filter

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// defaultIgnores covers version-control metadata, build output and editor
// temp files. Applied in addition to any user-supplied patterns.
var defaultIgnores = []string{
	".git",
	".hg",
	".svn",
	".idea",
	".vscode",
	"target",
	"node_modules",
	"*.swp",
	"*.swo",
	"*~",
	".#*",
}

// Filter decides whether a changed path should count towards a test run.
// It is pure: no state beyond the configured patterns, no side effects.
type Filter struct {
	patterns []string
}

// New builds a Filter from user-supplied ignore patterns (glob syntax, matched
// against each path segment and against the whole slash-separated path). The
// built-in defaults are always included.
func New(patterns []string) (*Filter, error) {
	all := make([]string, 0, len(defaultIgnores)+len(patterns))
	all = append(all, defaultIgnores...)
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, err := path.Match(p, "probe"); err != nil {
			return nil, fmt.Errorf("ignore pattern %q: %w", p, err)
		}
		all = append(all, p)
	}
	return &Filter{patterns: all}, nil
}

// Relevant reports whether a change at p should count towards triggering a
// test run. Separators are normalized so the same patterns work on every
// platform.
func (f *Filter) Relevant(p string) bool {
	norm := filepath.ToSlash(p)

	for _, pat := range f.patterns {
		if ok, _ := path.Match(pat, norm); ok {
			return false
		}
		for _, seg := range strings.Split(norm, "/") {
			if seg == "" {
				continue
			}
			if ok, _ := path.Match(pat, seg); ok {
				return false
			}
		}
	}
	return true
}
