// Package filter decides which paths a scan considers.
package filter

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// ErrInvalidPattern is returned when a glob pattern fails to compile.
var ErrInvalidPattern = errors.New("invalid pattern")

// Predicate reports whether a path should be considered.
// isFile is false for directories; an excluded directory is pruned with
// everything beneath it. Implementations must be pure.
type Predicate interface {
	Include(path string, isFile bool) bool
}

// Func adapts an ordinary function to a Predicate.
type Func func(path string, isFile bool) bool

// Include calls f(path, isFile).
func (f Func) Include(path string, isFile bool) bool {
	return f(path, isFile)
}

// IncludeAll accepts every path.
var IncludeAll Predicate = Func(func(string, bool) bool { return true })

// Patterns excludes directories and files by glob.
//
// A pattern without a '/' is matched against the base name, so ".git" prunes
// every .git directory. A pattern containing '/' is matched against the whole
// slash-separated path, where '*' stops at separators and '**' does not.
type Patterns struct {
	dirs  []matcher
	files []matcher
}

type matcher struct {
	pattern  string
	fullPath bool
	g        glob.Glob
}

// NewPatterns compiles directory and file exclusion patterns.
func NewPatterns(dirs, files []string) (*Patterns, error) {
	compiledDirs, err := compileAll(dirs)
	if err != nil {
		return nil, err
	}
	compiledFiles, err := compileAll(files)
	if err != nil {
		return nil, err
	}
	return &Patterns{dirs: compiledDirs, files: compiledFiles}, nil
}

// Include returns false if path matches an exclusion pattern of its kind.
// Directory patterns are only consulted for directories, file patterns only for files.
func (p *Patterns) Include(path string, isFile bool) bool {
	if p == nil {
		return true
	}
	set := p.dirs
	if isFile {
		set = p.files
	}
	return !matchesAny(path, set)
}

// Empty reports whether no patterns were configured.
func (p *Patterns) Empty() bool {
	return p == nil || (len(p.dirs) == 0 && len(p.files) == 0)
}

// DirPatterns returns the source directory patterns.
func (p *Patterns) DirPatterns() []string {
	return sources(p.dirs)
}

// FilePatterns returns the source file patterns.
func (p *Patterns) FilePatterns() []string {
	return sources(p.files)
}

func compileAll(patterns []string) ([]matcher, error) {
	out := make([]matcher, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
		}
		out = append(out, matcher{
			pattern:  pattern,
			fullPath: strings.Contains(pattern, "/"),
			g:        g,
		})
	}
	return out, nil
}

func matchesAny(path string, set []matcher) bool {
	if len(set) == 0 {
		return false
	}
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, m := range set {
		subject := base
		if m.fullPath {
			subject = slashed
		}
		if m.g.Match(subject) {
			return true
		}
	}
	return false
}

func sources(set []matcher) []string {
	out := make([]string, 0, len(set))
	for _, m := range set {
		out = append(out, m.pattern)
	}
	return out
}
