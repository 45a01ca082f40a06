package util

import (
	"fmt"

	"github.com/gobwas/glob"
)

// PathFilter matches base names of directories and files against compiled
// exclude globs.
type PathFilter struct {
	dirs  []glob.Glob
	files []glob.Glob
}

func NewPathFilter(dirPatterns, filePatterns []string) (*PathFilter, error) {
	f := &PathFilter{
		dirs:  make([]glob.Glob, 0, len(dirPatterns)),
		files: make([]glob.Glob, 0, len(filePatterns)),
	}
	for _, p := range dirPatterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
		f.dirs = append(f.dirs, g)
	}
	for _, p := range filePatterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude file pattern %q: %w", p, err)
		}
		f.files = append(f.files, g)
	}
	return f, nil
}

// SkipDir reports whether a directory with base name name is excluded.
func (f *PathFilter) SkipDir(name string) bool {
	if f == nil {
		return false
	}
	for _, g := range f.dirs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (f *PathFilter) SkipFile(name string) bool {
	if f == nil {
		return false
	}
	for _, g := range f.files {
		if g.Match(name) {
			return true
		}
	}
	return false
}
