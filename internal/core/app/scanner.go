package app

import (
	"bufio"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pymap/internal/core/errors"
	"pymap/internal/engine/parser"

	"github.com/gobwas/glob"
)

// alwaysIgnored directories are skipped even when the configuration drops
// them from exclude.dirs.
var alwaysIgnored = []string{".git", "__pycache__"}

// Scan lists the project's Python sources as sorted slash-separated paths
// relative to the project root. Excluded directories are pruned by base
// name, excluded files by base name.
func (a *App) Scan() ([]string, error) {
	var files []string
	err := filepath.WalkDir(a.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == a.Root {
				return err
			}
			slog.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if path != a.Root && a.filter.SkipDir(name) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !parser.IsSupportedPath(name) || a.filter.SkipFile(name) {
			return nil
		}

		rel, err := filepath.Rel(a.Root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "scan project root"), errors.CtxPath, a.Root)
	}

	sort.Strings(files)
	return files, nil
}

// LoadIgnoreDirs reads directory names to skip from root/.gitignore. Comment
// and blank lines are dropped, as are negations; a trailing "/" and leading
// "*" or "/" characters are stripped so "build/", "/dist" and "**/env" all
// name a directory. A missing file yields no names.
func LoadIgnoreDirs(root string) ([]string, error) {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	seen := make(map[string]bool)
	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		name := strings.TrimLeft(strings.TrimRight(line, "/"), "*/")
		if name == "" || seen[name] {
			continue
		}
		if _, err := glob.Compile(name); err != nil {
			slog.Debug("ignoring unusable .gitignore entry", "entry", line, "error", err)
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, scanner.Err()
}

// excludeDirPatterns merges configured dir globs, the always-ignored names
// and, when enabled, .gitignore entries.
func excludeDirPatterns(root string, configured []string, useGitignore bool) ([]string, error) {
	patterns := append([]string(nil), configured...)
	patterns = append(patterns, alwaysIgnored...)
	if useGitignore {
		names, err := LoadIgnoreDirs(root)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "read .gitignore"), errors.CtxPath, root)
		}
		patterns = append(patterns, names...)
	}
	return patterns, nil
}
