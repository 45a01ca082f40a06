package parser

import (
	"strings"

	"pymap/internal/shared/util"
)

// ModulePath derives the dotted module path for a project-relative file
// path. When the file sits under one of sourceRoots, the longest matching
// root is stripped first. A trailing __init__ segment is dropped and the
// file is reported as a package.
func ModulePath(relPath string, sourceRoots []string) (module string, isPackage bool) {
	rel := util.NormalizePatternPath(relPath)

	best := ""
	for _, root := range sourceRoots {
		root = util.NormalizePatternPath(root)
		if root == "" || rel == root || !util.HasPathPrefix(rel, root) {
			continue
		}
		if len(root) > len(best) {
			best = root
		}
	}
	if best != "" {
		rel = strings.TrimPrefix(rel, best+"/")
	}

	rel = strings.TrimSuffix(rel, SourceExtension)
	parts := strings.Split(rel, "/")
	if parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
		isPackage = true
	}
	return strings.Join(parts, "."), isPackage
}

// ResolveRelative turns the module part of a relative import (level leading
// dots followed by name) into an absolute module path. ok is false when the
// import climbs above the project root.
func ResolveRelative(module string, isPackage bool, level int, name string) (string, bool) {
	var parts []string
	if module != "" {
		parts = strings.Split(module, ".")
	}
	if !isPackage {
		if len(parts) == 0 {
			return "", false
		}
		parts = parts[:len(parts)-1]
	}
	for i := 1; i < level; i++ {
		if len(parts) == 0 {
			return "", false
		}
		parts = parts[:len(parts)-1]
	}
	return JoinQualified(strings.Join(parts, "."), name), true
}

// JoinQualified joins dotted name parts, skipping empty ones.
func JoinQualified(parts ...string) string {
	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}
