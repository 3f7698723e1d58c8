package scad2web

import (
	"path/filepath"
	"strings"
)

// CommonRoot returns the deepest common ancestor of the containing
// directories of the given host paths. It is computed once, before any
// resolution begins, so that every reachable file's relative path is
// unique by construction. Returns "" for an empty input.
func CommonRoot(hostPaths []string) string {
	if len(hostPaths) == 0 {
		return ""
	}

	common := splitPath(filepath.Dir(hostPaths[0]))
	for _, p := range hostPaths[1:] {
		segs := splitPath(filepath.Dir(p))
		n := 0
		for n < len(common) && n < len(segs) && common[n] == segs[n] {
			n++
		}
		common = common[:n]
	}

	root := strings.Join(common, string(filepath.Separator))
	if root == "" {
		// Diverged at the filesystem root.
		return string(filepath.Separator)
	}
	return root
}

// Canonicalize maps an absolute host path to its virtual path: "/" plus
// the path relative to root, with separators normalized to forward
// slashes. If the path resolves to the root itself, the base filename is
// used instead. Pure path arithmetic; never touches the filesystem.
//
// Files outside the root keep their ".." segments, which preserves
// uniqueness: two distinct host paths can never collapse to the same
// virtual path through a fixed root.
func Canonicalize(root, hostPath string) string {
	rel, err := filepath.Rel(root, hostPath)
	if err != nil || rel == "." {
		return "/" + filepath.Base(hostPath)
	}
	return "/" + filepath.ToSlash(rel)
}

// splitPath breaks a cleaned path into its separator-delimited segments.
// An absolute Unix path yields a leading "" segment so that joining with
// the separator restores the leading slash.
func splitPath(p string) []string {
	p = filepath.Clean(p)
	if p == string(filepath.Separator) {
		return []string{""}
	}
	return strings.Split(p, string(filepath.Separator))
}
