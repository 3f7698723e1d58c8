package scad2web

import (
	"fmt"
	"regexp"
	"strings"
)

// fallbackPageName is used when sanitization leaves nothing of a path.
const fallbackPageName = "model"

// disallowedRuns matches any maximal run of hyphens and disallowed
// characters that contains at least one disallowed character. Absorbing
// the adjacent hyphens keeps sanitization from stacking new hyphens next
// to existing ones, while hyphen runs already present in the name pass
// through untouched.
var disallowedRuns = regexp.MustCompile(`-*(?:[^A-Za-z0-9._-]+-*)+`)

// PlanOutput derives the output artifacts for one entry document. It is a
// pure function of the virtual path: the same input always yields the same
// OutputSpec.
func PlanOutput(vpath string, cleanURLs bool) OutputSpec {
	filename := pageFilename(vpath)

	link := filename
	if cleanURLs {
		link = strings.TrimSuffix(filename, ".html")
	}

	return OutputSpec{
		VirtualPath: vpath,
		Filename:    filename,
		Link:        link,
		Label:       pageLabel(vpath),
	}
}

// PlanOutputs plans every entry of a build and enforces the invariant that
// output filenames are pairwise distinct. The directory-preserving name
// transform makes collisions unlikely but not impossible, so a collision is
// rejected instead of silently overwriting a page.
func PlanOutputs(vpaths []string, cleanURLs bool) ([]OutputSpec, error) {
	specs := make([]OutputSpec, 0, len(vpaths))
	seen := make(map[string]string, len(vpaths))

	for _, vpath := range vpaths {
		spec := PlanOutput(vpath, cleanURLs)
		if prev, ok := seen[spec.Filename]; ok {
			return nil, fmt.Errorf("%w: %s produced by both %s and %s", ErrOutputCollision, spec.Filename, prev, vpath)
		}
		seen[spec.Filename] = vpath
		specs = append(specs, spec)
	}
	return specs, nil
}

// pageFilename turns a virtual path into a flat, filesystem- and URL-safe
// page name. Directory separators become hyphens so directory context is
// preserved, which keeps similar basenames in different directories apart.
func pageFilename(vpath string) string {
	name := strings.TrimPrefix(vpath, "/")
	name = trimSCADSuffix(name)
	name = strings.ReplaceAll(name, "/", "-")
	name = disallowedRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-_")
	if name == "" {
		name = fallbackPageName
	}
	return name + ".html"
}

// pageLabel derives the human-facing label: the final path segment with a
// trailing .scad stripped, or the full virtual path if the segment is empty.
func pageLabel(vpath string) string {
	seg := vpath
	if i := strings.LastIndex(vpath, "/"); i >= 0 {
		seg = vpath[i+1:]
	}
	if seg == "" {
		return vpath
	}
	return trimSCADSuffix(seg)
}

// trimSCADSuffix strips a trailing .scad extension, case-insensitively.
func trimSCADSuffix(s string) string {
	if len(s) >= 5 && strings.EqualFold(s[len(s)-5:], ".scad") {
		return s[:len(s)-5]
	}
	return s
}
