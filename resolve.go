package scad2web

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"unicode/utf8"
)

// includePattern matches OpenSCAD include and use directives. The match is
// line-based on purpose: directives inside comments or string literals are
// not distinguished from real ones, so any matching line pulls the
// referenced file into the bundle.
var includePattern = regexp.MustCompile(`^\s*(include|use)\s+<(.+)>\s*$`)

// Resolver walks include/use directives starting from entry documents and
// produces the virtual filesystem of everything they reach.
type Resolver struct {
	// Root is the canonical root all virtual paths are derived from.
	Root string

	// Trace, when set, receives one line per newly discovered file.
	Trace io.Writer
}

// Resolve performs a depth-first walk from every entry host path and
// returns one virtual file per distinct reachable host path. The presence
// check is keyed on the canonical virtual path, never the raw input
// spelling, which makes the walk idempotent and cycle-safe: a file reached
// again through a different relative route is not re-read.
func (r *Resolver) Resolve(entryHostPaths []string) (VFS, error) {
	if len(entryHostPaths) == 0 {
		return nil, ErrNoDocuments
	}

	vfs := make(VFS)
	for _, p := range entryHostPaths {
		if err := r.load(p, vfs); err != nil {
			return nil, err
		}
	}
	return vfs, nil
}

// load reads one file into the virtual filesystem and recurses into its
// include directives, resolved relative to the file's own directory.
func (r *Resolver) load(hostPath string, vfs VFS) error {
	vpath := Canonicalize(r.Root, hostPath)
	if _, ok := vfs[vpath]; ok {
		return nil
	}

	if r.Trace != nil {
		fmt.Fprintf(r.Trace, "Including %s\n", hostPath)
	}

	data, err := os.ReadFile(hostPath) // #nosec G304 -- paths come from the build's own include graph
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrReadSource, hostPath, err)
	}
	vfs[vpath] = data

	if !utf8.Valid(data) {
		return fmt.Errorf("%w: %s", ErrInvalidEncoding, hostPath)
	}

	// Split, not a scanner: generated models routinely carry single lines
	// of several megabytes of inline point data, which must not abort the
	// walk. The file is fully in memory already.
	dir := filepath.Dir(hostPath)
	for _, line := range bytes.Split(data, []byte("\n")) {
		m := includePattern.FindSubmatch(line)
		if m == nil {
			continue
		}
		next := filepath.Clean(filepath.Join(dir, filepath.FromSlash(string(m[2]))))
		if err := r.load(next, vfs); err != nil {
			return err
		}
	}

	return nil
}
