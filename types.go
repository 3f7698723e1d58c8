package scad2web

import "encoding/json"

// VFS is the virtual filesystem of one build: every bundled file keyed by
// its canonical /-rooted virtual path. Keys are unique; the first writer
// wins and entries are never mutated after insertion.
type VFS map[string][]byte

// Document is one build input before resolution.
type Document struct {
	Path            string   // host path of the entry .scad file
	ParamFiles      []string // additional-params override files, in order
	DescriptionHTML string   // optional extra HTML shown on the entry's page
}

// Entry is a resolved build input.
type Entry struct {
	HostPath        string
	VirtualPath     string
	Metadata        json.RawMessage   // opaque compiler-produced parameter metadata
	ParameterSets   []json.RawMessage // additional parameter override objects, in order
	DescriptionHTML string
}

// OutputSpec names the produced artifacts for one entry. Derived
// deterministically from the entry's virtual path and never mutated.
type OutputSpec struct {
	VirtualPath string // the entry document's virtual path
	Filename    string // output page filename, e.g. models-gears.html
	Link        string // public link, extensionless when clean URLs are on
	Label       string // display label, e.g. gears
}

// Project identifies the project the generated pages belong to.
type Project struct {
	Name         string
	URI          string
	ExportPrefix string // filename prefix for exports downloaded from a page
}

// BuildRequest describes one build invocation.
type BuildRequest struct {
	Documents []Document
	Project   Project
}

// BuildResult is the complete outcome of one build. All maps and slices
// are owned by the caller once returned.
type BuildResult struct {
	Root       string            // common ancestor used for canonicalization
	Entries    []Entry           // same order as the request documents
	Outputs    []OutputSpec      // same order as Entries
	VFS        VFS               // every bundled file, fonts included
	WorkerFile string            // content-addressed worker script filename
	Files      map[string][]byte // output filename -> rendered bytes (pages + worker)
	Warnings   []string          // degraded-condition reports (e.g. font fallback)
}
