package main

import (
	"os"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// inputFlags holds build input selection flags.
type inputFlags struct {
	scad      string
	scadJSON  string
	workspace string
}

// projectFlags holds project identity flags.
type projectFlags struct {
	name         string
	uri          string
	exportPrefix string
}

// buildFlags holds all flags for the build command.
type buildFlags struct {
	common      commonFlags
	input       inputFlags
	project     projectFlags
	output      string
	runtimeDist string
	fontSource  string
	cleanURLs   bool
	workers     int
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show per-file progress and timing")
}

// addInputFlags adds input selection flags to a FlagSet.
func addInputFlags(fs *flag.FlagSet, f *inputFlags) {
	fs.StringVar(&f.scad, "scad", "", "input SCAD file (single-entry build)")
	fs.StringVar(&f.scadJSON, "scad-json", "", "multi-entry manifest: JSON array or @path")
	fs.StringVar(&f.workspace, "workspace", "", "directory relative input paths resolve against")
}

// addProjectFlags adds project identity flags to a FlagSet.
func addProjectFlags(fs *flag.FlagSet, f *projectFlags) {
	fs.StringVar(&f.name, "project-name", "", "project name shown on generated pages")
	fs.StringVar(&f.uri, "project-uri", "", "project homepage URI")
	fs.StringVar(&f.exportPrefix, "export-filename-prefix", "", "filename prefix for downloaded exports")
}

// parseBuildFlags parses build command flags and returns positional args.
func parseBuildFlags(args []string) (*buildFlags, []string, error) {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	f := &buildFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output directory (default: out)")
	fs.StringVar(&f.runtimeDist, "openscad-wasm", "", "OpenSCAD WebAssembly distribution (directory or .zip)")
	fs.StringVar(&f.fontSource, "font-source", "", "font source: auto, embedded-runtime, host-system")
	fs.BoolVar(&f.cleanURLs, "clean-urls", false, "generated links omit the .html extension")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel compiler invocations (0 = auto)")

	addCommonFlags(fs, &f.common)
	addInputFlags(fs, &f.input)
	addProjectFlags(fs, &f.project)

	fs.Usage = func() { printBuildUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
