package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: scad2web <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  build      Bundle SCAD documents into a web package")
	fmt.Fprintln(w, "  doctor     Check the environment (openscad, runtime, fonts)")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'scad2web help <command>' for details on a specific command.")
}

// printBuildUsage prints usage for the build command.
func printBuildUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: scad2web build [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Bundle one or more SCAD documents and everything they include into a")
	fmt.Fprintln(w, "self-contained web package.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input:")
	fmt.Fprintln(w, "      --scad <path>           Input SCAD file (single-entry build)")
	fmt.Fprintln(w, "      --scad-json <json|@f>   Multi-entry manifest: JSON array of")
	fmt.Fprintln(w, "                              {file, additional-params?, description-extra-html?,")
	fmt.Fprintln(w, "                              description-extra-md?}, inline or @path")
	fmt.Fprintln(w, "      --workspace <dir>       Directory relative input paths resolve against")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <dir>          Output directory (default: out)")
	fmt.Fprintln(w, "      --openscad-wasm <path>  OpenSCAD WebAssembly distribution (dir or .zip)")
	fmt.Fprintln(w, "      --clean-urls            Generated links omit the .html extension")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Project:")
	fmt.Fprintln(w, "      --project-name <s>      Project name (default: repository name)")
	fmt.Fprintln(w, "      --project-uri <s>       Project homepage URI")
	fmt.Fprintln(w, "      --export-filename-prefix <s>")
	fmt.Fprintln(w, "                              Filename prefix for downloaded exports")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fonts:")
	fmt.Fprintln(w, "      --font-source <s>       auto, embedded-runtime, host-system")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Other:")
	fmt.Fprintln(w, "  -c, --config <name>         Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>           Parallel compiler invocations (0 = auto)")
	fmt.Fprintln(w, "  -q, --quiet                 Only show errors")
	fmt.Fprintln(w, "  -v, --verbose               Show per-file progress and timing")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: scad2web doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that the build environment is usable: openscad binary, runtime")
	fmt.Fprintln(w, "distribution, font sources, and temp directory.")
}

// runHelp handles the help command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "build":
		printBuildUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version", "help":
		printUsage(env.Stdout)
	default:
		fmt.Fprintf(env.Stderr, "unknown command %q\n\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
