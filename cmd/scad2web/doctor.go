package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/scadworks/scad2web/internal/config"
	"github.com/scadworks/scad2web/internal/fileutil"
	"github.com/scadworks/scad2web/internal/fonts"
	"github.com/scadworks/scad2web/internal/openscad"
)

// checkStatus is the outcome of a single doctor check.
type checkStatus string

const (
	statusOK      checkStatus = "ok"
	statusWarning checkStatus = "warning"
	statusError   checkStatus = "error"
)

// doctorCheck is one environment check result.
type doctorCheck struct {
	Name    string      `json:"name"`
	Status  checkStatus `json:"status"`
	Details string      `json:"details"`
}

// doctorReport aggregates all checks.
type doctorReport struct {
	Status checkStatus   `json:"status"`
	Checks []doctorCheck `json:"checks"`
}

// runDoctor checks that the build environment is usable.
func runDoctor(ctx context.Context, args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "machine-readable output")
	var common commonFlags
	addCommonFlags(fs, &common)
	fs.Usage = func() { printDoctorUsage(env.Stderr) }
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	cfg := env.Config
	if common.config != "" {
		loaded, err := config.LoadConfig(common.config)
		if err != nil {
			fmt.Fprintf(env.Stderr, "error: %v\n", err)
			return exitCodeFor(err)
		}
		cfg = loaded
	}

	report := doctorReport{Status: statusOK}
	report.add(checkCompiler(ctx))
	report.add(checkRuntime(cfg.Runtime.Dist))
	report.add(checkFonts(cfg))
	report.add(checkTempDir())

	if *jsonOut {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(env.Stderr, "error: %v\n", err)
			return ExitGeneral
		}
	} else {
		printReport(env, report)
	}

	if report.Status == statusError {
		return ExitGeneral
	}
	return ExitSuccess
}

func (r *doctorReport) add(c doctorCheck) {
	r.Checks = append(r.Checks, c)
	switch c.Status {
	case statusError:
		r.Status = statusError
	case statusWarning:
		if r.Status == statusOK {
			r.Status = statusWarning
		}
	}
}

// checkCompiler verifies the openscad binary is installed and reports
// its version.
func checkCompiler(ctx context.Context) doctorCheck {
	c := doctorCheck{Name: "openscad"}

	path, err := exec.LookPath(openscad.DefaultBinary)
	if err != nil {
		c.Status = statusError
		c.Details = "openscad not found in PATH; parameter extraction will fail"
		return c
	}

	out, err := exec.CommandContext(ctx, path, "--version").CombinedOutput()
	if err != nil {
		c.Status = statusWarning
		c.Details = fmt.Sprintf("found %s but --version failed: %v", path, err)
		return c
	}

	c.Status = statusOK
	c.Details = fmt.Sprintf("%s (%s)", strings.TrimSpace(string(out)), path)
	return c
}

// checkRuntime verifies the configured runtime distribution is reachable.
func checkRuntime(dist string) doctorCheck {
	c := doctorCheck{Name: "openscad-wasm"}

	switch {
	case dist == "":
		c.Status = statusWarning
		c.Details = "no runtime distribution configured; generated packages will not run in a browser"
	case fileutil.DirExists(dist):
		c.Status = statusOK
		c.Details = fmt.Sprintf("directory %s", dist)
	case fileutil.FileExists(dist) && strings.EqualFold(filepath.Ext(dist), ".zip"):
		c.Status = statusOK
		c.Details = fmt.Sprintf("archive %s", dist)
	default:
		c.Status = statusError
		c.Details = fmt.Sprintf("%s is neither a directory nor a .zip archive", dist)
	}
	return c
}

// checkFonts verifies the configured font source can produce candidates.
func checkFonts(cfg *config.Config) doctorCheck {
	c := doctorCheck{Name: "fonts"}

	mode, err := fonts.ParseMode(cfg.Fonts.Source)
	if err != nil {
		c.Status = statusError
		c.Details = err.Error()
		return c
	}

	vfs := map[string][]byte{}
	warnings, err := fonts.NewBundler(mode, cfg.Runtime.Dist).Bundle(vfs)
	switch {
	case err != nil:
		c.Status = statusError
		c.Details = err.Error()
	case len(warnings) > 0:
		c.Status = statusWarning
		c.Details = warnings[0]
	default:
		// fonts.conf always lands in the bundle; count only font files.
		c.Status = statusOK
		c.Details = fmt.Sprintf("%d font file(s) available", len(vfs)-1)
	}
	return c
}

// checkTempDir verifies the temp directory is writable. Parameter
// extraction writes compiler output there.
func checkTempDir() doctorCheck {
	c := doctorCheck{Name: "temp-dir"}

	f, err := os.CreateTemp("", "scad2web-doctor-*")
	if err != nil {
		c.Status = statusError
		c.Details = fmt.Sprintf("temp directory not writable: %v", err)
		return c
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	c.Status = statusOK
	c.Details = os.TempDir()
	return c
}

func printReport(env *Environment, report doctorReport) {
	marks := map[checkStatus]string{
		statusOK:      "ok",
		statusWarning: "warn",
		statusError:   "FAIL",
	}
	for _, c := range report.Checks {
		fmt.Fprintf(env.Stdout, "%-6s %-14s %s\n", marks[c.Status], c.Name, c.Details)
	}
	fmt.Fprintf(env.Stdout, "\nstatus: %s\n", report.Status)
}
