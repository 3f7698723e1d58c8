package main

import (
	"errors"
	"os"

	scad2web "github.com/scadworks/scad2web"
	"github.com/scadworks/scad2web/internal/config"
	"github.com/scadworks/scad2web/internal/fonts"
	"github.com/scadworks/scad2web/internal/manifest"
	"github.com/scadworks/scad2web/internal/openscad"
)

// Exit codes for the scad2web CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, custom < 126.
const (
	ExitSuccess  = 0 // successful build
	ExitGeneral  = 1 // general/unexpected error (compiler failures included)
	ExitUsage    = 2 // invalid flags, manifest, config, or validation
	ExitIO       = 3 // file not found, permission denied, write failures
	ExitCompiler = 4 // openscad invocation errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must wrap with
// fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Compiler errors (exit 4)
	if errors.Is(err, openscad.ErrCompilerRun) ||
		errors.Is(err, scad2web.ErrMetadataExtract) {
		return ExitCompiler
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, scad2web.ErrReadSource) ||
		errors.Is(err, manifest.ErrIndirectionRead) ||
		errors.Is(err, openscad.ErrParamFileRead) ||
		errors.Is(err, ErrWriteOutput) {
		return ExitIO
	}

	// Usage/manifest/config/validation errors (exit 2)
	if errors.Is(err, manifest.ErrNoInput) ||
		errors.Is(err, manifest.ErrMultipleScadPaths) ||
		errors.Is(err, manifest.ErrInvalidJSON) ||
		errors.Is(err, manifest.ErrNotArray) ||
		errors.Is(err, manifest.ErrNotObject) ||
		errors.Is(err, manifest.ErrMissingFile) ||
		errors.Is(err, manifest.ErrInvalidField) ||
		errors.Is(err, manifest.ErrConflictingFields) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrInvalidWorkers) ||
		errors.Is(err, fonts.ErrUnknownMode) ||
		errors.Is(err, fonts.ErrSourceUnavailable) ||
		errors.Is(err, fonts.ErrNoFonts) ||
		errors.Is(err, openscad.ErrParamFileShape) ||
		errors.Is(err, openscad.ErrMetadataShape) ||
		errors.Is(err, scad2web.ErrNoDocuments) ||
		errors.Is(err, scad2web.ErrInvalidEncoding) ||
		errors.Is(err, scad2web.ErrOutputCollision) {
		return ExitUsage
	}

	return ExitGeneral
}
