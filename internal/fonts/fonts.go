// Package fonts bundles font files and a minimal fontconfig configuration
// into a build's virtual filesystem. Fonts come from exactly one of a
// ranked list of sources: the bundled OpenSCAD runtime distribution or the
// host system's font directories.
package fonts

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Virtual paths occupied by bundled font assets.
const (
	DirVirtualPath  = "/fonts"
	ConfVirtualPath = "/fonts/fonts.conf"
)

// Selection limits.
const (
	// maxFonts caps the final selection regardless of source.
	maxFonts = 32
	// lexicalFallbackLimit bounds the fallback selection when none of the
	// preferred families are present.
	lexicalFallbackLimit = 16
)

// fontsConf is the minimal fontconfig file pointing the runtime at the
// bundled font directory and a scratch cache location.
const fontsConf = `<?xml version="1.0"?>
<!DOCTYPE fontconfig SYSTEM "fonts.dtd">
<fontconfig>
  <dir>/fonts</dir>
  <cachedir>/tmp/fontconfig-cache</cachedir>
</fontconfig>
`

// Sentinel errors for font bundling.
var (
	ErrUnknownMode       = errors.New("unknown font source mode")
	ErrSourceUnavailable = errors.New("font source unavailable")
	ErrNoFonts           = errors.New("no font files found")
)

// Mode selects where bundled fonts come from.
type Mode string

// Known font source modes.
const (
	ModeAuto    Mode = "auto"
	ModeRuntime Mode = "embedded-runtime"
	ModeHost    Mode = "host-system"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAuto, ModeRuntime, ModeHost:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: %q (must be auto, embedded-runtime, or host-system)", ErrUnknownMode, s)
}

// File is a discovered font blob.
type File struct {
	Name string // basename, e.g. DejaVuSans.ttf
	Data []byte
}

// Source discovers candidate font files. Implementations report
// ErrSourceUnavailable when their backing location does not exist, which
// lets the bundler fall through to the next ranked source in auto mode.
type Source interface {
	Name() string
	Discover() ([]File, error)
}

// Bundler merges font assets into a virtual filesystem. Sources are tried
// in rank order; the first one that discovers anything wins.
type Bundler struct {
	mode    Mode
	sources []Source
}

// NewBundler builds a Bundler for the given mode. runtimeDist is the path
// to the OpenSCAD runtime distribution (directory or .zip archive) and may
// be empty when the mode does not use it.
func NewBundler(mode Mode, runtimeDist string) *Bundler {
	var sources []Source
	switch mode {
	case ModeRuntime:
		sources = []Source{&RuntimeDistSource{Path: runtimeDist}}
	case ModeHost:
		sources = []Source{&HostSource{Dirs: DefaultHostDirs()}}
	default:
		sources = []Source{
			&RuntimeDistSource{Path: runtimeDist},
			&HostSource{Dirs: DefaultHostDirs()},
		}
	}
	return &Bundler{mode: mode, sources: sources}
}

// NewBundlerWithSources builds a Bundler over an explicit ranked source
// list, mainly for tests.
func NewBundlerWithSources(mode Mode, sources ...Source) *Bundler {
	return &Bundler{mode: mode, sources: sources}
}

// Bundle adds the fontconfig file and the selected font files to vfs.
// Returned warnings describe degraded conditions (a source that was
// skipped, or an empty selection). An error is returned only when the mode
// is pinned to a single source and that source failed or yielded nothing:
// a degraded build without fonts is still a valid build.
func (b *Bundler) Bundle(vfs map[string][]byte) ([]string, error) {
	var warnings []string

	// The fontconfig file is only skipped if something already occupies
	// its virtual path.
	if _, ok := vfs[ConfVirtualPath]; !ok {
		vfs[ConfVirtualPath] = []byte(fontsConf)
	}

	pinned := b.mode != ModeAuto && b.mode != ""

	var discovered []File
	var lastErr error
	for _, src := range b.sources {
		files, err := src.Discover()
		if err != nil {
			lastErr = err
			if pinned {
				return warnings, fmt.Errorf("font source %s: %w", src.Name(), err)
			}
			warnings = append(warnings, fmt.Sprintf("font source %s unavailable, falling back: %v", src.Name(), err))
			continue
		}
		if len(files) == 0 {
			lastErr = ErrNoFonts
			if pinned {
				return warnings, fmt.Errorf("font source %s: %w", src.Name(), ErrNoFonts)
			}
			warnings = append(warnings, fmt.Sprintf("font source %s yielded no candidates", src.Name()))
			continue
		}
		discovered = files
		break
	}

	if discovered == nil {
		warnings = append(warnings, fmt.Sprintf("no fonts bundled, text rendering will degrade: %v", lastErr))
		return warnings, nil
	}

	for _, f := range Select(discovered) {
		vfs[insertName(vfs, f.Name)] = f.Data
	}
	return warnings, nil
}

// insertName returns a free virtual path under the font directory for the
// given basename, appending a numeric suffix before the extension when the
// name is already taken by a font from another source directory.
func insertName(vfs map[string][]byte, name string) string {
	vpath := path.Join(DirVirtualPath, name)
	if _, ok := vfs[vpath]; !ok {
		return vpath
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		vpath = path.Join(DirVirtualPath, fmt.Sprintf("%s-%d%s", base, i, ext))
		if _, ok := vfs[vpath]; !ok {
			return vpath
		}
	}
}
