package fonts

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// fontExtensions are the file extensions treated as font candidates.
var fontExtensions = map[string]bool{
	".ttf": true,
	".otf": true,
	".ttc": true,
}

func isFontFile(name string) bool {
	return fontExtensions[strings.ToLower(path.Ext(name))]
}

// RuntimeDistSource extracts font files from a bundled OpenSCAD runtime
// distribution, either an unpacked directory tree or a .zip archive.
type RuntimeDistSource struct {
	Path string
}

// Name implements Source.
func (s *RuntimeDistSource) Name() string { return "embedded-runtime" }

// Discover implements Source. A missing or unusable distribution reports
// ErrSourceUnavailable so auto mode can fall through to the host system.
func (s *RuntimeDistSource) Discover() ([]File, error) {
	if s.Path == "" {
		return nil, fmt.Errorf("%w: no runtime distribution configured", ErrSourceUnavailable)
	}

	info, err := os.Stat(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, s.Path, err)
	}

	if info.IsDir() {
		files, err := collectFromFS(os.DirFS(s.Path))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, s.Path, err)
		}
		return files, nil
	}

	if strings.EqualFold(filepath.Ext(s.Path), ".zip") {
		return s.discoverZip()
	}
	return nil, fmt.Errorf("%w: %s is neither a directory nor a .zip archive", ErrSourceUnavailable, s.Path)
}

func (s *RuntimeDistSource) discoverZip() ([]File, error) {
	r, err := zip.OpenReader(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, s.Path, err)
	}
	defer r.Close()

	var files []File
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !isFontFile(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, f.Name, err)
		}
		files = append(files, File{Name: path.Base(f.Name), Data: data})
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// HostSource scans a fixed ordered list of host font directories.
type HostSource struct {
	Dirs []string
}

// DefaultHostDirs returns the standard scan order for host fonts.
func DefaultHostDirs() []string {
	dirs := []string{
		"/usr/share/fonts",
		"/usr/local/share/fonts",
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, ".fonts"),
			filepath.Join(home, ".local", "share", "fonts"),
		)
	}
	return dirs
}

// Name implements Source.
func (s *HostSource) Name() string { return "host-system" }

// Discover implements Source. Directories are scanned in order, so a font
// in an earlier directory outranks a same-named font in a later one. The
// source is unavailable only when none of the directories exist.
func (s *HostSource) Discover() ([]File, error) {
	var files []File
	found := false
	for _, dir := range s.Dirs {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		found = true
		dirFiles, err := collectFromFS(os.DirFS(dir))
		if err != nil {
			return nil, err
		}
		files = append(files, dirFiles...)
	}
	if !found {
		return nil, fmt.Errorf("%w: no font directories exist", ErrSourceUnavailable)
	}
	return files, nil
}

// collectFromFS walks a filesystem and returns its font files in lexical
// path order.
func collectFromFS(fsys fs.FS) ([]File, error) {
	var files []File
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isFontFile(p) {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		files = append(files, File{Name: path.Base(p), Data: data})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
